package poller

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rickgao/kalshi-collector/internal/model"
	"github.com/rickgao/kalshi-collector/internal/sidechannel"
)

// TickerSource supplies the tickers currently worth polling. Satisfied by
// *discovery.Discovery's ResubscribeList (active ∪ pending).
type TickerSource interface {
	ResubscribeList() []string
}

// OrderbookFetcher fetches a market's current orderbook over REST.
// Satisfied by *sidechannel.Client.
type OrderbookFetcher interface {
	GetOrderbook(ctx context.Context, ticker string, depth int) (*sidechannel.OrderbookResponse, error)
}

// SnapshotHandler receives fetched snapshots. Satisfied by *writer.Writer's
// AddSnapshot.
type SnapshotHandler interface {
	AddSnapshot(snapshot model.OrderbookSnapshot)
}

// SnapshotHandlerFunc adapts a function to SnapshotHandler.
type SnapshotHandlerFunc func(model.OrderbookSnapshot)

func (f SnapshotHandlerFunc) AddSnapshot(s model.OrderbookSnapshot) { f(s) }

// Config holds poller configuration.
type Config struct {
	Interval    time.Duration // Poll interval (default: 15m)
	Concurrency int           // Max concurrent requests (default: 100)
	Timeout     time.Duration // Per-request timeout (default: 10s)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Interval:    15 * time.Minute,
		Concurrency: 100,
		Timeout:     10 * time.Second,
	}
}

// Poller periodically refreshes orderbook snapshots over REST, tagging
// each with source="rest" to distinguish it from the streamed WebSocket
// snapshots it supplements.
type Poller struct {
	cfg     Config
	client  OrderbookFetcher
	tickers TickerSource
	handler SnapshotHandler
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new Poller.
func New(cfg Config, client OrderbookFetcher, tickers TickerSource, handler SnapshotHandler, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		cfg:     cfg,
		client:  client,
		tickers: tickers,
		handler: handler,
		logger:  logger.With("component", "poller"),
	}
}

// Start begins the polling loop.
func (p *Poller) Start(ctx context.Context) {
	p.ctx, p.cancel = context.WithCancel(ctx)

	p.wg.Add(1)
	go p.run()

	p.logger.Info("snapshot poller started",
		"interval", p.cfg.Interval,
		"concurrency", p.cfg.Concurrency,
	)
}

// Stop gracefully shuts down the poller.
func (p *Poller) Stop(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("snapshot poller stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run is the main polling loop.
func (p *Poller) run() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	// Poll immediately on start.
	p.pollAll()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.pollAll()
		}
	}
}

// pollAll fetches orderbooks for every currently-subscribed ticker
// concurrently, bounded by cfg.Concurrency.
func (p *Poller) pollAll() {
	start := time.Now()

	tickers := p.tickers.ResubscribeList()
	if len(tickers) == 0 {
		p.logger.Debug("no active tickers to poll")
		return
	}

	sem := make(chan struct{}, p.cfg.Concurrency)
	var wg sync.WaitGroup
	var fetched, errors atomic.Int64

	for _, t := range tickers {
		wg.Add(1)
		go func(ticker string) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-p.ctx.Done():
				return
			}

			if err := p.pollOne(ticker); err != nil {
				p.logger.Warn("failed to poll market",
					"ticker", ticker,
					"err", err,
				)
				errors.Add(1)
				return
			}

			fetched.Add(1)
		}(t)
	}

	wg.Wait()

	p.logger.Info("poll cycle complete",
		"tickers", len(tickers),
		"fetched", fetched.Load(),
		"errors", errors.Load(),
		"duration", time.Since(start),
	)
}

// pollOne fetches and hands off a single ticker's orderbook.
func (p *Poller) pollOne(ticker string) error {
	ctx, cancel := context.WithTimeout(p.ctx, p.cfg.Timeout)
	defer cancel()

	ob, err := p.client.GetOrderbook(ctx, ticker, 0) // 0 = all levels
	if err != nil {
		return err
	}

	if p.handler != nil {
		p.handler.AddSnapshot(ob.ToOrderbookSnapshot(ticker, "rest"))
	}
	return nil
}
