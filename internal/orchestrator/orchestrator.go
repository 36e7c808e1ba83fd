// Package orchestrator wires every component into one running collector
// process: it owns construction order, the inbound frame dispatch table,
// the reconnect/resubscribe sequence, the background metrics and partition
// maintenance loops, and graceful shutdown.
package orchestrator

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/rickgao/kalshi-collector/internal/auth"
	"github.com/rickgao/kalshi-collector/internal/config"
	"github.com/rickgao/kalshi-collector/internal/discovery"
	"github.com/rickgao/kalshi-collector/internal/enricher"
	"github.com/rickgao/kalshi-collector/internal/metrics"
	"github.com/rickgao/kalshi-collector/internal/model"
	"github.com/rickgao/kalshi-collector/internal/poller"
	"github.com/rickgao/kalshi-collector/internal/processor"
	"github.com/rickgao/kalshi-collector/internal/sidechannel"
	"github.com/rickgao/kalshi-collector/internal/store"
	"github.com/rickgao/kalshi-collector/internal/streamclient"
	"github.com/rickgao/kalshi-collector/internal/wire"
	"github.com/rickgao/kalshi-collector/internal/writer"
)

// resubscribeBatchSize caps how many tickers go into one subscribe command
// after a reconnect, so a large active set doesn't produce one oversized
// frame.
const resubscribeBatchSize = 100

// metricsLogInterval is how often the metrics-log line and gauge refresh
// run.
const metricsLogInterval = time.Minute

// partitionPrecreateInterval is how often the upcoming-partition horizon is
// extended.
const partitionPrecreateInterval = time.Hour

// partitionHorizonDays is how many days ahead of today partitions are kept
// precreated.
const partitionHorizonDays = 2

// Orchestrator owns every component and their wiring for one collector
// process.
type Orchestrator struct {
	cfg    *config.Config
	logger *slog.Logger

	pool       *pgxpool.Pool
	sideClient *sidechannel.Client

	discovery  *discovery.Discovery
	writer     *writer.Writer
	enricher   *enricher.Enricher
	processor  *processor.Processor
	poller     *poller.Poller
	stream     *streamclient.Client
	metricsReg *metrics.Registry
	metricsSrv *metrics.Server

	gapsTotal       atomic.Int64
	reconnectsTotal atomic.Int64
	firstConnect    atomic.Bool

	prevMu      sync.Mutex
	prevInserts map[string]int64
	prevErrors  map[string]int64
	prevFlushes int64

	runCtx context.Context
	cancel context.CancelFunc
}

// New constructs every component in dependency order and wires their
// callbacks together, but starts nothing.
func New(cfg *config.Config, creds *auth.Credentials, logger *slog.Logger) (*Orchestrator, error) {
	if logger == nil {
		logger = slog.Default()
	}
	o := &Orchestrator{
		cfg:         cfg,
		logger:      logger.With("component", "orchestrator"),
		prevInserts: make(map[string]int64),
		prevErrors:  make(map[string]int64),
	}
	o.firstConnect.Store(true)

	ctx := context.Background()
	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	o.pool = pool

	o.sideClient = sidechannel.New(cfg.SideChannel.BaseURL, creds, sidechannel.WithLogger(logger))

	o.writer = writer.New(writer.Config{
		BatchSize:     cfg.Writer.BatchSize,
		FlushInterval: cfg.Writer.FlushInterval,
	}, pool, logger)

	o.discovery = discovery.New(cfg.Discovery.MaxSubscriptions, discovery.Callbacks{
		Subscribe:          o.subscribeTicker,
		Unsubscribe:        o.unsubscribeTicker,
		OnOverflow:         o.writer.AddOverflow,
		OnMarketUpdate:     o.writer.AddMarketUpdate,
		OnEnrichmentNeeded: o.onEnrichmentNeeded,
	}, logger)

	o.enricher = enricher.New(o.sideClient, enricher.Callbacks{
		OnSettlement: o.writer.AddSettlement,
		OnEvent:      o.writer.AddEvent,
		OnSeries:     o.writer.AddSeries,
	}, logger)

	o.processor = processor.New(processor.Callbacks{
		OnSnapshot:  o.writer.AddSnapshot,
		OnDelta:     o.writer.AddDelta,
		OnTrade:     o.writer.AddTrade,
		OnGap:       o.onGap,
		Resubscribe: o.resubscribeTicker,
	}, logger)

	streamCfg := streamclient.DefaultConfig()
	streamCfg.URL = cfg.Stream.URL + cfg.Stream.Path
	streamCfg.KeyID = cfg.Stream.KeyID
	if creds != nil {
		streamCfg.PrivateKey = creds.PrivateKey
	}
	if cfg.Stream.WatchdogTimeout > 0 {
		streamCfg.WatchdogTimeout = cfg.Stream.WatchdogTimeout
	}
	streamCfg.OnMessage = o.handleMessage
	streamCfg.OnReconnect = o.handleReconnect
	o.stream = streamclient.New(streamCfg, logger)

	o.poller = poller.New(poller.DefaultConfig(), o.sideClient, o.discovery, o.writer, logger)

	reg, promReg := metrics.NewRegistry()
	o.metricsReg = reg
	o.metricsSrv = metrics.NewServer(cfg.Metrics.Port, promReg, logger)

	return o, nil
}

// Run seeds Discovery from the side channel's full market listing (markets
// with status "active" or "initialized"; the Markets table is not read),
// queues a market upsert for every listed market, starts every background
// component, and blocks until ctx is canceled. It always returns a non-nil
// error from errgroup.Group unless every goroutine exits cleanly on
// shutdown.
func (o *Orchestrator) Run(ctx context.Context) error {
	seedCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	markets, err := o.sideClient.GetAllMarkets(seedCtx)
	cancel()
	if err != nil {
		o.logger.Warn("failed to seed discovery from side channel, starting with an empty set", "error", err)
	} else {
		tickers := make([]string, 0, len(markets))
		for _, m := range markets {
			o.writer.AddMarketUpdate(marketFromSideChannel(m))
			if isSeedable(m.Status) {
				tickers = append(tickers, m.Ticker)
			}
		}
		o.discovery.Seed(tickers)
		o.logger.Info("discovery seeded", "tickers", len(tickers))
	}

	runCtx, cancel := context.WithCancel(ctx)
	o.runCtx = runCtx
	o.cancel = cancel

	o.writer.Start(runCtx)
	o.metricsSrv.Start()
	o.poller.Start(runCtx)

	g, gCtx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		o.stream.Start(gCtx)
		return nil
	})
	g.Go(func() error {
		o.metricsLoop(gCtx)
		return nil
	})
	g.Go(func() error {
		o.partitionLoop(gCtx)
		return nil
	})

	<-runCtx.Done()
	return g.Wait()
}

// Shutdown stops every component in reverse dependency order: stream first
// (stop producing new work), then the poller, then the enricher (drain
// in-flight tasks), then the writer (final flush), then the metrics server,
// then the database pool.
func (o *Orchestrator) Shutdown(ctx context.Context) {
	if o.cancel != nil {
		o.cancel()
	}

	o.stream.Stop()

	pollerCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	if err := o.poller.Stop(pollerCtx); err != nil {
		o.logger.Warn("poller stop timed out", "error", err)
	}
	cancel()

	enrichCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	if err := o.enricher.Shutdown(enrichCtx); err != nil {
		o.logger.Warn("enricher drain timed out", "error", err)
	}
	cancel()

	flushCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	o.writer.Stop(flushCtx)
	cancel()

	metricsCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	if err := o.metricsSrv.Stop(metricsCtx); err != nil {
		o.logger.Warn("metrics server stop error", "error", err)
	}
	cancel()

	o.pool.Close()
	o.logger.Info("shutdown complete")
}

func isSeedable(status string) bool {
	switch status {
	case "active", "initialized":
		return true
	}
	return false
}

// subscribeTicker is Discovery's Subscribe callback: it subscribes the
// orderbook channel for one newly-pending ticker.
func (o *Orchestrator) subscribeTicker(ticker string) {
	if _, err := o.stream.Subscribe([]string{wire.ChannelOrderbook}, []string{ticker}); err != nil {
		o.logger.Warn("subscribe failed", "ticker", ticker, "error", err)
	}
}

// unsubscribeTicker is Discovery's Unsubscribe callback. Processor state is
// cleared on receipt of the exchange's "unsubscribed" ack, not here.
func (o *Orchestrator) unsubscribeTicker(ticker string) {
	if _, err := o.stream.Unsubscribe([]string{wire.ChannelOrderbook}, []string{ticker}); err != nil {
		o.logger.Warn("unsubscribe failed", "ticker", ticker, "error", err)
	}
}

// resubscribeTicker is Processor's Resubscribe callback, invoked when a
// sequence gap is detected: drop the stale subscription and re-request it so
// the exchange sends a fresh snapshot.
func (o *Orchestrator) resubscribeTicker(ticker string) {
	if _, err := o.stream.Unsubscribe([]string{wire.ChannelOrderbook}, []string{ticker}); err != nil {
		o.logger.Warn("gap resubscribe: unsubscribe failed", "ticker", ticker, "error", err)
	}
	time.Sleep(200 * time.Millisecond)
	if _, err := o.stream.Subscribe([]string{wire.ChannelOrderbook}, []string{ticker}); err != nil {
		o.logger.Warn("gap resubscribe: subscribe failed", "ticker", ticker, "error", err)
	}
}

func (o *Orchestrator) onGap(gap model.SequenceGap) {
	o.gapsTotal.Add(1)
	o.writer.AddGap(gap)
}

func (o *Orchestrator) onEnrichmentNeeded(ticker, eventTicker, eventType string) {
	ctx := o.runCtx
	if ctx == nil {
		ctx = context.Background()
	}
	o.enricher.Enrich(ctx, ticker, eventTicker, eventType)
}

// handleReconnect re-issues every subscription after a fresh handshake:
// lifecycle and trade channels first (account-wide, no ticker filter), then
// every orderbook subscription in bounded batches.
func (o *Orchestrator) handleReconnect() {
	first := o.firstConnect.CompareAndSwap(true, false)
	if !first {
		o.reconnectsTotal.Add(1)
	}

	if _, err := o.stream.Subscribe([]string{wire.ChannelLifecycle}, nil); err != nil {
		o.logger.Error("resubscribe lifecycle failed", "error", err)
	}
	if _, err := o.stream.Subscribe([]string{wire.ChannelTrade}, nil); err != nil {
		o.logger.Error("resubscribe trade failed", "error", err)
	}

	tickers := o.discovery.ResubscribeList()
	for i := 0; i < len(tickers); i += resubscribeBatchSize {
		end := i + resubscribeBatchSize
		if end > len(tickers) {
			end = len(tickers)
		}
		if _, err := o.stream.Subscribe([]string{wire.ChannelOrderbook}, tickers[i:end]); err != nil {
			o.logger.Error("resubscribe orderbook batch failed", "batch_start", i, "error", err)
		}
		if end < len(tickers) {
			time.Sleep(50 * time.Millisecond)
		}
	}

	o.logger.Info("resubscribed after reconnect", "tickers", len(tickers))
}
