// Package enricher fetches settlement, event, and series metadata from the
// side channel after a terminal lifecycle event, without blocking the
// inbound frame loop.
package enricher

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rickgao/kalshi-collector/internal/model"
	"github.com/rickgao/kalshi-collector/internal/sidechannel"
	"github.com/rickgao/kalshi-collector/internal/wire"
)

// Callbacks wires enrichment results to the Writer.
type Callbacks struct {
	OnSettlement func(model.Settlement)
	OnEvent      func(model.Event)
	OnSeries     func(model.Series)
}

// SideChannel is the subset of *sidechannel.Client the Enricher calls. An
// interface here lets tests supply a fake instead of spinning up an
// httptest server.
type SideChannel interface {
	GetMarket(ctx context.Context, ticker string) (*sidechannel.Market, error)
	GetEvent(ctx context.Context, eventTicker string) (*sidechannel.Event, error)
	GetSeries(ctx context.Context, seriesTicker string) (*sidechannel.Series, error)
}

// DefaultRetryDelay is how long Enrich waits before retrying a GetMarket
// call that returned a null result field.
const DefaultRetryDelay = 2 * time.Second

// DefaultRequestTimeout bounds each individual side-channel call an
// enrichment task makes: a failed request is logged and the task ends
// rather than hanging on a slow or wedged side channel.
const DefaultRequestTimeout = 10 * time.Second

// Enricher runs fire-and-forget enrichment tasks. Every Enrich call spawns a
// goroutine tracked in an in-memory task set so Shutdown can drain
// outstanding work instead of leaking it past process exit.
type Enricher struct {
	client         SideChannel
	cb             Callbacks
	logger         *slog.Logger
	retryDelay     time.Duration
	requestTimeout time.Duration

	mu     sync.Mutex
	tasks  map[int64]struct{}
	nextID int64
	wg     sync.WaitGroup
}

// New creates an Enricher.
func New(client SideChannel, cb Callbacks, logger *slog.Logger) *Enricher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Enricher{
		client:         client,
		cb:             cb,
		logger:         logger.With("component", "enricher"),
		retryDelay:     DefaultRetryDelay,
		requestTimeout: DefaultRequestTimeout,
		tasks:          make(map[int64]struct{}),
	}
}

// Enrich spawns a fire-and-forget task for one "enrichment needed" event.
// It returns immediately; the caller (Discovery, via the orchestrator) must
// not wait on it.
func (e *Enricher) Enrich(ctx context.Context, ticker, eventTicker, eventType string) {
	id := atomic.AddInt64(&e.nextID, 1)

	e.mu.Lock()
	e.tasks[id] = struct{}{}
	e.mu.Unlock()

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer func() {
			e.mu.Lock()
			delete(e.tasks, id)
			e.mu.Unlock()
		}()
		defer func() {
			if r := recover(); r != nil {
				e.logger.Error("enrichment task panicked", "ticker", ticker, "panic", r)
			}
		}()

		if err := e.run(ctx, ticker, eventTicker, eventType); err != nil {
			e.logger.Warn("enrichment failed", "ticker", ticker, "event_ticker", eventTicker, "error", err)
		}
	}()
}

// getMarket, getEvent, and getSeries each bound their side-channel call to
// requestTimeout independently of ctx's own deadline, so one slow call
// can't eat the whole task's budget.

func (e *Enricher) getMarket(ctx context.Context, ticker string) (*sidechannel.Market, error) {
	callCtx, cancel := context.WithTimeout(ctx, e.requestTimeout)
	defer cancel()
	return e.client.GetMarket(callCtx, ticker)
}

func (e *Enricher) getEvent(ctx context.Context, eventTicker string) (*sidechannel.Event, error) {
	callCtx, cancel := context.WithTimeout(ctx, e.requestTimeout)
	defer cancel()
	return e.client.GetEvent(callCtx, eventTicker)
}

func (e *Enricher) getSeries(ctx context.Context, seriesTicker string) (*sidechannel.Series, error) {
	callCtx, cancel := context.WithTimeout(ctx, e.requestTimeout)
	defer cancel()
	return e.client.GetSeries(callCtx, seriesTicker)
}

func (e *Enricher) run(ctx context.Context, ticker, eventTicker, eventType string) error {
	if eventType == wire.LifecycleDetermined || eventType == wire.LifecycleSettled {
		market, err := e.getMarket(ctx, ticker)
		if err != nil {
			return err
		}

		if market.Result == "" {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(e.retryDelay):
			}

			market, err = e.getMarket(ctx, ticker)
			if err != nil {
				return err
			}
		}

		if market.Result != "" {
			if e.cb.OnSettlement != nil {
				e.cb.OnSettlement(settlementFromMarket(ticker, market))
			}
		}

		if eventTicker == "" {
			eventTicker = market.EventTicker
		}
	}

	if eventTicker == "" {
		return nil
	}

	event, err := e.getEvent(ctx, eventTicker)
	if err != nil {
		return err
	}
	if e.cb.OnEvent != nil {
		e.cb.OnEvent(model.Event{
			EventTicker:  event.EventTicker,
			SeriesTicker: event.SeriesTicker,
			Title:        event.Title,
			Category:     event.Category,
			SubTitle:     event.Subtitle,
			UpdatedAt:    time.Now().UnixMicro(),
		})
	}

	if event.SeriesTicker == "" {
		return nil
	}

	series, err := e.getSeries(ctx, event.SeriesTicker)
	if err != nil {
		return err
	}
	if e.cb.OnSeries != nil {
		e.cb.OnSeries(model.Series{
			Ticker:            series.Ticker,
			Title:             series.Title,
			Category:          series.Category,
			Frequency:         series.Frequency,
			Tags:              tagsToMap(series.Tags),
			SettlementSources: series.SettlementSources,
			UpdatedAt:         time.Now().UnixMicro(),
		})
	}

	return nil
}

func settlementFromMarket(ticker string, market *sidechannel.Market) model.Settlement {
	var value int64
	if market.SettlementValue != nil {
		value = int64(*market.SettlementValue) * 1000
	}
	return model.Settlement{
		Ticker:          ticker,
		EventTicker:     market.EventTicker,
		Result:          market.Result,
		SettlementValue: value,
		DeterminedAt:    time.Now().UnixMicro(),
		Source:          "side_channel",
	}
}

func tagsToMap(tags []string) map[string]string {
	m := make(map[string]string, len(tags))
	for _, t := range tags {
		m[t] = t
	}
	return m
}

// ActiveTasks reports the number of in-flight enrichment goroutines, for the
// metrics-log line.
func (e *Enricher) ActiveTasks() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.tasks)
}

// Shutdown waits for outstanding enrichment tasks to finish, or for ctx to
// be cancelled, whichever comes first.
func (e *Enricher) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
