// Package writer batches validated records and enrichment results into
// per-table buffers and flushes them to storage on a size or time trigger,
// re-prepending a batch that fails to insert so a transient database blip
// never drops data.
package writer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5"

	"github.com/rickgao/kalshi-collector/internal/model"
)

// DB is the subset of *pgxpool.Pool the Writer needs. Declared here so
// tests can supply a fake instead of a live database.
type DB interface {
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Config controls batch sizing and flush cadence.
type Config struct {
	BatchSize     int
	FlushInterval time.Duration
}

// DefaultConfig returns the spec's defaults: 500-row batches, 2s flush tick.
func DefaultConfig() Config {
	return Config{BatchSize: 500, FlushInterval: 2 * time.Second}
}

// Metrics tallies per-destination insert/error/flush counts for the
// metrics-log line.
type Metrics struct {
	Inserts map[string]int64
	Errors  map[string]int64
	Flushes int64
}

func newMetrics() Metrics {
	return Metrics{Inserts: make(map[string]int64), Errors: make(map[string]int64)}
}

// Writer owns one buffer per destination table, all protected by a single
// mutex. Add* methods and the flush loop both acquire it; flushes release
// the lock before performing DB I/O by swapping the buffer out first.
type Writer struct {
	cfg    Config
	db     DB
	logger *slog.Logger

	mu            sync.Mutex
	snapshots     []model.OrderbookSnapshot
	deltas        []model.OrderbookDelta
	trades        []model.Trade
	settlements   []model.Settlement
	events        []model.Event
	series        []model.Series
	gaps          []model.SequenceGap
	overflow      []model.SubscriptionOverflow
	marketUpdates []model.Market
	metrics       Metrics

	flushTicker *time.Ticker
	cancel      context.CancelFunc
	wg          sync.WaitGroup
}

// New creates a Writer.
func New(cfg Config, db DB, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 500
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 2 * time.Second
	}
	return &Writer{
		cfg:     cfg,
		db:      db,
		logger:  logger.With("component", "writer"),
		metrics: newMetrics(),
	}
}

// Start begins the periodic flush loop. The caller drives the loop's
// lifetime via the supplied context; Stop should still be called to run a
// final flush.
func (w *Writer) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.flushTicker = time.NewTicker(w.cfg.FlushInterval)

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case <-w.flushTicker.C:
				w.FlushAll(context.Background())
			}
		}
	}()
}

// Stop halts the flush loop and drains every buffer.
func (w *Writer) Stop(ctx context.Context) {
	if w.cancel != nil {
		w.cancel()
	}
	if w.flushTicker != nil {
		w.flushTicker.Stop()
	}
	w.wg.Wait()
	w.FlushAll(ctx)
}

// FlushAll flushes every non-empty buffer. Called by the periodic loop,
// on shutdown, and directly by tests.
func (w *Writer) FlushAll(ctx context.Context) {
	w.flushSnapshots(ctx)
	w.flushDeltas(ctx)
	w.flushTrades(ctx)
	w.flushGaps(ctx)
	w.flushOverflow(ctx)
	w.flushSettlements(ctx)
	w.flushMarketUpdates(ctx)
	w.flushEvents(ctx)
	w.flushSeries(ctx)

	w.mu.Lock()
	w.metrics.Flushes++
	w.mu.Unlock()
}

// Stats returns a copy of the current metrics.
func (w *Writer) Stats() Metrics {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := Metrics{Inserts: make(map[string]int64, len(w.metrics.Inserts)), Errors: make(map[string]int64, len(w.metrics.Errors)), Flushes: w.metrics.Flushes}
	for k, v := range w.metrics.Inserts {
		out.Inserts[k] = v
	}
	for k, v := range w.metrics.Errors {
		out.Errors[k] = v
	}
	return out
}

// BufferDepths reports the current length of each per-table buffer, for the
// metrics-log line and the buffer-depth gauge.
func (w *Writer) BufferDepths() map[string]int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return map[string]int{
		"orderbook_snapshots":  len(w.snapshots),
		"orderbook_deltas":     len(w.deltas),
		"trades":               len(w.trades),
		"settlements":          len(w.settlements),
		"events":               len(w.events),
		"series":               len(w.series),
		"sequence_gaps":        len(w.gaps),
		"subscription_overflow": len(w.overflow),
		"market_updates":       len(w.marketUpdates),
	}
}

func (w *Writer) recordSuccess(table string, n int) {
	w.mu.Lock()
	w.metrics.Inserts[table] += int64(n)
	w.mu.Unlock()
}

func (w *Writer) recordError(table string, err error) {
	w.logger.Error("batch insert failed, re-prepending", "table", table, "error", err)
	w.mu.Lock()
	w.metrics.Errors[table]++
	w.mu.Unlock()
}
