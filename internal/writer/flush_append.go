package writer

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/rickgao/kalshi-collector/internal/model"
	"github.com/rickgao/kalshi-collector/internal/store"
)

// ensurePartitions creates the daily partition covering every distinct
// date(ExchangeTS) present in a batch before it is inserted, so a row whose
// day falls outside the hourly precreate horizon (a backfill, a clock skew,
// a restart gap) still lands instead of erroring forever on re-prepend.
func (w *Writer) ensurePartitions(ctx context.Context, tsMicros []int64) error {
	seen := make(map[int64]struct{})
	for _, us := range tsMicros {
		day := time.UnixMicro(us).UTC().Truncate(24 * time.Hour)
		key := day.UnixMicro()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		if err := store.EnsureDailyPartition(ctx, w.db, day); err != nil {
			return fmt.Errorf("ensure partition for %s: %w", day.Format("2006-01-02"), err)
		}
	}
	return nil
}

// Append-only tables: snapshots, deltas, trades, gaps, overflow. A batch
// that fails to insert is re-prepended to the live buffer so nothing added
// during the flush window is lost and ordering is preserved.

func (w *Writer) flushSnapshots(ctx context.Context) {
	w.mu.Lock()
	if len(w.snapshots) == 0 {
		w.mu.Unlock()
		return
	}
	batch := w.snapshots
	w.snapshots = nil
	w.mu.Unlock()

	if err := w.insertSnapshots(ctx, batch); err != nil {
		w.recordError("orderbook_snapshots", err)
		w.mu.Lock()
		w.snapshots = append(batch, w.snapshots...)
		w.mu.Unlock()
		return
	}
	w.recordSuccess("orderbook_snapshots", len(batch))
}

func (w *Writer) insertSnapshots(ctx context.Context, rows []model.OrderbookSnapshot) error {
	b := &pgx.Batch{}
	for _, r := range rows {
		b.Queue(`
			INSERT INTO orderbook_snapshots
				(snapshot_ts, exchange_ts, ticker, seq, source, yes_bids, yes_asks, no_bids, no_asks, best_yes_bid, best_yes_ask, spread)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			ON CONFLICT (ticker, snapshot_ts, source) DO NOTHING
		`, r.SnapshotTS, r.ExchangeTS, r.Ticker, r.Seq, r.Source,
			priceLevelsToJSONB(r.YesBids), priceLevelsToJSONB(r.YesAsks),
			priceLevelsToJSONB(r.NoBids), priceLevelsToJSONB(r.NoAsks),
			r.BestYesBid, r.BestYesAsk, r.Spread)
	}
	return execBatch(ctx, w.db, b, len(rows))
}

func (w *Writer) flushDeltas(ctx context.Context) {
	w.mu.Lock()
	if len(w.deltas) == 0 {
		w.mu.Unlock()
		return
	}
	batch := w.deltas
	w.deltas = nil
	w.mu.Unlock()

	if err := w.insertDeltas(ctx, batch); err != nil {
		w.recordError("orderbook_deltas", err)
		w.mu.Lock()
		w.deltas = append(batch, w.deltas...)
		w.mu.Unlock()
		return
	}
	w.recordSuccess("orderbook_deltas", len(batch))
}

func (w *Writer) insertDeltas(ctx context.Context, rows []model.OrderbookDelta) error {
	ts := make([]int64, len(rows))
	for i, r := range rows {
		ts[i] = r.ExchangeTS
	}
	if err := w.ensurePartitions(ctx, ts); err != nil {
		return err
	}

	b := &pgx.Batch{}
	for _, r := range rows {
		b.Queue(`
			INSERT INTO orderbook_deltas (exchange_ts, received_at, ticker, side, price, size_delta, seq, sid)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (ticker, exchange_ts, price, side) DO NOTHING
		`, r.ExchangeTS, r.ReceivedAt, r.Ticker, r.Side, r.Price, r.SizeDelta, r.Seq, r.SID)
	}
	return execBatch(ctx, w.db, b, len(rows))
}

func (w *Writer) flushTrades(ctx context.Context) {
	w.mu.Lock()
	if len(w.trades) == 0 {
		w.mu.Unlock()
		return
	}
	batch := w.trades
	w.trades = nil
	w.mu.Unlock()

	if err := w.insertTrades(ctx, batch); err != nil {
		w.recordError("trades", err)
		w.mu.Lock()
		w.trades = append(batch, w.trades...)
		w.mu.Unlock()
		return
	}
	w.recordSuccess("trades", len(batch))
}

func (w *Writer) insertTrades(ctx context.Context, rows []model.Trade) error {
	ts := make([]int64, len(rows))
	for i, r := range rows {
		ts[i] = r.ExchangeTS
	}
	if err := w.ensurePartitions(ctx, ts); err != nil {
		return err
	}

	b := &pgx.Batch{}
	for _, r := range rows {
		b.Queue(`
			INSERT INTO trades (trade_id, exchange_ts, received_at, ticker, price, no_price, size, taker_side)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (trade_id) DO NOTHING
		`, r.TradeID.String(), r.ExchangeTS, r.ReceivedAt, r.Ticker, r.Price, r.NoPrice, r.Size, r.TakerSide)
	}
	return execBatch(ctx, w.db, b, len(rows))
}

func (w *Writer) flushGaps(ctx context.Context) {
	w.mu.Lock()
	if len(w.gaps) == 0 {
		w.mu.Unlock()
		return
	}
	batch := w.gaps
	w.gaps = nil
	w.mu.Unlock()

	if err := w.insertGaps(ctx, batch); err != nil {
		w.recordError("sequence_gaps", err)
		w.mu.Lock()
		w.gaps = append(batch, w.gaps...)
		w.mu.Unlock()
		return
	}
	w.recordSuccess("sequence_gaps", len(batch))
}

func (w *Writer) insertGaps(ctx context.Context, rows []model.SequenceGap) error {
	b := &pgx.Batch{}
	for _, r := range rows {
		b.Queue(`
			INSERT INTO sequence_gaps (ticker, detected_at, expected_seq, received_seq, sid)
			VALUES ($1, $2, $3, $4, $5)
		`, r.Ticker, r.DetectedAt, r.ExpectedSeq, r.ReceivedSeq, r.SID)
	}
	return execBatch(ctx, w.db, b, len(rows))
}

func (w *Writer) flushOverflow(ctx context.Context) {
	w.mu.Lock()
	if len(w.overflow) == 0 {
		w.mu.Unlock()
		return
	}
	batch := w.overflow
	w.overflow = nil
	w.mu.Unlock()

	if err := w.insertOverflow(ctx, batch); err != nil {
		w.recordError("subscription_overflow", err)
		w.mu.Lock()
		w.overflow = append(batch, w.overflow...)
		w.mu.Unlock()
		return
	}
	w.recordSuccess("subscription_overflow", len(batch))
}

func (w *Writer) insertOverflow(ctx context.Context, rows []model.SubscriptionOverflow) error {
	b := &pgx.Batch{}
	for _, r := range rows {
		b.Queue(`
			INSERT INTO subscription_overflow (ticker, event_ticker, reason, detected_at)
			VALUES ($1, $2, $3, $4)
		`, r.Ticker, r.EventTicker, r.Reason, r.DetectedAt)
	}
	return execBatch(ctx, w.db, b, len(rows))
}

// execBatch sends a pgx.Batch and surfaces the first row-level error, if any.
func execBatch(ctx context.Context, db DB, b *pgx.Batch, n int) error {
	results := db.SendBatch(ctx, b)
	defer results.Close()

	for i := 0; i < n; i++ {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}
	return nil
}
