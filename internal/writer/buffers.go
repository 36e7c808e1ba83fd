package writer

import (
	"context"

	"github.com/rickgao/kalshi-collector/internal/model"
)

// AddSnapshot appends a validated orderbook snapshot, flushing immediately
// if the buffer has reached its configured size.
func (w *Writer) AddSnapshot(s model.OrderbookSnapshot) {
	w.mu.Lock()
	w.snapshots = append(w.snapshots, s)
	full := len(w.snapshots) >= w.cfg.BatchSize
	w.mu.Unlock()
	if full {
		w.flushSnapshots(context.Background())
	}
}

// AddDelta appends a validated orderbook delta.
func (w *Writer) AddDelta(d model.OrderbookDelta) {
	w.mu.Lock()
	w.deltas = append(w.deltas, d)
	full := len(w.deltas) >= w.cfg.BatchSize
	w.mu.Unlock()
	if full {
		w.flushDeltas(context.Background())
	}
}

// AddTrade appends a trade.
func (w *Writer) AddTrade(t model.Trade) {
	w.mu.Lock()
	w.trades = append(w.trades, t)
	full := len(w.trades) >= w.cfg.BatchSize
	w.mu.Unlock()
	if full {
		w.flushTrades(context.Background())
	}
}

// AddGap appends a sequence-gap audit record.
func (w *Writer) AddGap(g model.SequenceGap) {
	w.mu.Lock()
	w.gaps = append(w.gaps, g)
	full := len(w.gaps) >= w.cfg.BatchSize
	w.mu.Unlock()
	if full {
		w.flushGaps(context.Background())
	}
}

// AddOverflow appends a subscription-overflow audit record.
func (w *Writer) AddOverflow(o model.SubscriptionOverflow) {
	w.mu.Lock()
	w.overflow = append(w.overflow, o)
	full := len(w.overflow) >= w.cfg.BatchSize
	w.mu.Unlock()
	if full {
		w.flushOverflow(context.Background())
	}
}

// AddSettlement appends a settlement upsert.
func (w *Writer) AddSettlement(s model.Settlement) {
	w.mu.Lock()
	w.settlements = append(w.settlements, s)
	full := len(w.settlements) >= w.cfg.BatchSize
	w.mu.Unlock()
	if full {
		w.flushSettlements(context.Background())
	}
}

// AddMarketUpdate appends a market-metadata upsert.
func (w *Writer) AddMarketUpdate(m model.Market) {
	w.mu.Lock()
	w.marketUpdates = append(w.marketUpdates, m)
	full := len(w.marketUpdates) >= w.cfg.BatchSize
	w.mu.Unlock()
	if full {
		w.flushMarketUpdates(context.Background())
	}
}

// AddEvent appends an event-metadata upsert.
func (w *Writer) AddEvent(e model.Event) {
	w.mu.Lock()
	w.events = append(w.events, e)
	full := len(w.events) >= w.cfg.BatchSize
	w.mu.Unlock()
	if full {
		w.flushEvents(context.Background())
	}
}

// AddSeries appends a series-metadata upsert.
func (w *Writer) AddSeries(s model.Series) {
	w.mu.Lock()
	w.series = append(w.series, s)
	full := len(w.series) >= w.cfg.BatchSize
	w.mu.Unlock()
	if full {
		w.flushSeries(context.Background())
	}
}
