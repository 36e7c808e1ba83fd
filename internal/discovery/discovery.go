// Package discovery tracks which tickers are subscribed on the stream,
// enforcing a maximum concurrent subscription count with a FIFO overflow
// queue, driven entirely by lifecycle frames and the exchange's own
// subscribe/unsubscribe acknowledgements.
package discovery

import (
	"log/slog"
	"sync"
	"time"

	"github.com/rickgao/kalshi-collector/internal/model"
	"github.com/rickgao/kalshi-collector/internal/wire"
)

// Callbacks wires Discovery's outputs to the rest of the collector.
type Callbacks struct {
	Subscribe          func(ticker string)
	Unsubscribe        func(ticker string)
	OnOverflow         func(model.SubscriptionOverflow)
	OnMarketUpdate     func(model.Market)
	OnEnrichmentNeeded func(ticker, eventTicker, eventType string)
}

// Discovery holds the active/pending/overflow subscription sets. All
// mutating methods are safe for concurrent use, but in normal operation are
// only ever called from the orchestrator's single frame-dispatch loop.
type Discovery struct {
	logger *slog.Logger
	cb     Callbacks
	max    int

	mu       sync.Mutex
	active   map[string]struct{}
	pending  map[string]struct{}
	overflow []string // FIFO: append at tail, pop from head
}

// New creates a Discovery tracker with the given subscription cap.
func New(maxSubscriptions int, cb Callbacks, logger *slog.Logger) *Discovery {
	if logger == nil {
		logger = slog.Default()
	}
	if maxSubscriptions <= 0 {
		maxSubscriptions = 1000
	}
	return &Discovery{
		logger:  logger.With("component", "discovery"),
		cb:      cb,
		max:     maxSubscriptions,
		active:  make(map[string]struct{}),
		pending: make(map[string]struct{}),
	}
}

// Seed populates the subscription set at startup from a list of tickers
// (the orchestrator passes the side channel's market listing). Seeded
// tickers are placed in pending, not active, and each gets a subscribe
// attempt; a ticker moves to active only when ConfirmSubscription sees the
// exchange's "subscribed" frame. Tickers beyond the cap go to the overflow
// queue without an OnOverflow record.
func (d *Discovery) Seed(tickers []string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, t := range tickers {
		if len(d.active)+len(d.pending) >= d.max {
			d.overflow = append(d.overflow, t)
			continue
		}
		d.pending[t] = struct{}{}
		if d.cb.Subscribe != nil {
			d.cb.Subscribe(t)
		}
	}
}

// HandleLifecycle processes a market_lifecycle(_v2) frame: active-inducing
// events attempt a subscribe (subject to the cap), terminal events
// unsubscribe and backfill from overflow. Every event also upserts market
// metadata.
func (d *Discovery) HandleLifecycle(p wire.LifecyclePayload) {
	market := model.Market{
		Ticker:       p.MarketTicker,
		EventTicker:  p.EventTicker,
		MarketStatus: p.NewStatus,
		Result:       p.Result,
		UpdatedAt:    wire.NormalizeTs(p.Ts),
	}
	if d.cb.OnMarketUpdate != nil {
		d.cb.OnMarketUpdate(market)
	}

	if isActiveInducing(p.EventType) {
		d.handleActiveInducing(p.MarketTicker, p.EventTicker)
	} else if isTerminal(p.EventType) {
		d.handleTerminal(p.MarketTicker)
	}

	if isEnrichmentTrigger(p.EventType) && d.cb.OnEnrichmentNeeded != nil {
		d.cb.OnEnrichmentNeeded(p.MarketTicker, p.EventTicker, p.EventType)
	}
}

func (d *Discovery) handleActiveInducing(ticker, eventTicker string) {
	d.mu.Lock()
	_, isActive := d.active[ticker]
	_, isPending := d.pending[ticker]
	if isActive || isPending {
		d.mu.Unlock()
		return
	}

	if len(d.active)+len(d.pending) >= d.max {
		d.overflow = append(d.overflow, ticker)
		d.mu.Unlock()

		d.logger.Warn("subscription cap reached, deferring to overflow", "ticker", ticker)
		if d.cb.OnOverflow != nil {
			d.cb.OnOverflow(model.SubscriptionOverflow{
				Ticker:      ticker,
				EventTicker: eventTicker,
				Reason:      "max_subscriptions_exceeded",
				DetectedAt:  time.Now().UnixMicro(),
			})
		}
		return
	}

	d.pending[ticker] = struct{}{}
	d.mu.Unlock()

	if d.cb.Subscribe != nil {
		d.cb.Subscribe(ticker)
	}
}

func (d *Discovery) handleTerminal(ticker string) {
	d.mu.Lock()
	_, wasActive := d.active[ticker]
	_, wasPending := d.pending[ticker]
	delete(d.active, ticker)
	delete(d.pending, ticker)
	var backfill string
	hasBackfill := false
	if (wasActive || wasPending) && len(d.overflow) > 0 {
		backfill, d.overflow = d.overflow[0], d.overflow[1:]
		d.pending[backfill] = struct{}{}
		hasBackfill = true
	}
	d.mu.Unlock()

	if wasActive || wasPending {
		if d.cb.Unsubscribe != nil {
			d.cb.Unsubscribe(ticker)
		}
	}
	if hasBackfill && d.cb.Subscribe != nil {
		d.cb.Subscribe(backfill)
	}
}

// ConfirmSubscription moves a ticker from pending to active on receipt of
// the exchange's "subscribed" acknowledgement.
func (d *Discovery) ConfirmSubscription(ticker string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.pending, ticker)
	d.active[ticker] = struct{}{}
}

// ConfirmUnsubscription removes a ticker from both sets on receipt of the
// exchange's "unsubscribed" acknowledgement.
func (d *Discovery) ConfirmUnsubscription(ticker string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.active, ticker)
	delete(d.pending, ticker)
}

// ResubscribeList returns active ∪ pending: every ticker that needs a fresh
// subscribe command after a reconnect.
func (d *Discovery) ResubscribeList() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, 0, len(d.active)+len(d.pending))
	for t := range d.active {
		out = append(out, t)
	}
	for t := range d.pending {
		out = append(out, t)
	}
	return out
}

// Stats reports set sizes for the metrics-log line.
type Stats struct {
	Active   int
	Pending  int
	Overflow int
}

// Stats computes the current Stats snapshot.
func (d *Discovery) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Stats{Active: len(d.active), Pending: len(d.pending), Overflow: len(d.overflow)}
}

func isActiveInducing(eventType string) bool {
	switch eventType {
	case wire.LifecycleCreate, wire.LifecycleActivate:
		return true
	}
	return false
}

func isTerminal(eventType string) bool {
	switch eventType {
	case wire.LifecycleDeactivate, wire.LifecycleDetermined, wire.LifecycleSettled:
		return true
	}
	return false
}

func isEnrichmentTrigger(eventType string) bool {
	return eventType == wire.LifecycleDetermined || eventType == wire.LifecycleSettled
}
