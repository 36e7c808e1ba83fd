// Package processor validates per-ticker orderbook sequence continuity and
// classifies each inbound delta as a duplicate, an advance, or a gap.
package processor

import (
	"log/slog"
	"sync"
	"time"

	"github.com/rickgao/kalshi-collector/internal/model"
)

// subscriptionState tracks the validated sequence position for one ticker.
type subscriptionState struct {
	sid          int64
	lastSeq      int64
	isStale      bool
	subscribedAt time.Time
}

// Callbacks wires the Processor's outputs: validated records reach Writer,
// gap records reach Writer's audit buffer, and resubscribe requests reach
// the Orchestrator's stream client.
type Callbacks struct {
	OnSnapshot  func(model.OrderbookSnapshot)
	OnDelta     func(model.OrderbookDelta)
	OnTrade     func(model.Trade)
	OnGap       func(model.SequenceGap)
	Resubscribe func(ticker string)
}

// Processor holds per-ticker subscription state. A single mutex guards the
// state map in every method that touches it (Track, Untrack, HandleSnapshot,
// HandleDelta, IsStale, Stats); callbacks are invoked after the mutex is
// released.
type Processor struct {
	logger *slog.Logger
	cb     Callbacks

	mu   sync.Mutex
	subs map[string]*subscriptionState
}

// New creates a Processor. All Callbacks fields should be set before the
// orchestrator starts dispatching frames.
func New(cb Callbacks, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		logger: logger.With("component", "processor"),
		cb:     cb,
		subs:   make(map[string]*subscriptionState),
	}
}

// Track records a confirmed subscription (sid) for a ticker without
// resetting sequence state already established by an arriving snapshot.
// Called by the orchestrator on receipt of a "subscribed" frame.
func (p *Processor) Track(ticker string, sid int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	st, ok := p.subs[ticker]
	if !ok {
		p.subs[ticker] = &subscriptionState{sid: sid, subscribedAt: time.Now()}
		return
	}
	st.sid = sid
}

// Untrack removes all state for a ticker. Called on receipt of an
// "unsubscribed" frame.
func (p *Processor) Untrack(ticker string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.subs, ticker)
}

// HandleSnapshot upserts state for (ticker, sid, seq), clears staleness, and
// emits the snapshot to the Writer.
func (p *Processor) HandleSnapshot(ticker string, sid, seq int64, snap model.OrderbookSnapshot) {
	p.mu.Lock()
	st, ok := p.subs[ticker]
	if !ok {
		st = &subscriptionState{}
		p.subs[ticker] = st
	}
	st.sid = sid
	st.lastSeq = seq
	st.isStale = false
	st.subscribedAt = time.Now()
	p.mu.Unlock()

	if p.cb.OnSnapshot != nil {
		p.cb.OnSnapshot(snap)
	}
}

// HandleDelta classifies an inbound delta against the ticker's last
// validated sequence number and emits it, discards it, or raises a gap.
// A delta arriving with no prior snapshot is tracked opportunistically:
// accepted without validation, logged, and used as the new baseline.
func (p *Processor) HandleDelta(ticker string, sid, seq int64, delta model.OrderbookDelta) {
	p.mu.Lock()
	st, ok := p.subs[ticker]
	if !ok {
		st = &subscriptionState{sid: sid, lastSeq: seq, subscribedAt: time.Now()}
		p.subs[ticker] = st
		p.mu.Unlock()

		p.logger.Info("delta received with no prior snapshot, tracking opportunistically",
			"ticker", ticker, "sid", sid, "seq", seq)
		if p.cb.OnDelta != nil {
			p.cb.OnDelta(delta)
		}
		return
	}

	expected := st.lastSeq + 1
	switch {
	case seq < expected:
		// Duplicate or late delta. Discard silently.
		p.mu.Unlock()
		return

	case seq == expected:
		st.lastSeq = seq
		p.mu.Unlock()
		if p.cb.OnDelta != nil {
			p.cb.OnDelta(delta)
		}
		return

	default: // seq > expected: gap
		st.isStale = true
		gapSID := st.sid
		p.mu.Unlock()

		p.logger.Warn("sequence gap detected",
			"ticker", ticker, "sid", gapSID, "expected", expected, "received", seq)

		if p.cb.OnGap != nil {
			p.cb.OnGap(model.SequenceGap{
				Ticker:      ticker,
				DetectedAt:  time.Now().UnixMicro(),
				ExpectedSeq: expected,
				ReceivedSeq: seq,
				SID:         gapSID,
			})
		}
		if p.cb.Resubscribe != nil {
			p.cb.Resubscribe(ticker)
		}
		// Discard this delta; do not advance lastSeq.
	}
}

// HandleTrade emits a trade directly to the Writer; trades carry no
// per-ticker sequence state to validate.
func (p *Processor) HandleTrade(trade model.Trade) {
	if p.cb.OnTrade != nil {
		p.cb.OnTrade(trade)
	}
}

// IsStale reports whether a ticker's subscription is currently marked stale
// (a gap was detected and no fresh snapshot has arrived yet).
func (p *Processor) IsStale(ticker string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	st, ok := p.subs[ticker]
	return ok && st.isStale
}

// Stats returns a snapshot of processor-wide counts for the metrics-log
// line.
type Stats struct {
	TrackedTickers int
	StaleTickers   int
}

// Stats computes the current Stats snapshot.
func (p *Processor) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := Stats{TrackedTickers: len(p.subs)}
	for _, st := range p.subs {
		if st.isStale {
			s.StaleTickers++
		}
	}
	return s
}
