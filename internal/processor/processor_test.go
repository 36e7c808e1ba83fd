package processor

import (
	"testing"

	"github.com/rickgao/kalshi-collector/internal/model"
)

func TestHandleSnapshot_SetsBaseline(t *testing.T) {
	var gotSnapshots []model.OrderbookSnapshot
	p := New(Callbacks{
		OnSnapshot: func(s model.OrderbookSnapshot) { gotSnapshots = append(gotSnapshots, s) },
	}, nil)

	p.HandleSnapshot("TEST-MARKET", 1001, 100, model.OrderbookSnapshot{Ticker: "TEST-MARKET", Seq: 100})

	if len(gotSnapshots) != 1 {
		t.Fatalf("len(gotSnapshots) = %d, want 1", len(gotSnapshots))
	}
	if p.IsStale("TEST-MARKET") {
		t.Error("IsStale() = true immediately after a snapshot, want false")
	}
}

func TestHandleDelta_AdvancesOnExpectedSeq(t *testing.T) {
	var gotDeltas []model.OrderbookDelta
	p := New(Callbacks{
		OnDelta: func(d model.OrderbookDelta) { gotDeltas = append(gotDeltas, d) },
	}, nil)

	p.HandleSnapshot("TEST-MARKET", 1001, 100, model.OrderbookSnapshot{Ticker: "TEST-MARKET", Seq: 100})
	p.HandleDelta("TEST-MARKET", 1001, 101, model.OrderbookDelta{Ticker: "TEST-MARKET", Seq: 101})

	if len(gotDeltas) != 1 {
		t.Fatalf("len(gotDeltas) = %d, want 1", len(gotDeltas))
	}
	if gotDeltas[0].Seq != 101 {
		t.Errorf("Seq = %d, want 101", gotDeltas[0].Seq)
	}
}

func TestHandleDelta_DiscardsDuplicate(t *testing.T) {
	deltaCount := 0
	p := New(Callbacks{
		OnDelta: func(model.OrderbookDelta) { deltaCount++ },
	}, nil)

	p.HandleSnapshot("TEST-MARKET", 1001, 100, model.OrderbookSnapshot{Ticker: "TEST-MARKET", Seq: 100})
	p.HandleDelta("TEST-MARKET", 1001, 101, model.OrderbookDelta{Ticker: "TEST-MARKET", Seq: 101})
	p.HandleDelta("TEST-MARKET", 1001, 101, model.OrderbookDelta{Ticker: "TEST-MARKET", Seq: 101}) // duplicate
	p.HandleDelta("TEST-MARKET", 1001, 99, model.OrderbookDelta{Ticker: "TEST-MARKET", Seq: 99})   // late

	if deltaCount != 1 {
		t.Errorf("deltaCount = %d, want 1 (duplicates and late deltas must be discarded)", deltaCount)
	}
}

func TestHandleDelta_GapMarksStaleAndResubscribes(t *testing.T) {
	var gaps []model.SequenceGap
	var resubTickers []string
	deltaCount := 0

	p := New(Callbacks{
		OnDelta:     func(model.OrderbookDelta) { deltaCount++ },
		OnGap:       func(g model.SequenceGap) { gaps = append(gaps, g) },
		Resubscribe: func(ticker string) { resubTickers = append(resubTickers, ticker) },
	}, nil)

	p.HandleSnapshot("TEST-MARKET", 1001, 100, model.OrderbookSnapshot{Ticker: "TEST-MARKET", Seq: 100})
	p.HandleDelta("TEST-MARKET", 1001, 105, model.OrderbookDelta{Ticker: "TEST-MARKET", Seq: 105})

	if deltaCount != 0 {
		t.Errorf("deltaCount = %d, want 0 (the gapped delta must be discarded, not emitted)", deltaCount)
	}
	if len(gaps) != 1 {
		t.Fatalf("len(gaps) = %d, want 1", len(gaps))
	}
	if gaps[0].ExpectedSeq != 101 || gaps[0].ReceivedSeq != 105 {
		t.Errorf("gap = %+v, want ExpectedSeq=101 ReceivedSeq=105", gaps[0])
	}
	if len(resubTickers) != 1 || resubTickers[0] != "TEST-MARKET" {
		t.Errorf("resubTickers = %v, want [TEST-MARKET]", resubTickers)
	}
	if !p.IsStale("TEST-MARKET") {
		t.Error("IsStale() = false after a gap, want true")
	}
}

func TestHandleDelta_GapDoesNotAdvanceLastSeq(t *testing.T) {
	deltaCount := 0
	p := New(Callbacks{
		OnDelta: func(model.OrderbookDelta) { deltaCount++ },
	}, nil)

	p.HandleSnapshot("TEST-MARKET", 1001, 100, model.OrderbookSnapshot{Ticker: "TEST-MARKET", Seq: 100})
	p.HandleDelta("TEST-MARKET", 1001, 110, model.OrderbookDelta{Ticker: "TEST-MARKET", Seq: 110}) // gap, discarded
	p.HandleDelta("TEST-MARKET", 1001, 101, model.OrderbookDelta{Ticker: "TEST-MARKET", Seq: 101}) // still the true next seq

	if deltaCount != 1 {
		t.Errorf("deltaCount = %d, want 1 (last_seq must not have advanced past the gap)", deltaCount)
	}
}

func TestHandleDelta_OpportunisticTrackingWithoutSnapshot(t *testing.T) {
	deltaCount := 0
	p := New(Callbacks{
		OnDelta: func(model.OrderbookDelta) { deltaCount++ },
	}, nil)

	p.HandleDelta("NEW-MARKET", 2002, 50, model.OrderbookDelta{Ticker: "NEW-MARKET", Seq: 50})

	if deltaCount != 1 {
		t.Errorf("deltaCount = %d, want 1 (a delta with no prior snapshot should still be accepted)", deltaCount)
	}

	// The next contiguous delta should advance normally from the opportunistic baseline.
	p.HandleDelta("NEW-MARKET", 2002, 51, model.OrderbookDelta{Ticker: "NEW-MARKET", Seq: 51})
	if deltaCount != 2 {
		t.Errorf("deltaCount = %d, want 2", deltaCount)
	}
}

func TestTrackUntrack(t *testing.T) {
	p := New(Callbacks{}, nil)

	p.Track("TEST-MARKET", 1001)
	if p.Stats().TrackedTickers != 1 {
		t.Errorf("TrackedTickers = %d, want 1", p.Stats().TrackedTickers)
	}

	p.Untrack("TEST-MARKET")
	if p.Stats().TrackedTickers != 0 {
		t.Errorf("TrackedTickers = %d, want 0 after Untrack", p.Stats().TrackedTickers)
	}
}

func TestStats_CountsStaleTickers(t *testing.T) {
	p := New(Callbacks{}, nil)

	p.HandleSnapshot("A", 1, 10, model.OrderbookSnapshot{Ticker: "A"})
	p.HandleSnapshot("B", 2, 10, model.OrderbookSnapshot{Ticker: "B"})
	p.HandleDelta("A", 1, 20, model.OrderbookDelta{Ticker: "A", Seq: 20}) // gap for A

	stats := p.Stats()
	if stats.TrackedTickers != 2 {
		t.Errorf("TrackedTickers = %d, want 2", stats.TrackedTickers)
	}
	if stats.StaleTickers != 1 {
		t.Errorf("StaleTickers = %d, want 1", stats.StaleTickers)
	}
}
