package enricher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rickgao/kalshi-collector/internal/model"
	"github.com/rickgao/kalshi-collector/internal/sidechannel"
	"github.com/rickgao/kalshi-collector/internal/wire"
)

type fakeSideChannel struct {
	mu sync.Mutex

	marketCalls int
	markets     []*sidechannel.Market // returned in order across successive calls
	marketErr   error

	event    *sidechannel.Event
	eventErr error

	series    *sidechannel.Series
	seriesErr error
}

func (f *fakeSideChannel) GetMarket(ctx context.Context, ticker string) (*sidechannel.Market, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.marketErr != nil {
		return nil, f.marketErr
	}
	idx := f.marketCalls
	if idx >= len(f.markets) {
		idx = len(f.markets) - 1
	}
	f.marketCalls++
	return f.markets[idx], nil
}

func (f *fakeSideChannel) GetEvent(ctx context.Context, eventTicker string) (*sidechannel.Event, error) {
	if f.eventErr != nil {
		return nil, f.eventErr
	}
	return f.event, nil
}

func (f *fakeSideChannel) GetSeries(ctx context.Context, seriesTicker string) (*sidechannel.Series, error) {
	if f.seriesErr != nil {
		return nil, f.seriesErr
	}
	return f.series, nil
}

func waitForIdle(t *testing.T, e *Enricher) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if e.ActiveTasks() == 0 {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("enrichment task did not finish in time")
}

func TestEnrich_DeterminedResultFilledOnFirstCall(t *testing.T) {
	val := 100
	fake := &fakeSideChannel{
		markets: []*sidechannel.Market{
			{Ticker: "MKT-A", EventTicker: "EVT-A", Result: "yes", SettlementValue: &val},
		},
		event:  &sidechannel.Event{EventTicker: "EVT-A", SeriesTicker: "SER-A"},
		series: &sidechannel.Series{Ticker: "SER-A", Category: "Politics"},
	}

	var gotSettlement model.Settlement
	var gotEvent model.Event
	var gotSeries model.Series
	e := New(fake, Callbacks{
		OnSettlement: func(s model.Settlement) { gotSettlement = s },
		OnEvent:      func(ev model.Event) { gotEvent = ev },
		OnSeries:     func(s model.Series) { gotSeries = s },
	}, nil)

	e.Enrich(context.Background(), "MKT-A", "", wire.LifecycleDetermined)
	waitForIdle(t, e)

	if gotSettlement.Ticker != "MKT-A" || gotSettlement.Result != "yes" {
		t.Errorf("settlement = %+v", gotSettlement)
	}
	if gotSettlement.SettlementValue != 100_000 {
		t.Errorf("SettlementValue = %d, want 100000", gotSettlement.SettlementValue)
	}
	if gotEvent.EventTicker != "EVT-A" {
		t.Errorf("event = %+v", gotEvent)
	}
	if gotSeries.Ticker != "SER-A" {
		t.Errorf("series = %+v", gotSeries)
	}
}

func TestEnrich_NullResultRetriesOnce(t *testing.T) {
	fake := &fakeSideChannel{
		markets: []*sidechannel.Market{
			{Ticker: "MKT-A", EventTicker: "EVT-A", Result: ""},
			{Ticker: "MKT-A", EventTicker: "EVT-A", Result: "no"},
		},
		eventErr: errors.New("no event lookup expected in this test"),
	}

	var gotSettlement model.Settlement
	e := New(fake, Callbacks{
		OnSettlement: func(s model.Settlement) { gotSettlement = s },
	}, nil)
	e.retryDelay = time.Millisecond

	e.Enrich(context.Background(), "MKT-A", "EVT-A", wire.LifecycleSettled)
	waitForIdle(t, e)

	if fake.marketCalls != 2 {
		t.Fatalf("marketCalls = %d, want 2 (one retry after null result)", fake.marketCalls)
	}
	if gotSettlement.Result != "no" {
		t.Errorf("settlement = %+v, want Result=no", gotSettlement)
	}
}

func TestEnrich_NonTerminalEventSkipsMarketLookup(t *testing.T) {
	fake := &fakeSideChannel{
		event: &sidechannel.Event{EventTicker: "EVT-A"},
	}

	e := New(fake, Callbacks{}, nil)
	e.Enrich(context.Background(), "MKT-A", "EVT-A", wire.LifecycleCreate)
	waitForIdle(t, e)

	if fake.marketCalls != 0 {
		t.Errorf("marketCalls = %d, want 0 for a non-terminal event type", fake.marketCalls)
	}
}

func TestEnrich_ErrorIsSwallowed(t *testing.T) {
	fake := &fakeSideChannel{marketErr: errors.New("boom")}
	e := New(fake, Callbacks{}, nil)

	e.Enrich(context.Background(), "MKT-A", "", wire.LifecycleDetermined)
	waitForIdle(t, e)
	// No panic, no hang: the task set drained despite the error.
}

func TestActiveTasks_TracksInFlightEnrichment(t *testing.T) {
	release := make(chan struct{})
	fake := &blockingSideChannel{release: release}
	e := New(fake, Callbacks{}, nil)

	e.Enrich(context.Background(), "MKT-A", "", wire.LifecycleDetermined)

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) && e.ActiveTasks() == 0 {
		time.Sleep(time.Millisecond)
	}
	if e.ActiveTasks() != 1 {
		t.Fatalf("ActiveTasks() = %d, want 1 while the task is in flight", e.ActiveTasks())
	}

	close(release)
	waitForIdle(t, e)
}

type blockingSideChannel struct {
	release chan struct{}
}

func (b *blockingSideChannel) GetMarket(ctx context.Context, ticker string) (*sidechannel.Market, error) {
	<-b.release
	return nil, errors.New("stop here")
}

func (b *blockingSideChannel) GetEvent(ctx context.Context, eventTicker string) (*sidechannel.Event, error) {
	return nil, errors.New("not reached")
}

func (b *blockingSideChannel) GetSeries(ctx context.Context, seriesTicker string) (*sidechannel.Series, error) {
	return nil, errors.New("not reached")
}

func TestShutdown_WaitsForOutstandingTasks(t *testing.T) {
	fake := &fakeSideChannel{markets: []*sidechannel.Market{{Ticker: "MKT-A"}}}
	e := New(fake, Callbacks{}, nil)

	e.Enrich(context.Background(), "MKT-A", "", wire.LifecycleCreate)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
}
