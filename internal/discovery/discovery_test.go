package discovery

import (
	"testing"

	"github.com/rickgao/kalshi-collector/internal/model"
	"github.com/rickgao/kalshi-collector/internal/wire"
)

func TestHandleLifecycle_ActivateSubscribes(t *testing.T) {
	var subscribed []string
	d := New(10, Callbacks{
		Subscribe: func(ticker string) { subscribed = append(subscribed, ticker) },
	}, nil)

	d.HandleLifecycle(wire.LifecyclePayload{MarketTicker: "MKT-A", EventType: wire.LifecycleActivate})

	if len(subscribed) != 1 || subscribed[0] != "MKT-A" {
		t.Fatalf("subscribed = %v, want [MKT-A]", subscribed)
	}
	if d.Stats().Pending != 1 {
		t.Errorf("Pending = %d, want 1", d.Stats().Pending)
	}
}

func TestHandleLifecycle_DeterminedUnsubscribes(t *testing.T) {
	var unsubscribed []string
	d := New(10, Callbacks{
		Subscribe:   func(string) {},
		Unsubscribe: func(ticker string) { unsubscribed = append(unsubscribed, ticker) },
	}, nil)

	d.HandleLifecycle(wire.LifecyclePayload{MarketTicker: "MKT-A", EventType: wire.LifecycleActivate})
	d.ConfirmSubscription("MKT-A")
	d.HandleLifecycle(wire.LifecyclePayload{MarketTicker: "MKT-A", EventType: wire.LifecycleDetermined})

	if len(unsubscribed) != 1 || unsubscribed[0] != "MKT-A" {
		t.Fatalf("unsubscribed = %v, want [MKT-A]", unsubscribed)
	}
	if d.Stats().Active != 0 {
		t.Errorf("Active = %d, want 0", d.Stats().Active)
	}
}

func TestHandleLifecycle_DeterminedTriggersEnrichment(t *testing.T) {
	var enriched []string
	d := New(10, Callbacks{
		OnEnrichmentNeeded: func(ticker, eventTicker, eventType string) {
			enriched = append(enriched, ticker+":"+eventType)
		},
	}, nil)

	d.HandleLifecycle(wire.LifecyclePayload{MarketTicker: "MKT-A", EventTicker: "EVT-A", EventType: wire.LifecycleDetermined})
	d.HandleLifecycle(wire.LifecyclePayload{MarketTicker: "MKT-A", EventTicker: "EVT-A", EventType: wire.LifecycleSettled})
	d.HandleLifecycle(wire.LifecyclePayload{MarketTicker: "MKT-A", EventTicker: "EVT-A", EventType: wire.LifecycleCreate})

	if len(enriched) != 2 {
		t.Fatalf("enriched = %v, want 2 entries", enriched)
	}
}

func TestHandleLifecycle_OverflowWhenAtCap(t *testing.T) {
	var overflowed []string
	var subscribed []string
	d := New(1, Callbacks{
		Subscribe: func(ticker string) { subscribed = append(subscribed, ticker) },
		OnOverflow: func(o model.SubscriptionOverflow) {
			overflowed = append(overflowed, o.Ticker)
		},
	}, nil)

	d.HandleLifecycle(wire.LifecyclePayload{MarketTicker: "MKT-A", EventType: wire.LifecycleActivate})
	d.HandleLifecycle(wire.LifecyclePayload{MarketTicker: "MKT-B", EventType: wire.LifecycleActivate})

	if len(subscribed) != 1 || subscribed[0] != "MKT-A" {
		t.Fatalf("subscribed = %v, want [MKT-A]", subscribed)
	}
	if len(overflowed) != 1 || overflowed[0] != "MKT-B" {
		t.Fatalf("overflowed = %v, want [MKT-B]", overflowed)
	}
	if d.Stats().Overflow != 1 {
		t.Errorf("Overflow = %d, want 1", d.Stats().Overflow)
	}
}

func TestHandleLifecycle_TerminalBackfillsFromOverflow(t *testing.T) {
	var subscribed []string
	d := New(1, Callbacks{
		Subscribe:   func(ticker string) { subscribed = append(subscribed, ticker) },
		Unsubscribe: func(string) {},
	}, nil)

	d.HandleLifecycle(wire.LifecyclePayload{MarketTicker: "MKT-A", EventType: wire.LifecycleActivate})
	d.HandleLifecycle(wire.LifecyclePayload{MarketTicker: "MKT-B", EventType: wire.LifecycleActivate}) // overflow
	d.ConfirmSubscription("MKT-A")

	d.HandleLifecycle(wire.LifecyclePayload{MarketTicker: "MKT-A", EventType: wire.LifecycleDetermined})

	if len(subscribed) != 2 || subscribed[1] != "MKT-B" {
		t.Fatalf("subscribed = %v, want second entry MKT-B", subscribed)
	}
	if d.Stats().Overflow != 0 {
		t.Errorf("Overflow = %d, want 0 after backfill", d.Stats().Overflow)
	}
	if d.Stats().Pending != 1 {
		t.Errorf("Pending = %d, want 1 (MKT-B now pending)", d.Stats().Pending)
	}
}

func TestConfirmSubscription_MovesPendingToActive(t *testing.T) {
	d := New(10, Callbacks{Subscribe: func(string) {}}, nil)
	d.HandleLifecycle(wire.LifecyclePayload{MarketTicker: "MKT-A", EventType: wire.LifecycleActivate})

	d.ConfirmSubscription("MKT-A")

	stats := d.Stats()
	if stats.Pending != 0 || stats.Active != 1 {
		t.Errorf("stats = %+v, want Pending=0 Active=1", stats)
	}
}

func TestConfirmUnsubscription_ClearsBothSets(t *testing.T) {
	d := New(10, Callbacks{Subscribe: func(string) {}}, nil)
	d.HandleLifecycle(wire.LifecyclePayload{MarketTicker: "MKT-A", EventType: wire.LifecycleActivate})
	d.ConfirmSubscription("MKT-A")

	d.ConfirmUnsubscription("MKT-A")

	stats := d.Stats()
	if stats.Active != 0 || stats.Pending != 0 {
		t.Errorf("stats = %+v, want all zero", stats)
	}
}

func TestResubscribeList_ReturnsActiveAndPending(t *testing.T) {
	d := New(10, Callbacks{Subscribe: func(string) {}}, nil)
	d.HandleLifecycle(wire.LifecyclePayload{MarketTicker: "MKT-A", EventType: wire.LifecycleActivate})
	d.HandleLifecycle(wire.LifecyclePayload{MarketTicker: "MKT-B", EventType: wire.LifecycleActivate})
	d.ConfirmSubscription("MKT-A")

	list := d.ResubscribeList()
	if len(list) != 2 {
		t.Fatalf("len(ResubscribeList()) = %d, want 2", len(list))
	}
}

func TestSeed_RespectsCapAndOverflows(t *testing.T) {
	var subscribed []string
	d := New(2, Callbacks{Subscribe: func(ticker string) { subscribed = append(subscribed, ticker) }}, nil)

	d.Seed([]string{"MKT-A", "MKT-B", "MKT-C"})

	if len(subscribed) != 2 {
		t.Fatalf("subscribed = %v, want 2 entries", subscribed)
	}
	if d.Stats().Overflow != 1 {
		t.Errorf("Overflow = %d, want 1", d.Stats().Overflow)
	}
}

func TestHandleLifecycle_DuplicateActivateIsNoop(t *testing.T) {
	subscribeCount := 0
	d := New(10, Callbacks{Subscribe: func(string) { subscribeCount++ }}, nil)

	d.HandleLifecycle(wire.LifecyclePayload{MarketTicker: "MKT-A", EventType: wire.LifecycleActivate})
	d.HandleLifecycle(wire.LifecyclePayload{MarketTicker: "MKT-A", EventType: wire.LifecycleActivate})

	if subscribeCount != 1 {
		t.Errorf("subscribeCount = %d, want 1 (duplicate activate must not re-subscribe)", subscribeCount)
	}
}
