package metrics

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestSnapshot_LogEmitsStructuredLine(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	s := Snapshot{
		SubscriptionsActive:     3,
		SubscriptionsPending:    1,
		SubscriptionsOverflow:   0,
		WriterInserts:           map[string]int64{"trades": 1000, "orderbook_deltas": 2000},
		WriterErrors:            map[string]int64{"trades": 1},
		WriterFlushes:           5,
		EnrichmentTasksInFlight: 2,
	}
	s.Log(logger)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not valid JSON: %v", err)
	}
	if entry["subscriptions_active"].(float64) != 3 {
		t.Errorf("subscriptions_active = %v, want 3", entry["subscriptions_active"])
	}
	if entry["writer_inserts_total"] != "3,000" {
		t.Errorf("writer_inserts_total = %v, want %q", entry["writer_inserts_total"], "3,000")
	}
	if entry["enrichment_tasks_in_flight"].(float64) != 2 {
		t.Errorf("enrichment_tasks_in_flight = %v, want 2", entry["enrichment_tasks_in_flight"])
	}
}

func TestSnapshot_ApplySetsGauges(t *testing.T) {
	reg, _ := NewRegistry()
	s := Snapshot{SubscriptionsActive: 7, SubscriptionsPending: 2, SubscriptionsOverflow: 1, EnrichmentTasksInFlight: 4}
	s.Apply(reg)

	if got := testutil.ToFloat64(reg.SubscriptionsActive); got != 7 {
		t.Errorf("SubscriptionsActive = %v, want 7", got)
	}
	if got := testutil.ToFloat64(reg.EnrichmentTasksInFlight); got != 4 {
		t.Errorf("EnrichmentTasksInFlight = %v, want 4", got)
	}
}
