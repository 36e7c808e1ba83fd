package metrics

import (
	"log/slog"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Snapshot is a point-in-time summary of every component's counters, taken
// once a minute and rendered into a single structured log line.
type Snapshot struct {
	SubscriptionsActive   int
	SubscriptionsPending  int
	SubscriptionsOverflow int

	WriterInserts      map[string]int64
	WriterErrors       map[string]int64
	WriterFlushes      int64
	WriterBufferDepths map[string]int

	EnrichmentTasksInFlight int
}

var printer = message.NewPrinter(language.English)

// Log renders the snapshot as a single structured log line, with insert
// counts formatted with thousands separators for quick human scanning.
func (s Snapshot) Log(logger *slog.Logger) {
	var totalInserts, totalErrors int64
	for _, n := range s.WriterInserts {
		totalInserts += n
	}
	for _, n := range s.WriterErrors {
		totalErrors += n
	}

	logger.Info("metrics summary",
		"subscriptions_active", s.SubscriptionsActive,
		"subscriptions_pending", s.SubscriptionsPending,
		"subscriptions_overflow", s.SubscriptionsOverflow,
		"writer_flushes", s.WriterFlushes,
		"writer_inserts_total", printer.Sprintf("%d", totalInserts),
		"writer_errors_total", printer.Sprintf("%d", totalErrors),
		"enrichment_tasks_in_flight", s.EnrichmentTasksInFlight,
	)
}

// Apply sets a Registry's point-in-time gauges from the snapshot. Inserts,
// errors, and flushes are cumulative counters incremented by the owning
// component as they occur, not re-derived here.
func (s Snapshot) Apply(r *Registry) {
	r.SubscriptionsActive.Set(float64(s.SubscriptionsActive))
	r.SubscriptionsPending.Set(float64(s.SubscriptionsPending))
	r.SubscriptionsOverflow.Set(float64(s.SubscriptionsOverflow))
	r.EnrichmentTasksInFlight.Set(float64(s.EnrichmentTasksInFlight))
	for table, depth := range s.WriterBufferDepths {
		r.WriterBufferDepth.WithLabelValues(table).Set(float64(depth))
	}
}
