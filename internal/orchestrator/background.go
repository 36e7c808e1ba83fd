package orchestrator

import (
	"context"
	"time"

	"github.com/rickgao/kalshi-collector/internal/metrics"
	"github.com/rickgao/kalshi-collector/internal/store"
)

// metricsLoop summarizes every component's counters once a minute into a
// structured log line and the Prometheus registry's gauges, and mirrors the
// Writer's cumulative insert/error/flush counters into the registry's
// counters as deltas since the previous tick (Counters can only move
// forward; Writer.Stats() returns running totals, not per-tick deltas).
func (o *Orchestrator) metricsLoop(ctx context.Context) {
	ticker := time.NewTicker(metricsLogInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.emitMetrics()
		}
	}
}

func (o *Orchestrator) emitMetrics() {
	dstats := o.discovery.Stats()
	wstats := o.writer.Stats()
	estats := o.enricher.ActiveTasks()

	snap := metrics.Snapshot{
		SubscriptionsActive:     dstats.Active,
		SubscriptionsPending:    dstats.Pending,
		SubscriptionsOverflow:   dstats.Overflow,
		WriterInserts:           wstats.Inserts,
		WriterErrors:            wstats.Errors,
		WriterFlushes:           wstats.Flushes,
		WriterBufferDepths:      o.writer.BufferDepths(),
		EnrichmentTasksInFlight: estats,
	}
	snap.Log(o.logger)
	snap.Apply(o.metricsReg)

	o.prevMu.Lock()
	for table, n := range wstats.Inserts {
		if delta := n - o.prevInserts[table]; delta > 0 {
			o.metricsReg.WriterInsertsTotal.WithLabelValues(table).Add(float64(delta))
		}
		o.prevInserts[table] = n
	}
	for table, n := range wstats.Errors {
		if delta := n - o.prevErrors[table]; delta > 0 {
			o.metricsReg.WriterErrorsTotal.WithLabelValues(table).Add(float64(delta))
		}
		o.prevErrors[table] = n
	}
	if delta := wstats.Flushes - o.prevFlushes; delta > 0 {
		o.metricsReg.WriterFlushesTotal.Add(float64(delta))
	}
	o.prevFlushes = wstats.Flushes
	o.prevMu.Unlock()

	if gaps := o.gapsTotal.Swap(0); gaps > 0 {
		o.metricsReg.SequenceGapsTotal.Add(float64(gaps))
	}
	if reconnects := o.reconnectsTotal.Swap(0); reconnects > 0 {
		o.metricsReg.StreamReconnectsTotal.Add(float64(reconnects))
	}
}

// partitionLoop keeps the time-series tables' daily partitions precreated
// a fixed horizon ahead of today, so an insert never races a missing
// partition at midnight UTC.
func (o *Orchestrator) partitionLoop(ctx context.Context) {
	if err := store.PrecreateUpcoming(ctx, o.pool, partitionHorizonDays); err != nil {
		o.logger.Error("initial partition precreate failed", "error", err)
	}

	ticker := time.NewTicker(partitionPrecreateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := store.PrecreateUpcoming(ctx, o.pool, partitionHorizonDays); err != nil {
				o.logger.Error("partition precreate failed", "error", err)
			}
		}
	}
}
