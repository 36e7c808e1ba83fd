package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// PartitionedTables lists the time-series tables declared as daily-range
// partitioned (PARTITION BY RANGE) over their timestamp column.
var PartitionedTables = []string{"orderbook_deltas", "orderbook_snapshots", "trades"}

// Execer is the subset of *pgxpool.Pool partition maintenance needs.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// EnsureDailyPartition creates the UTC-day partition covering day for every
// table in PartitionedTables, if it does not already exist. Idempotent:
// CREATE TABLE IF NOT EXISTS means a second call for the same day is a
// no-op.
func EnsureDailyPartition(ctx context.Context, pool Execer, day time.Time) error {
	day = day.UTC().Truncate(24 * time.Hour)
	next := day.Add(24 * time.Hour)

	for _, table := range PartitionedTables {
		partition := fmt.Sprintf("%s_%s", table, day.Format("20060102"))
		// exchange_ts is a BIGINT microsecond timestamp, not a timestamptz
		// column, so the range bounds must be integer microseconds too.
		sql := fmt.Sprintf(
			`CREATE TABLE IF NOT EXISTS %s PARTITION OF %s FOR VALUES FROM (%d) TO (%d)`,
			partition, table, day.UnixMicro(), next.UnixMicro(),
		)
		if _, err := pool.Exec(ctx, sql); err != nil {
			return fmt.Errorf("create partition %s: %w", partition, err)
		}
	}
	return nil
}

// PrecreateUpcoming ensures partitions exist for today and the next
// horizonDays days, so a process restarted just before midnight never
// fails an insert for lack of a partition. Intended to run once at
// startup and once per hour thereafter.
func PrecreateUpcoming(ctx context.Context, pool Execer, horizonDays int) error {
	now := time.Now().UTC()
	for i := 0; i <= horizonDays; i++ {
		if err := EnsureDailyPartition(ctx, pool, now.AddDate(0, 0, i)); err != nil {
			return err
		}
	}
	return nil
}
