package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

type fakeExecer struct {
	statements []string
	failOn     string
}

func (f *fakeExecer) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.statements = append(f.statements, sql)
	if f.failOn != "" && contains(sql, f.failOn) {
		return pgconn.CommandTag{}, errors.New("boom")
	}
	return pgconn.CommandTag{}, nil
}

func contains(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}

func TestEnsureDailyPartition_CreatesOnePerTable(t *testing.T) {
	exec := &fakeExecer{}
	day := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)

	if err := EnsureDailyPartition(context.Background(), exec, day); err != nil {
		t.Fatalf("EnsureDailyPartition() error = %v", err)
	}
	if len(exec.statements) != len(PartitionedTables) {
		t.Errorf("issued %d statements, want %d", len(exec.statements), len(PartitionedTables))
	}
	for _, stmt := range exec.statements {
		if !contains(stmt, "CREATE TABLE IF NOT EXISTS") {
			t.Errorf("statement missing idempotent guard: %s", stmt)
		}
		if !contains(stmt, "20260731") {
			t.Errorf("statement missing expected partition suffix: %s", stmt)
		}
	}
}

func TestEnsureDailyPartition_PropagatesError(t *testing.T) {
	exec := &fakeExecer{failOn: "trades"}
	err := EnsureDailyPartition(context.Background(), exec, time.Now())
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestPrecreateUpcoming_CoversHorizon(t *testing.T) {
	exec := &fakeExecer{}
	if err := PrecreateUpcoming(context.Background(), exec, 3); err != nil {
		t.Fatalf("PrecreateUpcoming() error = %v", err)
	}
	want := (3 + 1) * len(PartitionedTables)
	if len(exec.statements) != want {
		t.Errorf("issued %d statements, want %d", len(exec.statements), want)
	}
}
