package store

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/shopmind/shopmind/internal/log"
)

// fakeRow feeds canned values into a scan, simulating a pgx.Row.
type fakeRow struct {
	values []any
	err    error
}

func (r *fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.values) {
		return fmt.Errorf("scan: got %d destinations, want %d", len(dest), len(r.values))
	}
	for i, v := range r.values {
		switch d := dest[i].(type) {
		case *uuid.UUID:
			*d = v.(uuid.UUID)
		case *string:
			*d = v.(string)
		case *float32:
			*d = v.(float32)
		case *time.Time:
			*d = v.(time.Time)
		default:
			// pgtype scan targets implement their own assignment; the
			// helper tests below only cover plain destinations.
			return fmt.Errorf("scan: unsupported destination %T", dest[i])
		}
	}
	return nil
}

func TestNew_RequiresDB(t *testing.T) {
	t.Parallel()

	if _, err := New(nil, log.NewNop()); err == nil {
		t.Fatal("expected error for nil database")
	}
}

func TestScanAgent(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	now := time.Now()
	row := &fakeRow{values: []any{id, "prompt", "gemini-2.5-flash", float32(0.7), now, now}}

	agent, err := scanAgent(row)
	if err != nil {
		t.Fatalf("scanAgent() error = %v", err)
	}
	if agent.ID != id || agent.Model != "gemini-2.5-flash" || agent.Temperature != 0.7 {
		t.Errorf("scanAgent() = %+v", agent)
	}
}

func TestScanAgent_Error(t *testing.T) {
	t.Parallel()

	scanErr := errors.New("boom")
	if _, err := scanAgent(&fakeRow{err: scanErr}); !errors.Is(err, scanErr) {
		t.Errorf("scanAgent() error = %v, want %v", err, scanErr)
	}
}

func TestIsForeignKeyViolation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "fk violation", err: &pgconn.PgError{Code: "23503"}, want: true},
		{name: "wrapped fk violation", err: fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23503"}), want: true},
		{name: "unique violation", err: &pgconn.PgError{Code: "23505"}, want: false},
		{name: "plain error", err: errors.New("boom"), want: false},
		{name: "nil", err: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := isForeignKeyViolation(tt.err); got != tt.want {
				t.Errorf("isForeignKeyViolation() = %v, want %v", got, tt.want)
			}
		})
	}
}
