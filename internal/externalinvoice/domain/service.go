package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/supplierspend/internal/clock"
)

// StalenessThreshold is the maximum age of a usable failover snapshot,
// measured from the start of the current day.
const StalenessThreshold = 28 * 24 * time.Hour

var (
	ErrFailoverOutOfDate   = errors.New("failover_out_of_date")
	ErrFailoverUnavailable = errors.New("failover_unavailable")
	ErrSnapshotNotFound    = errors.New("failover_snapshot_not_found")
)

// Gateway returns external invoices, falling back to the failover snapshot
// when the remote endpoint cannot be reached.
type Gateway interface {
	GetInvoices(ctx context.Context, supplierID snowflake.ID) ([]ExternalInvoice, error)
}

// RemoteClient calls the remote invoice endpoint. Any call may fail.
type RemoteClient interface {
	GetInvoices(ctx context.Context, supplierID string) ([]ExternalInvoice, error)
}

type FailoverProvider interface {
	GetInvoices(ctx context.Context, supplierID snowflake.ID) (FailoverSnapshot, error)
}

// FailoverOutOfDateError is returned when the remote call failed and the
// failover snapshot is too old to serve.
type FailoverOutOfDateError struct {
	Timestamp time.Time
	Cause     error
}

func (e *FailoverOutOfDateError) Error() string {
	msg := fmt.Sprintf("failover invoices are out of date since %s", e.Timestamp.UTC().Format(time.RFC3339))
	if e.Cause == nil {
		return msg
	}
	return fmt.Sprintf("%s: %v", msg, e.Cause)
}

func (e *FailoverOutOfDateError) Unwrap() error { return e.Cause }

func (e *FailoverOutOfDateError) Is(target error) bool { return target == ErrFailoverOutOfDate }

// IsStale reports whether a snapshot taken at ts must be rejected at now.
func IsStale(ts, now time.Time) bool {
	cutoff := clock.StartOfDay(now).Add(-StalenessThreshold)
	return !ts.After(cutoff)
}
