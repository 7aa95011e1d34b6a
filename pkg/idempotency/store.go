package idempotency

import (
	"context"
	"time"
)

// InsertResult is the tagged outcome of a conditional insert. The duplicate
// case is an expected result, not an error: exactly one of Inserted or
// Existing is meaningful.
type InsertResult struct {
	Inserted bool
	Existing *Record
}

// Store is the idempotency record port. Implementations must provide atomic
// single-record operations; the store is the sole serialization point.
type Store interface {
	// Insert atomically creates the record if no record exists for its
	// (subject, route, client key) identity. When the identity already
	// exists, it returns the existing record instead of an error.
	Insert(ctx context.Context, record *Record) (InsertResult, error)

	// Complete transitions the record to completed with its final status and
	// envelope in one atomic update. It fails if the record is not
	// in_progress, so a completed record is never overwritten.
	Complete(ctx context.Context, record *Record, status int, envelope []byte, completedAt time.Time) error

	// Get fetches a record by identity; (nil, nil) when absent.
	Get(ctx context.Context, subjectID, route, clientKey string) (*Record, error)
}

// Clock allows deterministic testing of record timestamps and retention.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using actual time.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }
