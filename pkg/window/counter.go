package window

import (
	"context"
	"time"
)

// Counter is the windowed counter port. Implementations perform a single
// logical read-modify-write per call: increment, creating the bucket at
// count=1 when absent. Two callers racing to create the same bucket must both
// succeed, with the loser applying as a plain increment.
type Counter interface {
	// Increment bumps the bucket for (subjectKey, resourceKey, g) containing
	// now and returns the post-increment count.
	Increment(ctx context.Context, subjectKey, resourceKey string, g Granularity, now time.Time) (int64, error)

	// Peek returns the current count without incrementing; 0 when the bucket
	// does not exist.
	Peek(ctx context.Context, subjectKey, resourceKey string, g Granularity, now time.Time) (int64, error)
}

// Clock allows deterministic testing of window math.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using actual time.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

func validateBucketKey(subjectKey, resourceKey string, g Granularity) error {
	if subjectKey == "" {
		return NewError(ErrorTypeInvalidInput, "subject key is required")
	}
	if resourceKey == "" {
		return NewError(ErrorTypeInvalidInput, "resource key is required")
	}
	if g.IsZero() {
		return NewError(ErrorTypeInvalidInput, "window granularity is required")
	}
	return nil
}
