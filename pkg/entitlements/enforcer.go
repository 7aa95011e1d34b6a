package entitlements

import (
	"context"

	"go.uber.org/zap"

	"github.com/theory-cloud/guardtheory/pkg/window"
)

// Enforcer applies feature gates and quota ceilings from a snapshot.
type Enforcer struct {
	counter window.Counter
	clock   window.Clock
	logger  *zap.Logger
}

type Option func(*Enforcer)

func WithClock(clock window.Clock) Option {
	return func(e *Enforcer) {
		if clock != nil {
			e.clock = clock
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(e *Enforcer) {
		if logger != nil {
			e.logger = logger
		}
	}
}

func NewEnforcer(counter window.Counter, opts ...Option) *Enforcer {
	enforcer := &Enforcer{
		counter: counter,
		clock:   window.RealClock{},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(enforcer)
	}
	return enforcer
}

// AssertEntitlement passes iff the feature flag is present and true.
func (e *Enforcer) AssertEntitlement(snapshot *Snapshot, key FeatureKey) error {
	if snapshot == nil {
		return NewError(ErrorTypeInvalidInput, "entitlements snapshot is required")
	}
	if snapshot.Features[key] {
		return nil
	}
	return &DeniedError{Feature: key, Plan: snapshot.Plan}
}

// AssertQuota reserves one unit of usage against the quota's window before
// business logic runs. Usage is reserved pessimistically: a request that is
// admitted here but fails downstream still consumed a unit. An unlimited
// quota (nil limit) passes without touching the counter.
//
// A counter failure returns an error, never an allow: quotas fail closed.
func (e *Enforcer) AssertQuota(ctx context.Context, snapshot *Snapshot, key QuotaKey) error {
	if snapshot == nil {
		return NewError(ErrorTypeInvalidInput, "entitlements snapshot is required")
	}

	quota, ok := snapshot.Quotas[key]
	if !ok {
		// Unknown quota key means the plan confers no usage at all.
		return &QuotaExceededError{Key: key}
	}
	if quota.Limit == nil {
		return nil
	}

	now := e.clock.Now()
	count, err := e.counter.Increment(ctx, snapshot.SubjectID, string(key), quota.Window, now)
	if err != nil {
		e.logger.Error("quota counter increment failed",
			zap.String("quota", string(key)),
			zap.Error(err),
		)
		return WrapError(err, ErrorTypeInternal, "failed to record quota usage")
	}

	if count > int64(*quota.Limit) {
		start := quota.Window.StartOf(now)
		e.logger.Warn("quota exceeded",
			zap.String("quota", string(key)),
			zap.Int64("count", count),
			zap.Int("limit", *quota.Limit),
		)
		return &QuotaExceededError{
			Key:      key,
			Limit:    *quota.Limit,
			Count:    count,
			ResetsAt: quota.Window.EndOf(start),
		}
	}
	return nil
}
