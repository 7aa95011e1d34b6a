package ratelimit

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/theory-cloud/guardtheory/pkg/window"
)

// Decision is the result of one enforcement check.
type Decision struct {
	Allowed      bool
	CurrentCount int64
	Limit        int
	WindowStart  time.Time
	ResetsAt     time.Time
	RetryAfter   time.Duration
}

// Limiter enforces per-route request-volume policies.
type Limiter struct {
	counter  window.Counter
	policies Policies
	clock    window.Clock
	logger   *zap.Logger
}

type Option func(*Limiter)

func WithClock(clock window.Clock) Option {
	return func(l *Limiter) {
		if clock != nil {
			l.clock = clock
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(l *Limiter) {
		if logger != nil {
			l.logger = logger
		}
	}
}

func NewLimiter(counter window.Counter, policies Policies, opts ...Option) *Limiter {
	limiter := &Limiter{
		counter:  counter,
		policies: policies,
		clock:    window.RealClock{},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(limiter)
	}
	return limiter
}

// Enforce counts this request against the (callerKey, route) bucket and
// decides whether it may proceed. The increment happens before the decision,
// so a rejected request still consumed a slot; slots free in bulk at the next
// epoch-aligned window boundary.
//
// A counter failure returns an error, never a decision: rate limiting fails
// closed.
func (l *Limiter) Enforce(ctx context.Context, callerKey, route string) (*Decision, error) {
	policy, ok := l.policies[route]
	if !ok {
		return &Decision{Allowed: true}, nil
	}

	now := l.clock.Now()
	granularity := window.Custom(policy.Window)
	start := granularity.StartOf(now)
	resetsAt := granularity.EndOf(start)

	count, err := l.counter.Increment(ctx, callerKey, route, granularity, now)
	if err != nil {
		l.logger.Error("rate limit counter increment failed",
			zap.String("route", route),
			zap.Error(err),
		)
		return nil, err
	}

	decision := &Decision{
		Allowed:      count <= int64(policy.Limit),
		CurrentCount: count,
		Limit:        policy.Limit,
		WindowStart:  start,
		ResetsAt:     resetsAt,
	}
	if !decision.Allowed {
		decision.RetryAfter = resetsAt.Sub(now)
		l.logger.Warn("rate limit exceeded",
			zap.String("route", route),
			zap.Int64("count", count),
			zap.Int("limit", policy.Limit),
		)
	}
	return decision, nil
}
