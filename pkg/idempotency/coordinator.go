package idempotency

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Request identifies one mutation attempt for coordination purposes.
type Request struct {
	SubjectID string
	Route     string
	ClientKey string
	Method    string
	Body      []byte
}

// Outcome is the stored result of a mutation: the envelope bytes handed back
// to the client and the status the transport writes. Replayed marks outcomes
// served from a completed record instead of fresh execution.
type Outcome struct {
	Status   int
	Body     []byte
	Replayed bool
}

// Execute runs the business logic for a mutation and produces its outcome.
// Domain errors are outcomes too (an error envelope with its status); a
// returned error or panic is the unexpected-failure path.
type Execute func(ctx context.Context) (Outcome, error)

// Coordinator is the idempotency state machine. For each validated
// (subject, route, client key) it admits exactly one driver, replays
// completed outcomes verbatim, and rejects concurrent or conflicting reuse.
type Coordinator struct {
	store     Store
	retention time.Duration
	clock     Clock
	logger    *zap.Logger

	// internalOutcome is recorded as the completed outcome when business
	// logic fails unexpectedly, so retries replay the same internal error
	// instead of re-executing.
	internalOutcome Outcome
}

type Option func(*Coordinator)

func WithRetention(retention time.Duration) Option {
	return func(c *Coordinator) {
		if retention > 0 {
			c.retention = retention
		}
	}
}

func WithClock(clock Clock) Option {
	return func(c *Coordinator) {
		if clock != nil {
			c.clock = clock
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithInternalOutcome(outcome Outcome) Option {
	return func(c *Coordinator) {
		if outcome.Status != 0 {
			c.internalOutcome = outcome
		}
	}
}

func NewCoordinator(store Store, opts ...Option) *Coordinator {
	coordinator := &Coordinator{
		store:     store,
		retention: DefaultRetention,
		clock:     RealClock{},
		logger:    zap.NewNop(),
		internalOutcome: Outcome{
			Status: 500,
			Body:   []byte(`{"ok":false,"error":{"code":"INTERNAL","message":"internal error"}}`),
		},
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(coordinator)
	}
	return coordinator
}

// Run coordinates one mutation attempt.
//
// The conditional insert decides the role: the winner is the driver and
// invokes execute exactly once; everyone else is classified against the
// existing record as a reuse conflict, a busy rejection, or a verbatim
// replay. If the process dies after insert but before completion, the record
// stays in_progress until retention expiry reclaims it and the key becomes
// reusable again.
func (c *Coordinator) Run(ctx context.Context, req Request, execute Execute) (Outcome, error) {
	clientKey, err := ValidateKey(req.ClientKey)
	if err != nil {
		return Outcome{}, err
	}

	requestHash, err := Fingerprint(req.Method, req.Route, req.Body)
	if err != nil {
		return Outcome{}, err
	}

	record := newRecord(req.SubjectID, req.Route, clientKey, requestHash, c.clock.Now(), c.retention)

	result, err := c.store.Insert(ctx, record)
	if err != nil {
		return Outcome{}, err
	}

	if !result.Inserted {
		return c.classify(result.Existing, requestHash, clientKey)
	}

	outcome := c.invoke(ctx, req, execute)

	if err := c.store.Complete(ctx, record, outcome.Status, outcome.Body, c.clock.Now()); err != nil {
		c.logger.Error("failed to persist idempotency outcome",
			zap.String("route", req.Route),
			zap.Error(err),
		)
		return Outcome{}, err
	}

	return outcome, nil
}

func (c *Coordinator) classify(existing *Record, requestHash, clientKey string) (Outcome, error) {
	if existing == nil {
		return Outcome{}, &StoreError{Op: "insert", Cause: errMissingExisting}
	}
	if existing.RequestHash != requestHash {
		return Outcome{}, &ReuseConflictError{ClientKey: clientKey}
	}
	if existing.State == StateInProgress {
		return Outcome{}, &InProgressError{ClientKey: clientKey}
	}
	return Outcome{
		Status:   existing.Status,
		Body:     existing.ResponseEnvelope,
		Replayed: true,
	}, nil
}

func (c *Coordinator) invoke(ctx context.Context, req Request, execute Execute) (outcome Outcome) {
	defer func() {
		if recovered := recover(); recovered != nil {
			c.logger.Error("business logic panicked",
				zap.String("route", req.Route),
				zap.Any("panic", recovered),
			)
			outcome = c.internalOutcome
		}
	}()

	result, err := execute(ctx)
	if err != nil {
		c.logger.Error("business logic failed",
			zap.String("route", req.Route),
			zap.Error(err),
		)
		return c.internalOutcome
	}
	return result
}

type coordinatorError string

func (e coordinatorError) Error() string { return string(e) }

const errMissingExisting = coordinatorError("duplicate insert returned no existing record")
