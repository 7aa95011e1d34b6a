// Package guardtheory is an idempotent-mutation and abuse-control layer for
// state-changing API operations.
//
// Every mutating request passes a chain of guards before business logic runs:
// rate limiting, entitlement and quota checks, then idempotency coordination.
// All cross-request coordination goes through atomic single-record store
// operations, so the layer is safe to run on a stateless, horizontally scaled
// serving tier.
package guardtheory

import "context"

// Guard is the root container wiring the middleware chain for mutation-guarded
// operations.
type Guard struct {
	clock       Clock
	ids         IDGenerator
	middlewares []Middleware
}

type Option func(*Guard)

// New creates a new guard chain container.
func New(opts ...Option) *Guard {
	guard := &Guard{
		clock: RealClock{},
		ids:   ULIDGenerator{},
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(guard)
	}
	return guard
}

func WithClock(clock Clock) Option {
	return func(guard *Guard) {
		if clock == nil {
			guard.clock = RealClock{}
			return
		}
		guard.clock = clock
	}
}

func WithIDGenerator(ids IDGenerator) Option {
	return func(guard *Guard) {
		if ids == nil {
			guard.ids = ULIDGenerator{}
			return
		}
		guard.ids = ids
	}
}

// NewContext builds the per-request Context for an already-authenticated
// subject.
func (g *Guard) NewContext(ctx context.Context, req Request, subjectID string) *Context {
	requestCtx := &Context{
		ctx:       ctx,
		Request:   req,
		clock:     g.clock,
		ids:       g.ids,
		SubjectID: subjectID,
	}
	requestCtx.RequestID = requestCtx.NewID()
	return requestCtx
}

// Execute runs handler behind the registered guard chain and always yields an
// envelope: guard rejections and handler errors render as error envelopes.
func (g *Guard) Execute(ctx context.Context, req Request, subjectID string, handler Handler) *Envelope {
	requestCtx := g.NewContext(ctx, req, subjectID)
	wrapped := g.applyMiddlewares(handler)
	if wrapped == nil {
		return ErrorEnvelope(NewGuardError(CodeNotFound, "no handler registered"))
	}

	env, err := wrapped(requestCtx)
	if err != nil {
		return ErrorEnvelope(err)
	}
	if env == nil {
		return ErrorEnvelope(internalError(nil))
	}
	return env
}
