package guardtheory

import (
	"context"
	"errors"

	"github.com/theory-cloud/guardtheory/pkg/audit"
	"github.com/theory-cloud/guardtheory/pkg/idempotency"
)

// HeaderIdempotencyKey is the request header carrying the client-chosen key.
const HeaderIdempotencyKey = "Idempotency-Key"

// IdempotencyMiddleware coordinates the handler through the idempotency state
// machine: the first request for a key executes the handler exactly once and
// stores its envelope; retries replay the stored envelope byte for byte;
// payload mismatches and concurrent retries are rejected.
//
// This is the innermost guard: everything above it runs again on a retry,
// only the handler itself is deduplicated.
func IdempotencyMiddleware(coordinator *idempotency.Coordinator, emitter audit.Emitter) Middleware {
	return func(next Handler) Handler {
		return func(c *Context) (*Envelope, error) {
			req := idempotency.Request{
				SubjectID: c.SubjectID,
				Route:     c.Request.Route,
				ClientKey: c.Header(HeaderIdempotencyKey),
				Method:    c.Request.Method,
				Body:      c.Request.Body,
			}

			outcome, err := coordinator.Run(c.Context(), req, func(context.Context) (idempotency.Outcome, error) {
				env, handlerErr := next(c)
				if handlerErr != nil {
					// Guard errors are domain outcomes: record them so a
					// retry replays the rejection instead of re-executing.
					env = ErrorEnvelope(handlerErr)
				}
				if env == nil {
					env = ErrorEnvelope(internalError(nil))
				}
				body, encodeErr := env.Encode()
				if encodeErr != nil {
					return idempotency.Outcome{}, encodeErr
				}
				return idempotency.Outcome{Status: env.Status, Body: body}, nil
			})
			if err != nil {
				return nil, translateIdempotencyError(c, emitter, err)
			}

			env, decodeErr := DecodeEnvelope(outcome.Body, outcome.Status)
			if decodeErr != nil {
				return nil, internalError(decodeErr)
			}
			env.Replayed = outcome.Replayed

			if outcome.Replayed {
				emitAudit(c, emitter, audit.EventMutationReplayed, nil)
			} else {
				emitAudit(c, emitter, audit.EventMutationExecuted, nil)
			}
			return env, nil
		}
	}
}

// InternalOutcome is the outcome recorded when a guarded handler fails
// unexpectedly: the canonical internal error envelope with status 500. Pass
// it to the coordinator via idempotency.WithInternalOutcome so crashed
// executions replay the same envelope the guard would have rendered.
func InternalOutcome() idempotency.Outcome {
	body, err := ErrorEnvelope(internalError(nil)).Encode()
	if err != nil {
		panic(err)
	}
	return idempotency.Outcome{Status: 500, Body: body}
}

func translateIdempotencyError(c *Context, emitter audit.Emitter, err error) error {
	var keyErr *idempotency.KeyError
	if errors.As(err, &keyErr) {
		if keyErr.Missing {
			return NewGuardError(CodeIdempotencyKeyRequired, messageIdempotencyKeyRequired)
		}
		return NewGuardError(CodeIdempotencyKeyInvalid, messageIdempotencyKeyInvalid)
	}

	var fingerprintErr *idempotency.FingerprintError
	if errors.As(err, &fingerprintErr) {
		return NewGuardError(CodeValidationError, "request body must be valid JSON")
	}

	var reuseErr *idempotency.ReuseConflictError
	if errors.As(err, &reuseErr) {
		emitAudit(c, emitter, audit.EventIdempotencyConflict, nil)
		return NewGuardError(CodeIdempotencyKeyReuseConflict, messageIdempotencyReuse)
	}

	var busyErr *idempotency.InProgressError
	if errors.As(err, &busyErr) {
		emitAudit(c, emitter, audit.EventIdempotencyBusy, nil)
		return NewGuardError(CodeIdempotencyInProgress, messageIdempotencyInProgress)
	}

	return internalError(err)
}
