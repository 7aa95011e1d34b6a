package guardtheory

import (
	"go.uber.org/zap"

	"github.com/theory-cloud/guardtheory/pkg/audit"
	"github.com/theory-cloud/guardtheory/pkg/logging"
	"github.com/theory-cloud/guardtheory/pkg/ratelimit"
)

// RateLimitMiddleware rejects requests over the route's volume policy with
// RATE_LIMITED before any downstream guard runs. A nil emitter disables audit
// events.
func RateLimitMiddleware(limiter *ratelimit.Limiter, emitter audit.Emitter) Middleware {
	return func(next Handler) Handler {
		return func(c *Context) (*Envelope, error) {
			if c.SubjectID == "" {
				return nil, NewGuardError(CodeAuthRequired, "authentication required")
			}

			decision, err := limiter.Enforce(c.Context(), c.SubjectID, c.Request.Route)
			if err != nil {
				return nil, internalError(err)
			}
			if !decision.Allowed {
				emitAudit(c, emitter, audit.EventRateLimited, map[string]any{
					"limit": decision.Limit,
					"count": decision.CurrentCount,
				})
				return nil, NewGuardError(CodeRateLimited, messageRateLimited).WithDetails(map[string]any{
					"limit":          decision.Limit,
					"retry_after_ms": decision.RetryAfter.Milliseconds(),
					"resets_at":      decision.ResetsAt.UTC(),
				})
			}
			return next(c)
		}
	}
}

// emitAudit publishes a guard decision event. Emission is best effort; a
// publish failure is logged and the request proceeds unaffected.
func emitAudit(c *Context, emitter audit.Emitter, eventType audit.EventType, details map[string]any) {
	if emitter == nil {
		return
	}
	event := audit.NewEvent(eventType, c.SubjectID, c.Request.Route, c.Now())
	event.Details = details
	if err := emitter.Emit(c.Context(), event); err != nil {
		logging.L().Warn("audit emit failed",
			zap.String("event_type", string(eventType)),
			zap.Error(err),
		)
	}
}
