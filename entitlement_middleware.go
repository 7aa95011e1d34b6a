package guardtheory

import (
	"errors"

	"github.com/theory-cloud/guardtheory/pkg/audit"
	"github.com/theory-cloud/guardtheory/pkg/entitlements"
)

// ContextKeyEntitlements is the per-request key under which the middleware
// stores the resolved *entitlements.Snapshot for handlers.
const ContextKeyEntitlements = "entitlements_snapshot"

// EntitlementMiddleware resolves the subject's entitlements snapshot, gates
// the operation on a feature flag, and reserves quota usage before the
// handler runs. An empty feature or quota key skips that check. The snapshot
// is stored on the context under ContextKeyEntitlements either way.
func EntitlementMiddleware(
	resolver entitlements.Resolver,
	enforcer *entitlements.Enforcer,
	feature entitlements.FeatureKey,
	quota entitlements.QuotaKey,
	emitter audit.Emitter,
) Middleware {
	return func(next Handler) Handler {
		return func(c *Context) (*Envelope, error) {
			if c.SubjectID == "" {
				return nil, NewGuardError(CodeAuthRequired, "authentication required")
			}

			snapshot, err := resolver.Resolve(c.Context(), c.SubjectID)
			if err != nil {
				// Unresolvable entitlements deny the mutation rather than
				// letting it through ungoverned.
				return nil, internalError(err)
			}
			c.Set(ContextKeyEntitlements, snapshot)

			if feature != "" {
				if err := enforcer.AssertEntitlement(snapshot, feature); err != nil {
					return nil, translateEntitlementError(c, emitter, err)
				}
			}
			if quota != "" {
				if err := enforcer.AssertQuota(c.Context(), snapshot, quota); err != nil {
					return nil, translateEntitlementError(c, emitter, err)
				}
			}
			return next(c)
		}
	}
}

// EntitlementsFrom returns the snapshot stored by EntitlementMiddleware, or
// nil when the middleware has not run.
func EntitlementsFrom(c *Context) *entitlements.Snapshot {
	snapshot, _ := c.Value(ContextKeyEntitlements).(*entitlements.Snapshot)
	return snapshot
}

func translateEntitlementError(c *Context, emitter audit.Emitter, err error) error {
	var denied *entitlements.DeniedError
	if errors.As(err, &denied) {
		emitAudit(c, emitter, audit.EventEntitlementDenied, map[string]any{
			"feature": string(denied.Feature),
			"plan":    denied.Plan,
		})
		return NewGuardError(CodeAccessDenied, messageAccessDenied).WithDetails(map[string]any{
			"feature": string(denied.Feature),
		})
	}

	var exceeded *entitlements.QuotaExceededError
	if errors.As(err, &exceeded) {
		emitAudit(c, emitter, audit.EventQuotaExceeded, map[string]any{
			"quota": string(exceeded.Key),
			"limit": exceeded.Limit,
		})
		guardErr := NewGuardError(CodeQuotaExceeded, messageQuotaExceeded)
		details := map[string]any{"quota": string(exceeded.Key)}
		if exceeded.Limit > 0 {
			details["limit"] = exceeded.Limit
		}
		if !exceeded.ResetsAt.IsZero() {
			details["resets_at"] = exceeded.ResetsAt.UTC()
		}
		return guardErr.WithDetails(details)
	}

	return internalError(err)
}
