// Package entitlements resolves a subject's plan-derived capabilities and
// enforces boolean feature gates and windowed usage quotas.
package entitlements

import (
	"context"

	"github.com/theory-cloud/guardtheory/pkg/window"
)

// FeatureKey names a boolean capability gate.
type FeatureKey string

// QuotaKey names a windowed usage ceiling.
type QuotaKey string

// Quota describes one usage ceiling. A nil Limit means unlimited.
type Quota struct {
	Key    QuotaKey
	Limit  *int
	Window window.Granularity
}

// Snapshot is a subject's entitlements at one instant. It is computed fresh
// per request from subscription state and never persisted.
type Snapshot struct {
	SubjectID          string
	PairID             string
	Plan               string
	SubscriptionStatus string
	Source             string

	Features map[FeatureKey]bool
	Quotas   map[QuotaKey]Quota
}

// Resolver produces the entitlements snapshot for a subject. The subscription
// lookup behind it is an external collaborator.
type Resolver interface {
	Resolve(ctx context.Context, subjectID string) (*Snapshot, error)
}
