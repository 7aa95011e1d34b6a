package entitlements

import (
	"context"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/theory-cloud/guardtheory/pkg/window"
)

// Grants is the feature/quota set one plan confers.
type Grants struct {
	Features map[FeatureKey]bool
	Quotas   map[QuotaKey]Quota
}

// PlanTable maps plan names to their grants.
type PlanTable map[string]Grants

type planDoc struct {
	Plans map[string]struct {
		Features map[string]bool `yaml:"features"`
		Quotas   map[string]struct {
			Limit  *int   `yaml:"limit"`
			Window string `yaml:"window"`
		} `yaml:"quotas"`
	} `yaml:"plans"`
}

// LoadPlanTable parses a YAML plan table:
//
//	plans:
//	  plus:
//	    features:
//	      log_activity: true
//	    quotas:
//	      logs_per_day:
//	        limit: 3
//	        window: day
//
// A quota with no limit key (or `limit: null`) is unlimited.
func LoadPlanTable(data []byte) (PlanTable, error) {
	var doc planDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse plan table: %w", err)
	}

	table := make(PlanTable, len(doc.Plans))
	for plan, entry := range doc.Plans {
		grants := Grants{
			Features: make(map[FeatureKey]bool, len(entry.Features)),
			Quotas:   make(map[QuotaKey]Quota, len(entry.Quotas)),
		}
		for name, enabled := range entry.Features {
			grants.Features[FeatureKey(name)] = enabled
		}
		for name, quota := range entry.Quotas {
			granularity, err := window.ParseGranularity(quota.Window)
			if err != nil {
				return nil, fmt.Errorf("plan %q quota %q: %w", plan, name, err)
			}
			grants.Quotas[QuotaKey(name)] = Quota{
				Key:    QuotaKey(name),
				Limit:  quota.Limit,
				Window: granularity,
			}
		}
		table[plan] = grants
	}
	return table, nil
}

// PlanSource reports a subject's current plan and subscription status; it is
// the boundary to the external subscription system.
type PlanSource interface {
	PlanFor(ctx context.Context, subjectID string) (plan, status, source string, err error)
}

// PlanResolver resolves snapshots by combining a PlanSource with a static
// plan table.
type PlanResolver struct {
	source PlanSource
	table  PlanTable
}

var _ Resolver = (*PlanResolver)(nil)

func NewPlanResolver(source PlanSource, table PlanTable) *PlanResolver {
	return &PlanResolver{source: source, table: table}
}

func (r *PlanResolver) Resolve(ctx context.Context, subjectID string) (*Snapshot, error) {
	plan, status, source, err := r.source.PlanFor(ctx, subjectID)
	if err != nil {
		return nil, WrapError(err, ErrorTypeInternal, "failed to resolve subscription plan")
	}

	grants, ok := r.table[plan]
	if !ok {
		return nil, NewError(ErrorTypeInternal, fmt.Sprintf("plan %q has no entitlements configured", plan))
	}

	snapshot := &Snapshot{
		SubjectID:          subjectID,
		Plan:               plan,
		SubscriptionStatus: status,
		Source:             source,
		Features:           make(map[FeatureKey]bool, len(grants.Features)),
		Quotas:             make(map[QuotaKey]Quota, len(grants.Quotas)),
	}
	for key, enabled := range grants.Features {
		snapshot.Features[key] = enabled
	}
	for key, quota := range grants.Quotas {
		snapshot.Quotas[key] = quota
	}
	return snapshot, nil
}
