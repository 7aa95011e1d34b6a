package entitlements

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/theory-cloud/guardtheory/pkg/window"
)

const planTableYAML = `
plans:
  free:
    features:
      log_activity: true
    quotas:
      logs_per_day:
        limit: 3
        window: day
  plus:
    features:
      log_activity: true
      export_data: true
    quotas:
      logs_per_day:
        limit: 50
        window: day
      exports_per_month:
        window: month
`

func TestLoadPlanTable(t *testing.T) {
	table, err := LoadPlanTable([]byte(planTableYAML))
	require.NoError(t, err)
	require.Len(t, table, 2)

	free := table["free"]
	require.True(t, free.Features["log_activity"])
	require.Equal(t, 3, *free.Quotas["logs_per_day"].Limit)
	require.Equal(t, window.Day, free.Quotas["logs_per_day"].Window)

	plus := table["plus"]
	require.Nil(t, plus.Quotas["exports_per_month"].Limit)
	require.Equal(t, window.Month, plus.Quotas["exports_per_month"].Window)
}

func TestLoadPlanTable_RejectsUnknownWindow(t *testing.T) {
	_, err := LoadPlanTable([]byte(`
plans:
  free:
    quotas:
      logs_per_day:
        limit: 3
        window: fortnight
`))
	require.Error(t, err)
}

type staticPlanSource struct {
	plan   string
	status string
	err    error
}

func (s staticPlanSource) PlanFor(context.Context, string) (string, string, string, error) {
	return s.plan, s.status, "static", s.err
}

func TestPlanResolver_Resolve(t *testing.T) {
	table, err := LoadPlanTable([]byte(planTableYAML))
	require.NoError(t, err)

	resolver := NewPlanResolver(staticPlanSource{plan: "plus", status: "active"}, table)

	snapshot, err := resolver.Resolve(context.Background(), "subject-1")
	require.NoError(t, err)
	require.Equal(t, "subject-1", snapshot.SubjectID)
	require.Equal(t, "plus", snapshot.Plan)
	require.Equal(t, "active", snapshot.SubscriptionStatus)
	require.True(t, snapshot.Features["export_data"])
	require.Equal(t, 50, *snapshot.Quotas["logs_per_day"].Limit)
}

func TestPlanResolver_SourceFailureIsInternal(t *testing.T) {
	resolver := NewPlanResolver(staticPlanSource{err: errors.New("billing down")}, PlanTable{})

	_, err := resolver.Resolve(context.Background(), "subject-1")
	var entErr *Error
	require.ErrorAs(t, err, &entErr)
	require.Equal(t, ErrorTypeInternal, entErr.Type)
}

func TestPlanResolver_UnknownPlanIsInternal(t *testing.T) {
	resolver := NewPlanResolver(staticPlanSource{plan: "legacy"}, PlanTable{})

	_, err := resolver.Resolve(context.Background(), "subject-1")
	var entErr *Error
	require.ErrorAs(t, err, &entErr)
	require.Equal(t, ErrorTypeInternal, entErr.Type)
}
