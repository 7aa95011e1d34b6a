package idempotency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time { return c.now }

const testKey = "11111111-1111-4111-8111-111111111111"

func testRequest() Request {
	return Request{
		SubjectID: "subject-1",
		Route:     "logs.create",
		ClientKey: testKey,
		Method:    "POST",
		Body:      []byte(`{"activity":"running","duration":30}`),
	}
}

func successOutcome() Outcome {
	return Outcome{Status: 201, Body: []byte(`{"ok":true,"data":{"id":"log-1"}}`)}
}

func TestCoordinator_FirstRequestExecutesAndStores(t *testing.T) {
	clock := &fixedClock{now: time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)}
	store := NewMemoryStoreWithClock(clock)
	coordinator := NewCoordinator(store, WithClock(clock))

	executions := 0
	outcome, err := coordinator.Run(context.Background(), testRequest(), func(context.Context) (Outcome, error) {
		executions++
		return successOutcome(), nil
	})
	require.NoError(t, err)
	require.Equal(t, 1, executions)
	require.Equal(t, 201, outcome.Status)
	require.False(t, outcome.Replayed)

	record, err := store.Get(context.Background(), "subject-1", "logs.create", testKey)
	require.NoError(t, err)
	require.NotNil(t, record)
	require.Equal(t, StateCompleted, record.State)
	require.Equal(t, 201, record.Status)
	require.Equal(t, successOutcome().Body, record.ResponseEnvelope)
	require.Equal(t, clock.now.Add(DefaultRetention).Unix(), record.TTL)
}

func TestCoordinator_RetryReplaysVerbatim(t *testing.T) {
	clock := &fixedClock{now: time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)}
	store := NewMemoryStoreWithClock(clock)
	coordinator := NewCoordinator(store, WithClock(clock))

	executions := 0
	execute := func(context.Context) (Outcome, error) {
		executions++
		return successOutcome(), nil
	}

	first, err := coordinator.Run(context.Background(), testRequest(), execute)
	require.NoError(t, err)

	second, err := coordinator.Run(context.Background(), testRequest(), execute)
	require.NoError(t, err)

	require.Equal(t, 1, executions)
	require.True(t, second.Replayed)
	require.Equal(t, first.Status, second.Status)
	require.Equal(t, first.Body, second.Body)
}

func TestCoordinator_SameKeyDifferentPayloadConflicts(t *testing.T) {
	store := NewMemoryStore()
	coordinator := NewCoordinator(store)

	_, err := coordinator.Run(context.Background(), testRequest(), func(context.Context) (Outcome, error) {
		return successOutcome(), nil
	})
	require.NoError(t, err)

	changed := testRequest()
	changed.Body = []byte(`{"activity":"cycling","duration":30}`)

	_, err = coordinator.Run(context.Background(), changed, func(context.Context) (Outcome, error) {
		t.Fatal("conflicting request must not execute")
		return Outcome{}, nil
	})
	var conflict *ReuseConflictError
	require.ErrorAs(t, err, &conflict)
	require.Equal(t, testKey, conflict.ClientKey)
}

func TestCoordinator_InProgressRejectsRetry(t *testing.T) {
	clock := &fixedClock{now: time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)}
	store := NewMemoryStoreWithClock(clock)
	coordinator := NewCoordinator(store, WithClock(clock))

	req := testRequest()
	hash, err := Fingerprint(req.Method, req.Route, req.Body)
	require.NoError(t, err)

	// A driver inserted the record but has not completed.
	_, err = store.Insert(context.Background(), newRecord(req.SubjectID, req.Route, req.ClientKey, hash, clock.now, DefaultRetention))
	require.NoError(t, err)

	_, err = coordinator.Run(context.Background(), req, func(context.Context) (Outcome, error) {
		t.Fatal("concurrent retry must not execute")
		return Outcome{}, nil
	})
	var busy *InProgressError
	require.ErrorAs(t, err, &busy)
}

func TestCoordinator_PanicRecordsInternalOutcome(t *testing.T) {
	store := NewMemoryStore()
	coordinator := NewCoordinator(store)

	outcome, err := coordinator.Run(context.Background(), testRequest(), func(context.Context) (Outcome, error) {
		panic("boom")
	})
	require.NoError(t, err)
	require.Equal(t, 500, outcome.Status)

	// The internal outcome is completed and replayed; the handler never runs
	// again for this key.
	retry, err := coordinator.Run(context.Background(), testRequest(), func(context.Context) (Outcome, error) {
		t.Fatal("retry of a completed key must not execute")
		return Outcome{}, nil
	})
	require.NoError(t, err)
	require.True(t, retry.Replayed)
	require.Equal(t, outcome.Status, retry.Status)
	require.Equal(t, outcome.Body, retry.Body)
}

func TestCoordinator_ExecuteErrorRecordsInternalOutcome(t *testing.T) {
	store := NewMemoryStore()
	internal := Outcome{Status: 500, Body: []byte(`{"ok":false,"error":{"code":"INTERNAL","message":"internal error"}}`)}
	coordinator := NewCoordinator(store, WithInternalOutcome(internal))

	outcome, err := coordinator.Run(context.Background(), testRequest(), func(context.Context) (Outcome, error) {
		return Outcome{}, errors.New("encode failed")
	})
	require.NoError(t, err)
	require.Equal(t, internal.Status, outcome.Status)
	require.Equal(t, internal.Body, outcome.Body)
}

func TestCoordinator_StuckRecordReclaimedAfterRetention(t *testing.T) {
	clock := &fixedClock{now: time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)}
	store := NewMemoryStoreWithClock(clock)
	coordinator := NewCoordinator(store, WithClock(clock))

	req := testRequest()
	hash, err := Fingerprint(req.Method, req.Route, req.Body)
	require.NoError(t, err)

	// A driver crashed after insert; the record is stuck in_progress.
	_, err = store.Insert(context.Background(), newRecord(req.SubjectID, req.Route, req.ClientKey, hash, clock.now, DefaultRetention))
	require.NoError(t, err)

	clock.now = clock.now.Add(DefaultRetention + time.Second)

	executions := 0
	outcome, err := coordinator.Run(context.Background(), req, func(context.Context) (Outcome, error) {
		executions++
		return successOutcome(), nil
	})
	require.NoError(t, err)
	require.Equal(t, 1, executions)
	require.False(t, outcome.Replayed)
}

func TestCoordinator_InvalidKeySkipsStore(t *testing.T) {
	coordinator := NewCoordinator(nil)

	req := testRequest()
	req.ClientKey = ""
	_, err := coordinator.Run(context.Background(), req, nil)
	var keyErr *KeyError
	require.ErrorAs(t, err, &keyErr)
	require.True(t, keyErr.Missing)

	req.ClientKey = "not-a-uuid"
	_, err = coordinator.Run(context.Background(), req, nil)
	require.ErrorAs(t, err, &keyErr)
	require.False(t, keyErr.Missing)
}

func TestCoordinator_InvalidBodySkipsStore(t *testing.T) {
	coordinator := NewCoordinator(nil)

	req := testRequest()
	req.Body = []byte(`{"a":`)
	_, err := coordinator.Run(context.Background(), req, nil)
	var fpErr *FingerprintError
	require.ErrorAs(t, err, &fpErr)
}

type completeFailingStore struct {
	*MemoryStore
}

func (s *completeFailingStore) Complete(context.Context, *Record, int, []byte, time.Time) error {
	return &StoreError{Op: "complete", Cause: errors.New("table down")}
}

func TestCoordinator_CompleteFailureFailsClosed(t *testing.T) {
	store := &completeFailingStore{MemoryStore: NewMemoryStore()}
	coordinator := NewCoordinator(store)

	_, err := coordinator.Run(context.Background(), testRequest(), func(context.Context) (Outcome, error) {
		return successOutcome(), nil
	})
	var storeErr *StoreError
	require.ErrorAs(t, err, &storeErr)
}
