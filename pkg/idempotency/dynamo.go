package idempotency

import (
	"context"
	"fmt"
	"time"

	tablecore "github.com/theory-cloud/tabletheory/pkg/core"
	tableerrors "github.com/theory-cloud/tabletheory/pkg/errors"
)

// DynamoStore implements Store using DynamoDB via TableTheory.
//
// Insert is a conditional create on the record's primary key; the table's
// TTL attribute handles retention reclaim, so a crashed driver's in_progress
// record disappears on its own and the key becomes reusable.
type DynamoStore struct {
	db tablecore.DB
}

var _ Store = (*DynamoStore)(nil)

func NewDynamoStore(db tablecore.DB) *DynamoStore {
	return &DynamoStore{db: db}
}

func (s *DynamoStore) Insert(ctx context.Context, record *Record) (InsertResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if record == nil {
		return InsertResult{}, &StoreError{Op: "insert", Cause: errNilRecord}
	}

	err := s.db.Model(record).WithContext(ctx).IfNotExists().Create()
	if err == nil {
		return InsertResult{Inserted: true}, nil
	}
	if !tableerrors.IsConditionFailed(err) {
		return InsertResult{}, &StoreError{Op: "insert", Cause: err}
	}

	// Lost the race (or the key was used before): fetch the winning record so
	// the caller can classify the duplicate.
	existing, getErr := s.Get(ctx, record.SubjectID, record.Route, record.ClientKey)
	if getErr != nil {
		return InsertResult{}, getErr
	}
	if existing == nil {
		// The winner's record vanished between the failed create and the read
		// (TTL reclaim in flight). Surface it as a store error; the client
		// retry will insert cleanly.
		return InsertResult{}, &StoreError{Op: "insert", Cause: errMissingExisting}
	}
	return InsertResult{Existing: existing}, nil
}

func (s *DynamoStore) Complete(ctx context.Context, record *Record, status int, envelope []byte, completedAt time.Time) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if record == nil {
		return &StoreError{Op: "complete", Cause: errNilRecord}
	}

	err := s.db.Model(&Record{}).
		WithContext(ctx).
		Where("PK", "=", record.PK).
		Where("SK", "=", record.SK).
		UpdateBuilder().
		Set("State", StateCompleted).
		Set("Status", status).
		Set("ResponseEnvelope", envelope).
		Set("CompletedAt", completedAt).
		Condition("State", "=", StateInProgress).
		Execute()
	if err != nil {
		return &StoreError{Op: "complete", Cause: err}
	}
	return nil
}

func (s *DynamoStore) Get(ctx context.Context, subjectID, route, clientKey string) (*Record, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	var record Record
	err := s.db.Model(&Record{}).
		WithContext(ctx).
		Where("PK", "=", fmt.Sprintf("%s#%s", subjectID, route)).
		Where("SK", "=", clientKey).
		First(&record)
	if err != nil {
		if tableerrors.IsNotFound(err) {
			return nil, nil
		}
		return nil, &StoreError{Op: "get", Cause: err}
	}
	return &record, nil
}

const errNilRecord = coordinatorError("nil idempotency record")
