package idempotency

import (
	"context"
	"sync"
	"time"
)

// MemoryStore implements Store with an in-process map. Intended for tests and
// local development; it honors record TTLs against its clock so retention
// reclaim behaves like the DynamoDB store.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]*Record
	clock   Clock
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*Record),
		clock:   RealClock{},
	}
}

// NewMemoryStoreWithClock builds a store whose TTL reclaim follows the given
// clock.
func NewMemoryStoreWithClock(clock Clock) *MemoryStore {
	store := NewMemoryStore()
	if clock != nil {
		store.clock = clock
	}
	return store
}

func (s *MemoryStore) Insert(_ context.Context, record *Record) (InsertResult, error) {
	if record == nil {
		return InsertResult{}, &StoreError{Op: "insert", Cause: errNilRecord}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := record.PK + "|" + record.SK
	if existing, ok := s.records[key]; ok && !s.expired(existing) {
		copied := *existing
		return InsertResult{Existing: &copied}, nil
	}

	copied := *record
	s.records[key] = &copied
	return InsertResult{Inserted: true}, nil
}

func (s *MemoryStore) Complete(_ context.Context, record *Record, status int, envelope []byte, completedAt time.Time) error {
	if record == nil {
		return &StoreError{Op: "complete", Cause: errNilRecord}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := record.PK + "|" + record.SK
	existing, ok := s.records[key]
	if !ok || s.expired(existing) || existing.State != StateInProgress {
		return &StoreError{Op: "complete", Cause: errNotInProgress}
	}

	existing.State = StateCompleted
	existing.Status = status
	existing.ResponseEnvelope = append([]byte(nil), envelope...)
	existing.CompletedAt = completedAt
	return nil
}

func (s *MemoryStore) Get(_ context.Context, subjectID, route, clientKey string) (*Record, error) {
	lookup := &Record{SubjectID: subjectID, Route: route, ClientKey: clientKey}
	lookup.SetKeys()

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.records[lookup.PK+"|"+lookup.SK]
	if !ok || s.expired(existing) {
		return nil, nil
	}
	copied := *existing
	return &copied, nil
}

func (s *MemoryStore) expired(record *Record) bool {
	return record.TTL > 0 && !s.clock.Now().Before(time.Unix(record.TTL, 0))
}

const errNotInProgress = coordinatorError("record is not in progress")
