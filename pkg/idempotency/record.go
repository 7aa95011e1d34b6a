package idempotency

import (
	"fmt"
	"os"
	"time"
)

// State is the lifecycle state of an idempotency record.
type State string

const (
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
)

// DefaultRetention bounds how long a record — completed or stuck
// in_progress after a crash — survives before the store reclaims it and the
// key becomes reusable.
const DefaultRetention = 48 * time.Hour

// Record is one idempotency record. At most one record per
// (subject, route, client key) ever exists; once completed it is immutable.
//
// Storage key shape:
//   - PK: {subject_id}#{route}
//   - SK: {client_key}
type Record struct {
	PK string `theorydb:"pk" json:"pk"`
	SK string `theorydb:"sk" json:"sk"`

	SubjectID string `json:"subject_id"`
	Route     string `json:"route"`
	ClientKey string `json:"client_key"`

	RequestHash string `json:"request_hash"`
	State       State  `json:"state"`

	// Status and ResponseEnvelope are zero until the driver completes.
	Status           int    `json:"status"`
	ResponseEnvelope []byte `json:"response_envelope,omitempty"`

	TTL int64 `theorydb:"ttl" json:"ttl"`

	CreatedAt   time.Time `theorydb:"created_at" json:"created_at"`
	CompletedAt time.Time `json:"completed_at,omitzero"`
}

func (r *Record) SetKeys() {
	r.PK = fmt.Sprintf("%s#%s", r.SubjectID, r.Route)
	r.SK = r.ClientKey
}

func (Record) TableName() string {
	if name := os.Getenv("GUARDTHEORY_IDEMPOTENCY_TABLE_NAME"); name != "" {
		return name
	}
	return "guard-idempotency-records"
}

func newRecord(subjectID, route, clientKey, requestHash string, now time.Time, retention time.Duration) *Record {
	record := &Record{
		SubjectID:   subjectID,
		Route:       route,
		ClientKey:   clientKey,
		RequestHash: requestHash,
		State:       StateInProgress,
		CreatedAt:   now,
		TTL:         now.Add(retention).Unix(),
	}
	record.SetKeys()
	return record
}
