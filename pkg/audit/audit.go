// Package audit emits guard decision events so denied requests leave a
// trail: rate limit rejections, quota exhaustion, idempotency conflicts, and
// executed mutations.
package audit

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
)

// EventType classifies a guard decision.
type EventType string

const (
	EventMutationExecuted    EventType = "mutation_executed"
	EventMutationReplayed    EventType = "mutation_replayed"
	EventIdempotencyConflict EventType = "idempotency_conflict"
	EventIdempotencyBusy     EventType = "idempotency_busy"
	EventRateLimited         EventType = "rate_limited"
	EventQuotaExceeded       EventType = "quota_exceeded"
	EventEntitlementDenied   EventType = "entitlement_denied"
)

// Event is one guard decision.
type Event struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	SubjectID  string         `json:"subject_id"`
	Route      string         `json:"route"`
	OccurredAt time.Time      `json:"occurred_at"`
	Details    map[string]any `json:"details,omitempty"`
}

// NewEvent stamps an event with a fresh ULID and timestamp.
func NewEvent(eventType EventType, subjectID, route string, occurredAt time.Time) Event {
	return Event{
		ID:         ulid.Make().String(),
		Type:       eventType,
		SubjectID:  subjectID,
		Route:      route,
		OccurredAt: occurredAt,
	}
}

// Emitter publishes guard decision events. Emission is best effort: guards
// log failures but never fail a request because its audit event did not
// publish.
type Emitter interface {
	Emit(ctx context.Context, event Event) error
}
