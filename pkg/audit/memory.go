package audit

import (
	"context"
	"sync"
)

// MemoryEmitter records events in memory. Intended for tests asserting how
// many times a guarded mutation actually executed.
type MemoryEmitter struct {
	mu     sync.Mutex
	events []Event
}

var _ Emitter = (*MemoryEmitter)(nil)

func NewMemoryEmitter() *MemoryEmitter {
	return &MemoryEmitter{}
}

func (e *MemoryEmitter) Emit(_ context.Context, event Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, event)
	return nil
}

// Events returns a copy of all emitted events in order.
func (e *MemoryEmitter) Events() []Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Event(nil), e.events...)
}

// CountByType returns how many events of the given type were emitted.
func (e *MemoryEmitter) CountByType(eventType EventType) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	count := 0
	for _, event := range e.events {
		if event.Type == eventType {
			count++
		}
	}
	return count
}
