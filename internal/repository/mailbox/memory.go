package mailbox

import (
	"context"
	"sync"

	"github.com/oshokin/fall-guard/internal/domain/alert"
)

// MemoryRepository is an in-process mailbox.
type MemoryRepository struct {
	// mu guards event.
	mu sync.Mutex
	// event is the pending alert, nil when empty.
	event *alert.Event
}

// NewMemoryRepository creates an empty in-process mailbox.
func NewMemoryRepository() *MemoryRepository {
	return new(MemoryRepository)
}

// Put overwrites the slot.
func (r *MemoryRepository) Put(_ context.Context, event alert.Event) (bool, error) {
	cloned := event.Clone()

	r.mu.Lock()
	defer r.mu.Unlock()

	replaced := r.event != nil
	r.event = &cloned

	return replaced, nil
}

// Take swaps the slot with nil.
func (r *MemoryRepository) Take(_ context.Context) (alert.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.event == nil {
		return alert.Event{}, ErrEmpty
	}

	event := *r.event
	r.event = nil

	return event, nil
}
