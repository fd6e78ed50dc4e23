package audittrail

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrInvalidAction is returned when an empty action tag is provided.
var ErrInvalidAction = errors.New("action cannot be empty")

// Repository defines the interface for audit trail operations.
// The trail is append-only: there is deliberately no update or delete.
type Repository interface {
	// Record appends an event and returns the stored copy.
	Record(ctx context.Context, e Entry) (*Event, error)

	// List retrieves events newest first, with offset pagination.
	List(ctx context.Context, limit, offset int) ([]*Event, error)

	// Count returns the total number of recorded events.
	Count(ctx context.Context) (int, error)
}

// InMemoryRepository is an in-memory implementation of Repository.
// Used for testing and development. Thread-safe via RWMutex.
type InMemoryRepository struct {
	mu     sync.RWMutex
	events []*Event
	nextID int64
}

// NewInMemoryRepository creates a new in-memory audit trail repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{nextID: 1}
}

// Record appends an event.
func (r *InMemoryRepository) Record(ctx context.Context, e Entry) (*Event, error) {
	if e.Action == "" {
		return nil, ErrInvalidAction
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	event := &Event{
		ID:         r.nextID,
		Timestamp:  time.Now().UTC(),
		AdminID:    e.AdminID,
		Action:     e.Action,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		Details:    e.Details,
		IPAddress:  e.IPAddress,
	}
	r.nextID++
	r.events = append(r.events, event)

	eventCopy := *event
	return &eventCopy, nil
}

// List retrieves events newest first.
func (r *InMemoryRepository) List(ctx context.Context, limit, offset int) ([]*Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var results []*Event
	for i := len(r.events) - 1 - offset; i >= 0; i-- {
		eventCopy := *r.events[i]
		results = append(results, &eventCopy)
		if limit > 0 && len(results) >= limit {
			break
		}
	}
	return results, nil
}

// Count returns the total number of recorded events.
func (r *InMemoryRepository) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.events), nil
}
