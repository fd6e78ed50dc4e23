package notify

import (
	"context"
	"sync"
	"time"
)

// Repository defines the interface for delivery record persistence.
type Repository interface {
	// Insert stores a delivery record. The ID is assigned by the store.
	Insert(ctx context.Context, rec *Record) error

	// List returns the most recent records, newest first.
	List(ctx context.Context, limit int) ([]*Record, error)

	// Count returns the total number of delivery records.
	Count(ctx context.Context) (int, error)
}

// InMemoryRepository is an in-memory implementation of Repository.
// Used for testing and development. Thread-safe via RWMutex.
type InMemoryRepository struct {
	mu      sync.RWMutex
	records []*Record
	nextID  int64
}

// NewInMemoryRepository creates a new in-memory delivery record store.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{nextID: 1}
}

// Insert stores a delivery record.
func (r *InMemoryRepository) Insert(ctx context.Context, rec *Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec.ID = r.nextID
	r.nextID++
	if rec.SentAt.IsZero() {
		rec.SentAt = time.Now().UTC()
	}
	recordCopy := *rec
	r.records = append(r.records, &recordCopy)
	return nil
}

// List returns the most recent records, newest first.
func (r *InMemoryRepository) List(ctx context.Context, limit int) ([]*Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if limit <= 0 || limit > len(r.records) {
		limit = len(r.records)
	}
	results := make([]*Record, 0, limit)
	for i := len(r.records) - 1; i >= 0 && len(results) < limit; i-- {
		recordCopy := *r.records[i]
		results = append(results, &recordCopy)
	}
	return results, nil
}

// Count returns the total number of delivery records.
func (r *InMemoryRepository) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records), nil
}
