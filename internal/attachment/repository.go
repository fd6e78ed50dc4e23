package attachment

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidKind is returned for submission types outside the known set.
var ErrInvalidKind = errors.New("invalid submission type")

// Repository defines the interface for attachment metadata persistence.
type Repository interface {
	// Insert stores a new attachment record. The ID is generated if empty.
	Insert(ctx context.Context, a *Attachment) error

	// ListBySubmission returns the attachments of one submission, in
	// upload order.
	ListBySubmission(ctx context.Context, submissionID, submissionType string) ([]*Attachment, error)

	// CountAll returns the total number of stored attachment records.
	CountAll(ctx context.Context) (int, error)
}

// InMemoryRepository is an in-memory implementation of Repository.
// Used for testing and development. Thread-safe via RWMutex.
type InMemoryRepository struct {
	mu      sync.RWMutex
	records []*Attachment
}

// NewInMemoryRepository creates a new in-memory attachment repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{}
}

// Insert stores a new attachment record.
func (r *InMemoryRepository) Insert(ctx context.Context, a *Attachment) error {
	if a.SubmissionType != KindAudit && a.SubmissionType != KindCareers {
		return ErrInvalidKind
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.UploadedAt.IsZero() {
		a.UploadedAt = time.Now().UTC()
	}
	recordCopy := *a
	r.records = append(r.records, &recordCopy)
	return nil
}

// ListBySubmission returns the attachments of one submission.
func (r *InMemoryRepository) ListBySubmission(ctx context.Context, submissionID, submissionType string) ([]*Attachment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	results := make([]*Attachment, 0, 4)
	for _, a := range r.records {
		if a.SubmissionID == submissionID && a.SubmissionType == submissionType {
			recordCopy := *a
			results = append(results, &recordCopy)
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].UploadedAt.Before(results[j].UploadedAt)
	})
	return results, nil
}

// CountAll returns the total number of stored attachment records.
func (r *InMemoryRepository) CountAll(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records), nil
}
