package career

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Common errors for application operations.
var (
	ErrApplicationNotFound = errors.New("application not found")
	ErrDuplicateReference  = errors.New("reference number already exists")
	ErrNoFieldsToUpdate    = errors.New("no fields to update")
)

// Repository defines the interface for career application persistence.
type Repository interface {
	// Insert stores a new application. The ID is generated if empty.
	// Returns ErrDuplicateReference when the reference number is taken.
	Insert(ctx context.Context, a *Application) error

	// GetByID retrieves an application by its UUID.
	GetByID(ctx context.Context, id string) (*Application, error)

	// List returns a filtered, paginated page of applications, newest first.
	List(ctx context.Context, f ListFilter) (*Page, error)

	// Update applies a Patch. Returns ErrNoFieldsToUpdate for an empty
	// patch and ErrApplicationNotFound when the ID does not exist.
	Update(ctx context.Context, id string, p Patch) error

	// Stats returns the dashboard aggregates.
	Stats(ctx context.Context) (*Stats, error)

	// Recent returns the newest applications, trimmed for dashboard
	// display.
	Recent(ctx context.Context, limit int) ([]RecentApplication, error)
}

// InMemoryRepository is an in-memory implementation of Repository.
// Used for testing and development. Thread-safe via RWMutex.
type InMemoryRepository struct {
	mu    sync.RWMutex
	apps  map[string]*Application
	byRef map[string]string
	now   func() time.Time
}

// NewInMemoryRepository creates a new in-memory application repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		apps:  make(map[string]*Application),
		byRef: make(map[string]string),
		now:   time.Now,
	}
}

// Insert stores a new application.
func (r *InMemoryRepository) Insert(ctx context.Context, a *Application) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ref := strings.ToUpper(a.ReferenceNumber)
	if _, exists := r.byRef[ref]; exists {
		return ErrDuplicateReference
	}

	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.Status == "" {
		a.Status = StatusNew
	}
	if a.SubmittedAt.IsZero() {
		a.SubmittedAt = r.now().UTC()
	}
	a.ReferenceNumber = ref

	r.apps[a.ID] = copyApplication(a)
	r.byRef[ref] = a.ID
	return nil
}

// GetByID retrieves an application by its UUID.
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Application, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.apps[id]
	if !ok {
		return nil, ErrApplicationNotFound
	}
	return copyApplication(a), nil
}

// List returns a filtered, paginated page of applications.
func (r *InMemoryRepository) List(ctx context.Context, f ListFilter) (*Page, error) {
	f.Normalize()

	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*Application, 0, len(r.apps))
	for _, a := range r.apps {
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		if f.PositionCode != "" && a.PositionCode != f.PositionCode {
			continue
		}
		if f.Search != "" && !matchesSearch(a, f.Search) {
			continue
		}
		matched = append(matched, a)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].SubmittedAt.After(matched[j].SubmittedAt)
	})

	total := len(matched)
	pages := (total + f.Limit - 1) / f.Limit
	start := (f.Page - 1) * f.Limit
	if start > total {
		start = total
	}
	end := start + f.Limit
	if end > total {
		end = total
	}

	items := make([]*Application, 0, end-start)
	for _, a := range matched[start:end] {
		items = append(items, copyApplication(a))
	}
	return &Page{Total: total, Page: f.Page, Pages: pages, Items: items}, nil
}

func matchesSearch(a *Application, search string) bool {
	s := strings.ToLower(search)
	return strings.Contains(strings.ToLower(a.FirstName), s) ||
		strings.Contains(strings.ToLower(a.LastName), s) ||
		strings.Contains(strings.ToLower(a.Email), s) ||
		strings.Contains(strings.ToLower(a.ReferenceNumber), s)
}

// Update applies a Patch.
func (r *InMemoryRepository) Update(ctx context.Context, id string, p Patch) error {
	if p.IsZero() {
		return ErrNoFieldsToUpdate
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.apps[id]
	if !ok {
		return ErrApplicationNotFound
	}
	if p.Status != nil {
		a.Status = *p.Status
	}
	if p.AssignedTo != nil {
		a.AssignedTo = *p.AssignedTo
	}
	if p.InternalNotes != nil {
		a.InternalNotes = *p.InternalNotes
	}
	if p.InterviewedAt != nil {
		t := *p.InterviewedAt
		a.InterviewedAt = &t
	}
	if p.HiredAt != nil {
		t := *p.HiredAt
		a.HiredAt = &t
	}
	return nil
}

// Stats returns the dashboard aggregates.
func (r *InMemoryRepository) Stats(ctx context.Context) (*Stats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := &Stats{
		ByPosition: []PositionCount{},
		ByStatus:   []StatusCount{},
	}
	byStatus := make(map[string]int)
	type positionKey struct{ code, title string }
	byPosition := make(map[positionKey]int)
	weekAgo := r.now().UTC().Add(-7 * 24 * time.Hour)

	for _, a := range r.apps {
		stats.Total++
		byStatus[a.Status]++
		byPosition[positionKey{a.PositionCode, a.PositionApplied}]++
		if a.Status == StatusNew {
			stats.New++
		}
		if a.SubmittedAt.UTC().After(weekAgo) {
			stats.ThisWeek++
		}
	}

	for status, n := range byStatus {
		stats.ByStatus = append(stats.ByStatus, StatusCount{Status: status, Count: n})
	}
	sort.Slice(stats.ByStatus, func(i, j int) bool { return stats.ByStatus[i].Status < stats.ByStatus[j].Status })
	for pos, n := range byPosition {
		stats.ByPosition = append(stats.ByPosition, PositionCount{
			PositionCode:    pos.code,
			PositionApplied: pos.title,
			Count:           n,
		})
	}
	sort.Slice(stats.ByPosition, func(i, j int) bool {
		return stats.ByPosition[i].PositionCode < stats.ByPosition[j].PositionCode
	})
	return stats, nil
}

// Recent returns the newest applications.
func (r *InMemoryRepository) Recent(ctx context.Context, limit int) ([]RecentApplication, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*Application, 0, len(r.apps))
	for _, a := range r.apps {
		all = append(all, a)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].SubmittedAt.After(all[j].SubmittedAt) })

	recent := make([]RecentApplication, 0, limit)
	for _, a := range all {
		if len(recent) == limit {
			break
		}
		recent = append(recent, RecentApplication{
			ReferenceNumber: a.ReferenceNumber,
			PositionApplied: a.PositionApplied,
			Status:          a.Status,
			Applicant:       strings.TrimSpace(a.FirstName + " " + a.LastName),
			SubmittedAt:     a.SubmittedAt,
		})
	}
	return recent, nil
}

func copyApplication(a *Application) *Application {
	appCopy := *a
	appCopy.Certifications = append([]string(nil), a.Certifications...)
	appCopy.Languages = append([]string(nil), a.Languages...)
	if a.InterviewedAt != nil {
		t := *a.InterviewedAt
		appCopy.InterviewedAt = &t
	}
	if a.HiredAt != nil {
		t := *a.HiredAt
		appCopy.HiredAt = &t
	}
	return &appCopy
}
