package submission

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Common errors for case operations.
var (
	ErrCaseNotFound       = errors.New("case not found")
	ErrDuplicateReference = errors.New("reference number already exists")
	ErrNoFieldsToUpdate   = errors.New("no fields to update")
)

// Repository defines the interface for audit-request case persistence.
type Repository interface {
	// Insert stores a new case. The ID is generated if empty. Returns
	// ErrDuplicateReference when the reference number is already taken.
	Insert(ctx context.Context, c *Case) error

	// GetByID retrieves a case by its UUID.
	GetByID(ctx context.Context, id string) (*Case, error)

	// GetByReference retrieves a case by reference number. Lookup is
	// case-insensitive; references are stored uppercase.
	GetByReference(ctx context.Context, ref string) (*Case, error)

	// List returns a filtered, paginated page of cases, newest first.
	List(ctx context.Context, f ListFilter) (*Page, error)

	// Update applies a Patch. Returns ErrNoFieldsToUpdate for an empty
	// patch and ErrCaseNotFound when the ID does not exist.
	Update(ctx context.Context, id string, p Patch) error

	// Stats returns the stats-summary aggregates.
	Stats(ctx context.Context) (*Stats, error)

	// Dashboard returns the audit slice of the unified dashboard.
	Dashboard(ctx context.Context) (*Dashboard, error)

	// Recent returns the newest cases, trimmed for dashboard display,
	// with the submitter's name filled in.
	Recent(ctx context.Context, limit int) ([]RecentCase, error)
}

// InMemoryRepository is an in-memory implementation of Repository.
// Used for testing and development. Thread-safe via RWMutex.
type InMemoryRepository struct {
	mu    sync.RWMutex
	cases map[string]*Case
	byRef map[string]string
	now   func() time.Time
}

// NewInMemoryRepository creates a new in-memory case repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		cases: make(map[string]*Case),
		byRef: make(map[string]string),
		now:   time.Now,
	}
}

// Insert stores a new case.
func (r *InMemoryRepository) Insert(ctx context.Context, c *Case) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ref := strings.ToUpper(c.ReferenceNumber)
	if _, exists := r.byRef[ref]; exists {
		return ErrDuplicateReference
	}

	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.Status == "" {
		c.Status = StatusNew
	}
	if c.SubmittedAt.IsZero() {
		c.SubmittedAt = r.now().UTC()
	}
	c.ReferenceNumber = ref

	caseCopy := copyCase(c)
	r.cases[c.ID] = caseCopy
	r.byRef[ref] = c.ID
	return nil
}

// GetByID retrieves a case by its UUID.
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Case, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.cases[id]
	if !ok {
		return nil, ErrCaseNotFound
	}
	return copyCase(c), nil
}

// GetByReference retrieves a case by reference number.
func (r *InMemoryRepository) GetByReference(ctx context.Context, ref string) (*Case, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byRef[strings.ToUpper(strings.TrimSpace(ref))]
	if !ok {
		return nil, ErrCaseNotFound
	}
	return copyCase(r.cases[id]), nil
}

// List returns a filtered, paginated page of cases.
func (r *InMemoryRepository) List(ctx context.Context, f ListFilter) (*Page, error) {
	f.Normalize()

	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*Case, 0, len(r.cases))
	for _, c := range r.cases {
		if f.Status != "" && c.Status != f.Status {
			continue
		}
		if f.ThreatLevel != "" && c.ThreatLevel != f.ThreatLevel {
			continue
		}
		if f.Search != "" && !matchesSearch(c, f.Search) {
			continue
		}
		matched = append(matched, c)
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

	items := make([]*Case, 0, end-start)
	for _, c := range matched[start:end] {
		items = append(items, copyCase(c))
	}
	return &Page{Total: total, Page: f.Page, Pages: pages, Items: items}, nil
}

func matchesSearch(c *Case, search string) bool {
	s := strings.ToLower(search)
	return strings.Contains(strings.ToLower(c.FirstName), s) ||
		strings.Contains(strings.ToLower(c.LastName), s) ||
		strings.Contains(strings.ToLower(c.OrganisationName), s) ||
		strings.Contains(strings.ToLower(c.ReferenceNumber), s)
}

// Update applies a Patch.
func (r *InMemoryRepository) Update(ctx context.Context, id string, p Patch) error {
	if p.IsZero() {
		return ErrNoFieldsToUpdate
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.cases[id]
	if !ok {
		return ErrCaseNotFound
	}
	if p.Status != nil {
		c.Status = *p.Status
	}
	if p.AssignedTo != nil {
		c.AssignedTo = *p.AssignedTo
	}
	if p.InternalNotes != nil {
		c.InternalNotes = *p.InternalNotes
	}
	if p.AcknowledgedAt != nil {
		t := *p.AcknowledgedAt
		c.AcknowledgedAt = &t
	}
	if p.AcknowledgedBy != nil {
		c.AcknowledgedBy = *p.AcknowledgedBy
	}
	if p.ResolvedAt != nil {
		t := *p.ResolvedAt
		c.ResolvedAt = &t
	}
	return nil
}

// Stats returns the stats-summary aggregates.
func (r *InMemoryRepository) Stats(ctx context.Context) (*Stats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := &Stats{
		ByStatus: []StatusCount{},
		ByThreat: []ThreatCount{},
		Recent:   []RecentCase{},
	}
	byStatus := make(map[string]int)
	byThreat := make(map[string]int)
	today := r.now().UTC().Truncate(24 * time.Hour)

	all := make([]*Case, 0, len(r.cases))
	for _, c := range r.cases {
		all = append(all, c)
		stats.Total++
		byStatus[c.Status]++
		if c.ThreatLevel != "" {
			byThreat[c.ThreatLevel]++
		}
		if c.Status == StatusNew {
			stats.New++
		}
		switch c.ThreatLevel {
		case ThreatCritical:
			stats.Critical++
		case ThreatHigh:
			stats.High++
		}
		if !c.SubmittedAt.UTC().Before(today) {
			stats.Today++
		}
	}

	for status, n := range byStatus {
		stats.ByStatus = append(stats.ByStatus, StatusCount{Status: status, Count: n})
	}
	sort.Slice(stats.ByStatus, func(i, j int) bool { return stats.ByStatus[i].Status < stats.ByStatus[j].Status })
	for level, n := range byThreat {
		stats.ByThreat = append(stats.ByThreat, ThreatCount{ThreatLevel: level, Count: n})
	}
	sort.Slice(stats.ByThreat, func(i, j int) bool { return stats.ByThreat[i].ThreatLevel < stats.ByThreat[j].ThreatLevel })

	sort.Slice(all, func(i, j int) bool { return all[i].SubmittedAt.After(all[j].SubmittedAt) })
	for i, c := range all {
		if i == 5 {
			break
		}
		stats.Recent = append(stats.Recent, RecentCase{
			ReferenceNumber:  c.ReferenceNumber,
			ThreatLevel:      c.ThreatLevel,
			Status:           c.Status,
			OrganisationName: c.OrganisationName,
			SubmittedAt:      c.SubmittedAt,
		})
	}
	return stats, nil
}

// Dashboard returns the audit slice of the unified dashboard.
func (r *InMemoryRepository) Dashboard(ctx context.Context) (*Dashboard, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d := &Dashboard{
		ByThreat: []ThreatCount{},
		ByStatus: []StatusCount{},
		ByRegion: []RegionCount{},
	}
	byStatus := make(map[string]int)
	byThreat := make(map[string]int)
	byRegion := make(map[string]int)
	now := r.now().UTC()
	today := now.Truncate(24 * time.Hour)
	weekAgo := now.Add(-7 * 24 * time.Hour)

	for _, c := range r.cases {
		d.Total++
		byStatus[c.Status]++
		if c.ThreatLevel != "" {
			byThreat[c.ThreatLevel]++
		}
		if c.StateRegion != "" {
			byRegion[c.StateRegion]++
		}
		if c.Status == StatusNew {
			d.New++
		}
		if c.ThreatLevel == ThreatCritical && c.Status != StatusResolved && c.Status != StatusClosed {
			d.Critical++
		}
		if !c.SubmittedAt.UTC().Before(today) {
			d.Today++
		}
		if !c.SubmittedAt.UTC().Before(weekAgo) {
			d.ThisWeek++
		}
	}

	for status, n := range byStatus {
		d.ByStatus = append(d.ByStatus, StatusCount{Status: status, Count: n})
	}
	sort.Slice(d.ByStatus, func(i, j int) bool { return d.ByStatus[i].Count > d.ByStatus[j].Count })
	for level, n := range byThreat {
		d.ByThreat = append(d.ByThreat, ThreatCount{ThreatLevel: level, Count: n})
	}
	sort.Slice(d.ByThreat, func(i, j int) bool { return d.ByThreat[i].Count > d.ByThreat[j].Count })
	for region, n := range byRegion {
		d.ByRegion = append(d.ByRegion, RegionCount{StateRegion: region, Count: n})
	}
	sort.Slice(d.ByRegion, func(i, j int) bool { return d.ByRegion[i].Count > d.ByRegion[j].Count })
	if len(d.ByRegion) > 10 {
		d.ByRegion = d.ByRegion[:10]
	}
	return d, nil
}

// Recent returns the newest cases with the submitter's name filled in.
func (r *InMemoryRepository) Recent(ctx context.Context, limit int) ([]RecentCase, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*Case, 0, len(r.cases))
	for _, c := range r.cases {
		all = append(all, c)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].SubmittedAt.After(all[j].SubmittedAt) })

	recent := make([]RecentCase, 0, limit)
	for _, c := range all {
		if len(recent) == limit {
			break
		}
		recent = append(recent, RecentCase{
			ReferenceNumber:  c.ReferenceNumber,
			ThreatLevel:      c.ThreatLevel,
			Status:           c.Status,
			OrganisationName: c.OrganisationName,
			Contact:          strings.TrimSpace(c.FirstName + " " + c.LastName),
			SubmittedAt:      c.SubmittedAt,
		})
	}
	return recent, nil
}

func copyCase(c *Case) *Case {
	caseCopy := *c
	caseCopy.Sectors = append([]string(nil), c.Sectors...)
	caseCopy.ThreatActors = append([]string(nil), c.ThreatActors...)
	caseCopy.ServicesRequired = append([]string(nil), c.ServicesRequired...)
	if c.AcknowledgedAt != nil {
		t := *c.AcknowledgedAt
		caseCopy.AcknowledgedAt = &t
	}
	if c.ResolvedAt != nil {
		t := *c.ResolvedAt
		caseCopy.ResolvedAt = &t
	}
	return &caseCopy
}
