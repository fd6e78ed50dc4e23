package staff

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Common errors for staff account operations.
var (
	ErrAccountNotFound = errors.New("staff account not found")
	ErrDuplicateEmail  = errors.New("email already exists")
)

// Repository defines the interface for staff account operations.
type Repository interface {
	// Create inserts a new account. The ID is generated if empty.
	// Returns ErrDuplicateEmail when the email is already taken.
	Create(ctx context.Context, a *Account) error

	// GetByID retrieves an account by its UUID.
	GetByID(ctx context.Context, id string) (*Account, error)

	// GetByEmail retrieves an account by its normalized email.
	GetByEmail(ctx context.Context, email string) (*Account, error)

	// List returns all accounts ordered by creation time, oldest first.
	List(ctx context.Context) ([]*Account, error)

	// Update applies a Patch to the account. Nil fields are untouched.
	Update(ctx context.Context, id string, p Patch) error

	// RecordLogin bumps last_login and login_count after a successful
	// authentication.
	RecordLogin(ctx context.Context, id string) error
}

// InMemoryRepository is an in-memory implementation of Repository.
// Used for testing and development. Thread-safe via RWMutex.
type InMemoryRepository struct {
	mu       sync.RWMutex
	accounts map[string]*Account
	byEmail  map[string]string
}

// NewInMemoryRepository creates a new in-memory staff repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		accounts: make(map[string]*Account),
		byEmail:  make(map[string]string),
	}
}

// Create inserts a new account.
func (r *InMemoryRepository) Create(ctx context.Context, a *Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	email := strings.ToLower(strings.TrimSpace(a.Email))
	if _, exists := r.byEmail[email]; exists {
		return ErrDuplicateEmail
	}

	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	a.Email = email
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	accountCopy := *a
	r.accounts[a.ID] = &accountCopy
	r.byEmail[email] = a.ID
	return nil
}

// GetByID retrieves an account by its UUID.
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.accounts[id]
	if !ok {
		return nil, ErrAccountNotFound
	}
	accountCopy := *a
	return &accountCopy, nil
}

// GetByEmail retrieves an account by its normalized email.
func (r *InMemoryRepository) GetByEmail(ctx context.Context, email string) (*Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, ErrAccountNotFound
	}
	accountCopy := *r.accounts[id]
	return &accountCopy, nil
}

// List returns all accounts ordered by creation time, oldest first.
func (r *InMemoryRepository) List(ctx context.Context) ([]*Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	results := make([]*Account, 0, len(r.accounts))
	for _, a := range r.accounts {
		accountCopy := *a
		results = append(results, &accountCopy)
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].CreatedAt.Equal(results[j].CreatedAt) {
			return results[i].ID < results[j].ID
		}
		return results[i].CreatedAt.Before(results[j].CreatedAt)
	})
	return results, nil
}

// Update applies a Patch to the account.
func (r *InMemoryRepository) Update(ctx context.Context, id string, p Patch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.accounts[id]
	if !ok {
		return ErrAccountNotFound
	}
	if p.Role != nil {
		a.Role = *p.Role
	}
	if p.IsActive != nil {
		a.IsActive = *p.IsActive
	}
	return nil
}

// RecordLogin bumps last_login and login_count.
func (r *InMemoryRepository) RecordLogin(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.accounts[id]
	if !ok {
		return ErrAccountNotFound
	}
	now := time.Now().UTC()
	a.LastLogin = &now
	a.LoginCount++
	return nil
}
