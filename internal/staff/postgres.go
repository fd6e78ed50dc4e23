package staff

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// PostgresRepository implements Repository backed by PostgreSQL.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a new PostgresRepository.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const accountColumns = `id, email, password_hash, full_name, role, is_active, created_at, last_login, login_count`

func scanAccount(row interface{ Scan(...any) error }) (*Account, error) {
	var a Account
	var lastLogin sql.NullTime
	err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &a.FullName, &a.Role, &a.IsActive, &a.CreatedAt, &lastLogin, &a.LoginCount)
	if err != nil {
		return nil, err
	}
	if lastLogin.Valid {
		a.LastLogin = &lastLogin.Time
	}
	return &a, nil
}

// Create inserts a new account.
func (r *PostgresRepository) Create(ctx context.Context, a *Account) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	a.Email = strings.ToLower(strings.TrimSpace(a.Email))

	query := `
		INSERT INTO admin_users (id, email, password_hash, full_name, role, is_active, created_at, login_count)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), 0)
	`
	_, err := r.db.ExecContext(ctx, query, a.ID, a.Email, a.PasswordHash, a.FullName, a.Role, a.IsActive)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to insert staff account: %w", err)
	}
	return nil
}

// GetByID retrieves an account by its UUID.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Account, error) {
	query := `SELECT ` + accountColumns + ` FROM admin_users WHERE id = $1`
	a, err := scanAccount(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get staff account: %w", err)
	}
	return a, nil
}

// GetByEmail retrieves an account by its normalized email.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*Account, error) {
	query := `SELECT ` + accountColumns + ` FROM admin_users WHERE email = $1`
	a, err := scanAccount(r.db.QueryRowContext(ctx, query, strings.ToLower(strings.TrimSpace(email))))
	if err == sql.ErrNoRows {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get staff account by email: %w", err)
	}
	return a, nil
}

// List returns all accounts ordered by creation time, oldest first.
func (r *PostgresRepository) List(ctx context.Context) ([]*Account, error) {
	query := `SELECT ` + accountColumns + ` FROM admin_users ORDER BY created_at ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list staff accounts: %w", err)
	}
	defer rows.Close()

	var results []*Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan staff account: %w", err)
		}
		results = append(results, a)
	}
	return results, rows.Err()
}

// Update applies a Patch to the account.
func (r *PostgresRepository) Update(ctx context.Context, id string, p Patch) error {
	sets := make([]string, 0, 2)
	args := make([]any, 0, 3)
	if p.Role != nil {
		args = append(args, *p.Role)
		sets = append(sets, fmt.Sprintf("role = $%d", len(args)))
	}
	if p.IsActive != nil {
		args = append(args, *p.IsActive)
		sets = append(sets, fmt.Sprintf("is_active = $%d", len(args)))
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)
	query := fmt.Sprintf(`UPDATE admin_users SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(args))

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update staff account: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// RecordLogin bumps last_login and login_count.
func (r *PostgresRepository) RecordLogin(ctx context.Context, id string) error {
	query := `UPDATE admin_users SET last_login = NOW(), login_count = login_count + 1 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to record login: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrAccountNotFound
	}
	return nil
}
