package notify

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresRepository implements Repository backed by PostgreSQL.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a new PostgresRepository.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// Insert stores a delivery record.
func (r *PostgresRepository) Insert(ctx context.Context, rec *Record) error {
	query := `
		INSERT INTO email_log (recipient, subject, template, entity_type, entity_id, status, error_message)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, sent_at
	`
	err := r.db.QueryRowContext(ctx, query,
		rec.Recipient, rec.Subject, nullable(rec.Template),
		nullable(rec.EntityType), nullable(rec.EntityID),
		rec.Status, nullable(rec.ErrorMessage),
	).Scan(&rec.ID, &rec.SentAt)
	if err != nil {
		return fmt.Errorf("failed to insert delivery record: %w", err)
	}
	return nil
}

// List returns the most recent records, newest first.
func (r *PostgresRepository) List(ctx context.Context, limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, sent_at, recipient, subject, COALESCE(template, ''),
		       COALESCE(entity_type, ''), COALESCE(entity_id, ''),
		       status, COALESCE(error_message, '')
		FROM email_log
		ORDER BY id DESC
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list delivery records: %w", err)
	}
	defer rows.Close()

	var results []*Record
	for rows.Next() {
		var rec Record
		err := rows.Scan(&rec.ID, &rec.SentAt, &rec.Recipient, &rec.Subject, &rec.Template,
			&rec.EntityType, &rec.EntityID, &rec.Status, &rec.ErrorMessage)
		if err != nil {
			return nil, fmt.Errorf("failed to scan delivery record: %w", err)
		}
		results = append(results, &rec)
	}
	return results, rows.Err()
}

// Count returns the total number of delivery records.
func (r *PostgresRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM email_log`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count delivery records: %w", err)
	}
	return n, nil
}
