package attachment

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// PostgresRepository implements Repository backed by PostgreSQL.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a new PostgresRepository.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Insert stores a new attachment record.
func (r *PostgresRepository) Insert(ctx context.Context, a *Attachment) error {
	if a.SubmissionType != KindAudit && a.SubmissionType != KindCareers {
		return ErrInvalidKind
	}
	if a.ID == "" {
		a.ID = uuid.New().String()
	}

	query := `
		INSERT INTO attachments (id, submission_id, submission_type, original_name, stored_name, mime_type, size_bytes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING uploaded_at
	`
	err := r.db.QueryRowContext(ctx, query,
		a.ID, a.SubmissionID, a.SubmissionType, a.OriginalName, a.StoredName, a.MimeType, a.SizeBytes,
	).Scan(&a.UploadedAt)
	if err != nil {
		return fmt.Errorf("failed to insert attachment: %w", err)
	}
	return nil
}

// ListBySubmission returns the attachments of one submission.
func (r *PostgresRepository) ListBySubmission(ctx context.Context, submissionID, submissionType string) ([]*Attachment, error) {
	query := `
		SELECT id, submission_id, submission_type, original_name, stored_name, COALESCE(mime_type, ''), COALESCE(size_bytes, 0), uploaded_at
		FROM attachments
		WHERE submission_id = $1 AND submission_type = $2
		ORDER BY uploaded_at ASC, id ASC
	`
	rows, err := r.db.QueryContext(ctx, query, submissionID, submissionType)
	if err != nil {
		return nil, fmt.Errorf("failed to list attachments: %w", err)
	}
	defer rows.Close()

	var results []*Attachment
	for rows.Next() {
		var a Attachment
		err := rows.Scan(&a.ID, &a.SubmissionID, &a.SubmissionType, &a.OriginalName, &a.StoredName, &a.MimeType, &a.SizeBytes, &a.UploadedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attachment: %w", err)
		}
		results = append(results, &a)
	}
	return results, rows.Err()
}

// CountAll returns the total number of stored attachment records.
func (r *PostgresRepository) CountAll(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM attachments`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count attachments: %w", err)
	}
	return n, nil
}
