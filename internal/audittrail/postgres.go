package audittrail

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresRepository implements Repository backed by PostgreSQL.
// The audit_log table only ever receives INSERTs.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a new PostgresRepository.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Record appends an event.
func (r *PostgresRepository) Record(ctx context.Context, e Entry) (*Event, error) {
	if e.Action == "" {
		return nil, ErrInvalidAction
	}

	query := `
		INSERT INTO audit_log (admin_id, action, entity_type, entity_id, details, ip_address)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, timestamp
	`
	event := &Event{
		AdminID:    e.AdminID,
		Action:     e.Action,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		Details:    e.Details,
		IPAddress:  e.IPAddress,
	}

	var adminID any
	if e.AdminID != nil {
		adminID = *e.AdminID
	}
	err := r.db.QueryRowContext(ctx, query, adminID, e.Action, nullable(e.EntityType), nullable(e.EntityID), nullable(e.Details), nullable(e.IPAddress)).
		Scan(&event.ID, &event.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("failed to record audit event: %w", err)
	}
	return event, nil
}

// List retrieves events newest first, joined with actor display fields.
func (r *PostgresRepository) List(ctx context.Context, limit, offset int) ([]*Event, error) {
	query := `
		SELECT l.id, l.timestamp, l.admin_id, l.action,
		       COALESCE(l.entity_type, ''), COALESCE(l.entity_id, ''),
		       COALESCE(l.details, ''), COALESCE(l.ip_address, ''),
		       COALESCE(a.full_name, ''), COALESCE(a.email, '')
		FROM audit_log l
		LEFT JOIN admin_users a ON l.admin_id = a.id
		ORDER BY l.timestamp DESC, l.id DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit events: %w", err)
	}
	defer rows.Close()

	var results []*Event
	for rows.Next() {
		var e Event
		var adminID sql.NullString
		if err := rows.Scan(&e.ID, &e.Timestamp, &adminID, &e.Action,
			&e.EntityType, &e.EntityID, &e.Details, &e.IPAddress,
			&e.AdminName, &e.AdminEmail); err != nil {
			return nil, fmt.Errorf("failed to scan audit event: %w", err)
		}
		if adminID.Valid {
			e.AdminID = &adminID.String
		}
		results = append(results, &e)
	}
	return results, rows.Err()
}

// Count returns the total number of recorded events.
func (r *PostgresRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_log`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count audit events: %w", err)
	}
	return count, nil
}

// nullable converts an empty string to NULL for optional columns.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
