package career

import (
	"context"
	"database/sql"
	"encoding/json"
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

const applicationColumns = `
	id, reference_number, submitted_at, status,
	first_name, last_name, email, phone,
	COALESCE(date_of_birth, ''), COALESCE(state_of_origin, ''), COALESCE(current_location, ''),
	position_applied, COALESCE(position_code, ''),
	COALESCE(highest_education, ''), COALESCE(years_experience, 0),
	military_background, COALESCE(military_branch, ''), COALESCE(military_rank, ''), COALESCE(military_years, 0),
	COALESCE(certifications, '[]'), COALESCE(languages, '[]'),
	COALESCE(cover_letter, ''), COALESCE(linkedin_url, ''), COALESCE(referral_source, ''),
	COALESCE(ip_address, ''), COALESCE(user_agent, ''),
	interviewed_at, hired_at, COALESCE(internal_notes, ''), COALESCE(assigned_to, '')`

func scanApplication(row interface{ Scan(...any) error }) (*Application, error) {
	var a Application
	var certifications, languages string
	var interviewedAt, hiredAt sql.NullTime
	err := row.Scan(
		&a.ID, &a.ReferenceNumber, &a.SubmittedAt, &a.Status,
		&a.FirstName, &a.LastName, &a.Email, &a.Phone,
		&a.DateOfBirth, &a.StateOfOrigin, &a.CurrentLocation,
		&a.PositionApplied, &a.PositionCode,
		&a.HighestEducation, &a.YearsExperience,
		&a.MilitaryBackground, &a.MilitaryBranch, &a.MilitaryRank, &a.MilitaryYears,
		&certifications, &languages,
		&a.CoverLetter, &a.LinkedinURL, &a.ReferralSource,
		&a.IPAddress, &a.UserAgent,
		&interviewedAt, &hiredAt, &a.InternalNotes, &a.AssignedTo,
	)
	if err != nil {
		return nil, err
	}
	if interviewedAt.Valid {
		a.InterviewedAt = &interviewedAt.Time
	}
	if hiredAt.Valid {
		a.HiredAt = &hiredAt.Time
	}
	a.Certifications = decodeStringList(certifications)
	a.Languages = decodeStringList(languages)
	return &a, nil
}

func decodeStringList(raw string) []string {
	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err != nil || list == nil {
		return []string{}
	}
	return list
}

func encodeStringList(list []string) string {
	if list == nil {
		list = []string{}
	}
	b, _ := json.Marshal(list)
	return string(b)
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// Insert stores a new application.
func (r *PostgresRepository) Insert(ctx context.Context, a *Application) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.Status == "" {
		a.Status = StatusNew
	}
	a.ReferenceNumber = strings.ToUpper(a.ReferenceNumber)

	query := `
		INSERT INTO career_applications (
			id, reference_number, status,
			first_name, last_name, email, phone,
			date_of_birth, state_of_origin, current_location,
			position_applied, position_code, highest_education,
			years_experience, military_background, military_branch,
			military_rank, military_years, certifications, languages,
			cover_letter, linkedin_url, referral_source, ip_address, user_agent
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
			$14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25
		)
		RETURNING submitted_at
	`
	err := r.db.QueryRowContext(ctx, query,
		a.ID, a.ReferenceNumber, a.Status,
		a.FirstName, a.LastName, a.Email, a.Phone,
		nullable(a.DateOfBirth), nullable(a.StateOfOrigin), nullable(a.CurrentLocation),
		a.PositionApplied, nullable(a.PositionCode), nullable(a.HighestEducation),
		a.YearsExperience, a.MilitaryBackground, nullable(a.MilitaryBranch),
		nullable(a.MilitaryRank), a.MilitaryYears, encodeStringList(a.Certifications), encodeStringList(a.Languages),
		nullable(a.CoverLetter), nullable(a.LinkedinURL), nullable(a.ReferralSource), nullable(a.IPAddress), nullable(a.UserAgent),
	).Scan(&a.SubmittedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return ErrDuplicateReference
		}
		return fmt.Errorf("failed to insert application: %w", err)
	}
	return nil
}

// GetByID retrieves an application by its UUID.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM career_applications WHERE id = $1`
	a, err := scanApplication(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrApplicationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get application: %w", err)
	}
	return a, nil
}

// List returns a filtered, paginated page of applications.
func (r *PostgresRepository) List(ctx context.Context, f ListFilter) (*Page, error) {
	f.Normalize()

	where := []string{"1=1"}
	var args []any
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.PositionCode != "" {
		args = append(args, f.PositionCode)
		where = append(where, fmt.Sprintf("position_code = $%d", len(args)))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		n := len(args)
		where = append(where, fmt.Sprintf(
			"(first_name ILIKE $%d OR last_name ILIKE $%d OR email ILIKE $%d OR reference_number ILIKE $%d)",
			n, n, n, n))
	}
	whereClause := strings.Join(where, " AND ")

	var total int
	countQuery := `SELECT COUNT(*) FROM career_applications WHERE ` + whereClause
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count applications: %w", err)
	}

	args = append(args, f.Limit, (f.Page-1)*f.Limit)
	query := fmt.Sprintf(`SELECT %s FROM career_applications WHERE %s ORDER BY submitted_at DESC LIMIT $%d OFFSET $%d`,
		applicationColumns, whereClause, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	defer rows.Close()

	items := make([]*Application, 0, f.Limit)
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		items = append(items, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &Page{
		Total: total,
		Page:  f.Page,
		Pages: (total + f.Limit - 1) / f.Limit,
		Items: items,
	}, nil
}

// Update applies a Patch.
func (r *PostgresRepository) Update(ctx context.Context, id string, p Patch) error {
	if p.IsZero() {
		return ErrNoFieldsToUpdate
	}

	var sets []string
	var args []any
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if p.Status != nil {
		add("status", *p.Status)
	}
	if p.AssignedTo != nil {
		add("assigned_to", nullable(*p.AssignedTo))
	}
	if p.InternalNotes != nil {
		add("internal_notes", nullable(*p.InternalNotes))
	}
	if p.InterviewedAt != nil {
		add("interviewed_at", *p.InterviewedAt)
	}
	if p.HiredAt != nil {
		add("hired_at", *p.HiredAt)
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE career_applications SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(args))

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update application: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrApplicationNotFound
	}
	return nil
}

// Stats returns the dashboard aggregates.
func (r *PostgresRepository) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		ByPosition: []PositionCount{},
		ByStatus:   []StatusCount{},
	}

	countsQuery := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'new'),
			COUNT(*) FILTER (WHERE submitted_at >= NOW() - INTERVAL '7 days')
		FROM career_applications
	`
	if err := r.db.QueryRowContext(ctx, countsQuery).Scan(&stats.Total, &stats.New, &stats.ThisWeek); err != nil {
		return nil, fmt.Errorf("failed to aggregate applications: %w", err)
	}

	positionRows, err := r.db.QueryContext(ctx, `
		SELECT COALESCE(position_code, ''), position_applied, COUNT(*)
		FROM career_applications GROUP BY position_code, position_applied ORDER BY position_code`)
	if err != nil {
		return nil, fmt.Errorf("failed to group applications by position: %w", err)
	}
	defer positionRows.Close()
	for positionRows.Next() {
		var pc PositionCount
		if err := positionRows.Scan(&pc.PositionCode, &pc.PositionApplied, &pc.Count); err != nil {
			return nil, err
		}
		stats.ByPosition = append(stats.ByPosition, pc)
	}
	if err := positionRows.Err(); err != nil {
		return nil, err
	}

	statusRows, err := r.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM career_applications GROUP BY status ORDER BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to group applications by status: %w", err)
	}
	defer statusRows.Close()
	for statusRows.Next() {
		var sc StatusCount
		if err := statusRows.Scan(&sc.Status, &sc.Count); err != nil {
			return nil, err
		}
		stats.ByStatus = append(stats.ByStatus, sc)
	}
	return stats, statusRows.Err()
}

// Recent returns the newest applications.
func (r *PostgresRepository) Recent(ctx context.Context, limit int) ([]RecentApplication, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT reference_number, position_applied, status,
		       TRIM(first_name || ' ' || last_name), submitted_at
		FROM career_applications ORDER BY submitted_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent applications: %w", err)
	}
	defer rows.Close()

	recent := make([]RecentApplication, 0, limit)
	for rows.Next() {
		var ra RecentApplication
		if err := rows.Scan(&ra.ReferenceNumber, &ra.PositionApplied, &ra.Status, &ra.Applicant, &ra.SubmittedAt); err != nil {
			return nil, err
		}
		recent = append(recent, ra)
	}
	return recent, rows.Err()
}
