package submission

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

const caseColumns = `
	id, reference_number, submitted_at, status,
	first_name, last_name, COALESCE(job_title, ''), COALESCE(clearance_level, ''),
	phone_primary, COALESCE(phone_alternate, ''), email, COALESCE(contact_preference, ''),
	organisation_name, COALESCE(organisation_type, ''), COALESCE(state_region, ''), COALESCE(site_location, ''),
	COALESCE(sectors, '[]'), COALESCE(asset_value_range, ''), COALESCE(existing_provider, ''),
	COALESCE(threat_level, ''), COALESCE(threat_type, ''), COALESCE(incident_datetime, ''), COALESCE(authorities_notified, ''),
	COALESCE(threat_actors, '[]'), COALESCE(situation_summary, ''), COALESCE(estimated_impact, ''),
	COALESCE(services_required, '[]'), COALESCE(desired_start_date, ''), COALESCE(contract_duration, ''),
	COALESCE(budget_range, ''), COALESCE(additional_notes, ''),
	COALESCE(ip_address, ''), COALESCE(user_agent, ''),
	acknowledged_at, COALESCE(acknowledged_by, ''), resolved_at,
	COALESCE(internal_notes, ''), COALESCE(assigned_to, '')`

func scanCase(row interface{ Scan(...any) error }) (*Case, error) {
	var c Case
	var sectors, threatActors, servicesRequired string
	var acknowledgedAt, resolvedAt sql.NullTime
	err := row.Scan(
		&c.ID, &c.ReferenceNumber, &c.SubmittedAt, &c.Status,
		&c.FirstName, &c.LastName, &c.JobTitle, &c.ClearanceLevel,
		&c.PhonePrimary, &c.PhoneAlternate, &c.Email, &c.ContactPreference,
		&c.OrganisationName, &c.OrganisationType, &c.StateRegion, &c.SiteLocation,
		&sectors, &c.AssetValueRange, &c.ExistingProvider,
		&c.ThreatLevel, &c.ThreatType, &c.IncidentDatetime, &c.AuthoritiesNotified,
		&threatActors, &c.SituationSummary, &c.EstimatedImpact,
		&servicesRequired, &c.DesiredStartDate, &c.ContractDuration,
		&c.BudgetRange, &c.AdditionalNotes,
		&c.IPAddress, &c.UserAgent,
		&acknowledgedAt, &c.AcknowledgedBy, &resolvedAt,
		&c.InternalNotes, &c.AssignedTo,
	)
	if err != nil {
		return nil, err
	}
	if acknowledgedAt.Valid {
		c.AcknowledgedAt = &acknowledgedAt.Time
	}
	if resolvedAt.Valid {
		c.ResolvedAt = &resolvedAt.Time
	}
	c.Sectors = decodeStringList(sectors)
	c.ThreatActors = decodeStringList(threatActors)
	c.ServicesRequired = decodeStringList(servicesRequired)
	return &c, nil
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

// Insert stores a new case.
func (r *PostgresRepository) Insert(ctx context.Context, c *Case) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.Status == "" {
		c.Status = StatusNew
	}
	c.ReferenceNumber = strings.ToUpper(c.ReferenceNumber)

	query := `
		INSERT INTO audit_submissions (
			id, reference_number, status,
			first_name, last_name, job_title, clearance_level,
			phone_primary, phone_alternate, email, contact_preference,
			organisation_name, organisation_type, state_region, site_location,
			sectors, asset_value_range, existing_provider,
			threat_level, threat_type, incident_datetime, authorities_notified,
			threat_actors, situation_summary, estimated_impact,
			services_required, desired_start_date, contract_duration,
			budget_range, additional_notes, ip_address, user_agent
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
			$17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31, $32
		)
		RETURNING submitted_at
	`
	err := r.db.QueryRowContext(ctx, query,
		c.ID, c.ReferenceNumber, c.Status,
		c.FirstName, c.LastName, nullable(c.JobTitle), nullable(c.ClearanceLevel),
		c.PhonePrimary, nullable(c.PhoneAlternate), c.Email, nullable(c.ContactPreference),
		c.OrganisationName, nullable(c.OrganisationType), nullable(c.StateRegion), nullable(c.SiteLocation),
		encodeStringList(c.Sectors), nullable(c.AssetValueRange), nullable(c.ExistingProvider),
		nullable(c.ThreatLevel), nullable(c.ThreatType), nullable(c.IncidentDatetime), nullable(c.AuthoritiesNotified),
		encodeStringList(c.ThreatActors), nullable(c.SituationSummary), nullable(c.EstimatedImpact),
		encodeStringList(c.ServicesRequired), nullable(c.DesiredStartDate), nullable(c.ContractDuration),
		nullable(c.BudgetRange), nullable(c.AdditionalNotes), nullable(c.IPAddress), nullable(c.UserAgent),
	).Scan(&c.SubmittedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return ErrDuplicateReference
		}
		return fmt.Errorf("failed to insert case: %w", err)
	}
	return nil
}

// GetByID retrieves a case by its UUID.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Case, error) {
	query := `SELECT ` + caseColumns + ` FROM audit_submissions WHERE id = $1`
	c, err := scanCase(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrCaseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get case: %w", err)
	}
	return c, nil
}

// GetByReference retrieves a case by reference number.
func (r *PostgresRepository) GetByReference(ctx context.Context, ref string) (*Case, error) {
	query := `SELECT ` + caseColumns + ` FROM audit_submissions WHERE reference_number = $1`
	c, err := scanCase(r.db.QueryRowContext(ctx, query, strings.ToUpper(strings.TrimSpace(ref))))
	if err == sql.ErrNoRows {
		return nil, ErrCaseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get case by reference: %w", err)
	}
	return c, nil
}

func buildListWhere(f ListFilter) (string, []any) {
	where := []string{"1=1"}
	var args []any
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.ThreatLevel != "" {
		args = append(args, f.ThreatLevel)
		where = append(where, fmt.Sprintf("threat_level = $%d", len(args)))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		n := len(args)
		where = append(where, fmt.Sprintf(
			"(first_name ILIKE $%d OR last_name ILIKE $%d OR organisation_name ILIKE $%d OR reference_number ILIKE $%d)",
			n, n, n, n))
	}
	return strings.Join(where, " AND "), args
}

// List returns a filtered, paginated page of cases.
func (r *PostgresRepository) List(ctx context.Context, f ListFilter) (*Page, error) {
	f.Normalize()
	where, args := buildListWhere(f)

	var total int
	countQuery := `SELECT COUNT(*) FROM audit_submissions WHERE ` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count cases: %w", err)
	}

	args = append(args, f.Limit, (f.Page-1)*f.Limit)
	query := fmt.Sprintf(`SELECT %s FROM audit_submissions WHERE %s ORDER BY submitted_at DESC LIMIT $%d OFFSET $%d`,
		caseColumns, where, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list cases: %w", err)
	}
	defer rows.Close()

	items := make([]*Case, 0, f.Limit)
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan case: %w", err)
		}
		items = append(items, c)
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
	if p.AcknowledgedAt != nil {
		add("acknowledged_at", *p.AcknowledgedAt)
	}
	if p.AcknowledgedBy != nil {
		add("acknowledged_by", nullable(*p.AcknowledgedBy))
	}
	if p.ResolvedAt != nil {
		add("resolved_at", *p.ResolvedAt)
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE audit_submissions SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(args))

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update case: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrCaseNotFound
	}
	return nil
}

// Stats returns the dashboard aggregates.
func (r *PostgresRepository) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		ByStatus: []StatusCount{},
		ByThreat: []ThreatCount{},
		Recent:   []RecentCase{},
	}

	countsQuery := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'new'),
			COUNT(*) FILTER (WHERE threat_level = 'critical'),
			COUNT(*) FILTER (WHERE threat_level = 'high'),
			COUNT(*) FILTER (WHERE submitted_at::date = CURRENT_DATE)
		FROM audit_submissions
	`
	err := r.db.QueryRowContext(ctx, countsQuery).
		Scan(&stats.Total, &stats.New, &stats.Critical, &stats.High, &stats.Today)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate cases: %w", err)
	}

	statusRows, err := r.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM audit_submissions GROUP BY status ORDER BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to group cases by status: %w", err)
	}
	defer statusRows.Close()
	for statusRows.Next() {
		var sc StatusCount
		if err := statusRows.Scan(&sc.Status, &sc.Count); err != nil {
			return nil, err
		}
		stats.ByStatus = append(stats.ByStatus, sc)
	}
	if err := statusRows.Err(); err != nil {
		return nil, err
	}

	threatRows, err := r.db.QueryContext(ctx,
		`SELECT threat_level, COUNT(*) FROM audit_submissions WHERE threat_level IS NOT NULL GROUP BY threat_level ORDER BY threat_level`)
	if err != nil {
		return nil, fmt.Errorf("failed to group cases by threat level: %w", err)
	}
	defer threatRows.Close()
	for threatRows.Next() {
		var tc ThreatCount
		if err := threatRows.Scan(&tc.ThreatLevel, &tc.Count); err != nil {
			return nil, err
		}
		stats.ByThreat = append(stats.ByThreat, tc)
	}
	if err := threatRows.Err(); err != nil {
		return nil, err
	}

	recentRows, err := r.db.QueryContext(ctx, `
		SELECT reference_number, COALESCE(threat_level, ''), status, organisation_name, submitted_at
		FROM audit_submissions ORDER BY submitted_at DESC LIMIT 5`)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent cases: %w", err)
	}
	defer recentRows.Close()
	for recentRows.Next() {
		var rc RecentCase
		if err := recentRows.Scan(&rc.ReferenceNumber, &rc.ThreatLevel, &rc.Status, &rc.OrganisationName, &rc.SubmittedAt); err != nil {
			return nil, err
		}
		stats.Recent = append(stats.Recent, rc)
	}
	return stats, recentRows.Err()
}

// Dashboard returns the audit slice of the unified dashboard.
func (r *PostgresRepository) Dashboard(ctx context.Context) (*Dashboard, error) {
	d := &Dashboard{
		ByThreat: []ThreatCount{},
		ByStatus: []StatusCount{},
		ByRegion: []RegionCount{},
	}

	countsQuery := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'new'),
			COUNT(*) FILTER (WHERE threat_level = 'critical' AND status NOT IN ('resolved', 'closed')),
			COUNT(*) FILTER (WHERE submitted_at::date = CURRENT_DATE),
			COUNT(*) FILTER (WHERE submitted_at >= NOW() - INTERVAL '7 days')
		FROM audit_submissions
	`
	err := r.db.QueryRowContext(ctx, countsQuery).
		Scan(&d.Total, &d.New, &d.Critical, &d.Today, &d.ThisWeek)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate cases: %w", err)
	}

	threatRows, err := r.db.QueryContext(ctx,
		`SELECT threat_level, COUNT(*) FROM audit_submissions WHERE threat_level IS NOT NULL GROUP BY threat_level ORDER BY COUNT(*) DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to group cases by threat level: %w", err)
	}
	defer threatRows.Close()
	for threatRows.Next() {
		var tc ThreatCount
		if err := threatRows.Scan(&tc.ThreatLevel, &tc.Count); err != nil {
			return nil, err
		}
		d.ByThreat = append(d.ByThreat, tc)
	}
	if err := threatRows.Err(); err != nil {
		return nil, err
	}

	statusRows, err := r.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM audit_submissions GROUP BY status ORDER BY COUNT(*) DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to group cases by status: %w", err)
	}
	defer statusRows.Close()
	for statusRows.Next() {
		var sc StatusCount
		if err := statusRows.Scan(&sc.Status, &sc.Count); err != nil {
			return nil, err
		}
		d.ByStatus = append(d.ByStatus, sc)
	}
	if err := statusRows.Err(); err != nil {
		return nil, err
	}

	regionRows, err := r.db.QueryContext(ctx, `
		SELECT state_region, COUNT(*) FROM audit_submissions
		WHERE state_region IS NOT NULL
		GROUP BY state_region ORDER BY COUNT(*) DESC LIMIT 10`)
	if err != nil {
		return nil, fmt.Errorf("failed to group cases by region: %w", err)
	}
	defer regionRows.Close()
	for regionRows.Next() {
		var rc RegionCount
		if err := regionRows.Scan(&rc.StateRegion, &rc.Count); err != nil {
			return nil, err
		}
		d.ByRegion = append(d.ByRegion, rc)
	}
	return d, regionRows.Err()
}

// Recent returns the newest cases with the submitter's name filled in.
func (r *PostgresRepository) Recent(ctx context.Context, limit int) ([]RecentCase, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT reference_number, COALESCE(threat_level, ''), status, organisation_name,
		       TRIM(first_name || ' ' || last_name), submitted_at
		FROM audit_submissions ORDER BY submitted_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent cases: %w", err)
	}
	defer rows.Close()

	recent := make([]RecentCase, 0, limit)
	for rows.Next() {
		var rc RecentCase
		if err := rows.Scan(&rc.ReferenceNumber, &rc.ThreatLevel, &rc.Status, &rc.OrganisationName, &rc.Contact, &rc.SubmittedAt); err != nil {
			return nil, err
		}
		recent = append(recent, rc)
	}
	return recent, rows.Err()
}
