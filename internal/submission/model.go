// Package submission holds the audit-request case model and its
// persistence layer.
package submission

import "time"

// Case statuses. New cases always start as StatusNew; the remaining
// values are set by GSOC staff from the admin surface.
const (
	StatusNew          = "new"
	StatusAcknowledged = "acknowledged"
	StatusInProgress   = "in_progress"
	StatusResolved     = "resolved"
	StatusClosed       = "closed"
)

// Threat levels, from most to least urgent.
const (
	ThreatCritical = "critical"
	ThreatHigh     = "high"
	ThreatElevated = "elevated"
	ThreatRoutine  = "routine"
)

// ValidThreatLevels is the closed set accepted at intake.
var ValidThreatLevels = map[string]bool{
	ThreatCritical: true,
	ThreatHigh:     true,
	ThreatElevated: true,
	ThreatRoutine:  true,
}

// Case is a security audit request submitted through the public intake
// form. Optional free-text fields are empty strings when not provided.
type Case struct {
	ID              string    `json:"id"`
	ReferenceNumber string    `json:"reference_number"`
	SubmittedAt     time.Time `json:"submitted_at"`
	Status          string    `json:"status"`

	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	JobTitle       string `json:"job_title,omitempty"`
	ClearanceLevel string `json:"clearance_level,omitempty"`

	PhonePrimary      string `json:"phone_primary"`
	PhoneAlternate    string `json:"phone_alternate,omitempty"`
	Email             string `json:"email"`
	ContactPreference string `json:"contact_preference,omitempty"`

	OrganisationName string   `json:"organisation_name"`
	OrganisationType string   `json:"organisation_type,omitempty"`
	StateRegion      string   `json:"state_region,omitempty"`
	SiteLocation     string   `json:"site_location,omitempty"`
	Sectors          []string `json:"sectors"`
	AssetValueRange  string   `json:"asset_value_range,omitempty"`
	ExistingProvider string   `json:"existing_provider,omitempty"`

	ThreatLevel         string   `json:"threat_level"`
	ThreatType          string   `json:"threat_type,omitempty"`
	IncidentDatetime    string   `json:"incident_datetime,omitempty"`
	AuthoritiesNotified string   `json:"authorities_notified,omitempty"`
	ThreatActors        []string `json:"threat_actors"`
	SituationSummary    string   `json:"situation_summary"`
	EstimatedImpact     string   `json:"estimated_impact,omitempty"`

	ServicesRequired []string `json:"services_required"`
	DesiredStartDate string   `json:"desired_start_date,omitempty"`
	ContractDuration string   `json:"contract_duration,omitempty"`
	BudgetRange      string   `json:"budget_range,omitempty"`
	AdditionalNotes  string   `json:"additional_notes,omitempty"`

	IPAddress string `json:"ip_address,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`

	AcknowledgedAt *time.Time `json:"acknowledged_at"`
	AcknowledgedBy string     `json:"acknowledged_by,omitempty"`
	ResolvedAt     *time.Time `json:"resolved_at"`
	InternalNotes  string     `json:"internal_notes,omitempty"`
	AssignedTo     string     `json:"assigned_to,omitempty"`
}

// Patch carries the fields staff may change on an existing case. Nil
// fields are left untouched.
type Patch struct {
	Status         *string    `json:"status"`
	AssignedTo     *string    `json:"assigned_to"`
	InternalNotes  *string    `json:"internal_notes"`
	AcknowledgedAt *time.Time `json:"acknowledged_at"`
	AcknowledgedBy *string    `json:"acknowledged_by"`
	ResolvedAt     *time.Time `json:"resolved_at"`
}

// IsZero reports whether the patch carries no changes.
func (p Patch) IsZero() bool {
	return p.Status == nil && p.AssignedTo == nil && p.InternalNotes == nil &&
		p.AcknowledgedAt == nil && p.AcknowledgedBy == nil && p.ResolvedAt == nil
}

// ListFilter narrows and pages an admin listing.
type ListFilter struct {
	Status      string
	ThreatLevel string
	Search      string
	Page        int
	Limit       int
}

// Normalize clamps paging values into their allowed ranges.
func (f *ListFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
}

// Page is one page of an admin listing.
type Page struct {
	Total int     `json:"total"`
	Page  int     `json:"page"`
	Pages int     `json:"pages"`
	Items []*Case `json:"data"`
}

// StatusCount is one row of a group-by-status aggregate.
type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"c"`
}

// ThreatCount is one row of a group-by-threat-level aggregate.
type ThreatCount struct {
	ThreatLevel string `json:"threat_level"`
	Count       int    `json:"c"`
}

// RegionCount is one row of a group-by-region aggregate.
type RegionCount struct {
	StateRegion string `json:"state_region"`
	Count       int    `json:"c"`
}

// RecentCase is the trimmed shape used in dashboard summaries. Contact
// is only filled on the unified dashboard.
type RecentCase struct {
	ReferenceNumber  string    `json:"reference_number"`
	ThreatLevel      string    `json:"threat_level"`
	Status           string    `json:"status"`
	OrganisationName string    `json:"organisation_name"`
	Contact          string    `json:"contact,omitempty"`
	SubmittedAt      time.Time `json:"submitted_at"`
}

// Stats is the aggregate view behind GET /api/audit/stats/summary.
type Stats struct {
	Total    int           `json:"total"`
	New      int           `json:"new"`
	Critical int           `json:"critical"`
	High     int           `json:"high"`
	Today    int           `json:"today"`
	ByStatus []StatusCount `json:"by_status"`
	ByThreat []ThreatCount `json:"by_threat"`
	Recent   []RecentCase  `json:"recent"`
}

// Dashboard is the audit slice of the unified admin dashboard. Critical
// here counts open critical cases only.
type Dashboard struct {
	Total    int           `json:"total"`
	New      int           `json:"new"`
	Critical int           `json:"critical"`
	Today    int           `json:"today"`
	ThisWeek int           `json:"this_week"`
	ByThreat []ThreatCount `json:"by_threat"`
	ByStatus []StatusCount `json:"by_status"`
	ByRegion []RegionCount `json:"by_sector"`
}
