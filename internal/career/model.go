// Package career holds the career-application model, the open position
// catalog and the persistence layer behind both.
package career

import "time"

// Application statuses.
const (
	StatusNew         = "new"
	StatusScreening   = "screening"
	StatusInterviewed = "interviewed"
	StatusHired       = "hired"
	StatusRejected    = "rejected"
)

// Position is one entry of the closed recruitment catalog.
type Position struct {
	Key       string `json:"key"`
	Title     string `json:"title"`
	Code      string `json:"code"`
	Vacancies int    `json:"vacancies"`
}

// Positions is the catalog of roles open for application, in display
// order. Applications referencing any other key are rejected at intake.
var Positions = []Position{
	{Key: "gsoc-operator", Title: "GSOC Surveillance Operator", Code: "GSO", Vacancies: 12},
	{Key: "rrt-lead", Title: "Rapid Response Team (RRT) Lead", Code: "RRT", Vacancies: 6},
	{Key: "k9-handler", Title: "K-9 Tactical Handler (DH 4 Certified)", Code: "K9H", Vacancies: 4},
	{Key: "infra-analyst", Title: "Strategic Infrastructure Analyst", Code: "SIA", Vacancies: 4},
}

// PositionByKey looks up a catalog entry; ok is false for unknown keys.
func PositionByKey(key string) (Position, bool) {
	for _, p := range Positions {
		if p.Key == key {
			return p, true
		}
	}
	return Position{}, false
}

// Application is a career application submitted through the public form.
type Application struct {
	ID              string    `json:"id"`
	ReferenceNumber string    `json:"reference_number"`
	SubmittedAt     time.Time `json:"submitted_at"`
	Status          string    `json:"status"`

	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`

	DateOfBirth     string `json:"date_of_birth,omitempty"`
	StateOfOrigin   string `json:"state_of_origin,omitempty"`
	CurrentLocation string `json:"current_location,omitempty"`

	PositionApplied string `json:"position_applied"`
	PositionCode    string `json:"position_code"`

	HighestEducation string `json:"highest_education,omitempty"`
	YearsExperience  int    `json:"years_experience"`

	MilitaryBackground bool   `json:"military_background"`
	MilitaryBranch     string `json:"military_branch,omitempty"`
	MilitaryRank       string `json:"military_rank,omitempty"`
	MilitaryYears      int    `json:"military_years,omitempty"`

	Certifications []string `json:"certifications"`
	Languages      []string `json:"languages"`
	CoverLetter    string   `json:"cover_letter,omitempty"`
	LinkedinURL    string   `json:"linkedin_url,omitempty"`
	ReferralSource string   `json:"referral_source,omitempty"`

	IPAddress string `json:"ip_address,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`

	InterviewedAt *time.Time `json:"interviewed_at"`
	HiredAt       *time.Time `json:"hired_at"`
	InternalNotes string     `json:"internal_notes,omitempty"`
	AssignedTo    string     `json:"assigned_to,omitempty"`
}

// Patch carries the fields staff may change on an existing application.
type Patch struct {
	Status        *string    `json:"status"`
	AssignedTo    *string    `json:"assigned_to"`
	InternalNotes *string    `json:"internal_notes"`
	InterviewedAt *time.Time `json:"interviewed_at"`
	HiredAt       *time.Time `json:"hired_at"`
}

// IsZero reports whether the patch carries no changes.
func (p Patch) IsZero() bool {
	return p.Status == nil && p.AssignedTo == nil && p.InternalNotes == nil &&
		p.InterviewedAt == nil && p.HiredAt == nil
}

// ListFilter narrows and pages an admin listing.
type ListFilter struct {
	Status       string
	PositionCode string
	Search       string
	Page         int
	Limit        int
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
	Total int            `json:"total"`
	Page  int            `json:"page"`
	Pages int            `json:"pages"`
	Items []*Application `json:"data"`
}

// StatusCount is one row of a group-by-status aggregate.
type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"c"`
}

// PositionCount is one row of a group-by-position aggregate.
type PositionCount struct {
	PositionCode    string `json:"position_code"`
	PositionApplied string `json:"position_applied"`
	Count           int    `json:"c"`
}

// RecentApplication is the trimmed shape used in dashboard summaries.
type RecentApplication struct {
	ReferenceNumber string    `json:"reference_number"`
	PositionApplied string    `json:"position_applied"`
	Status          string    `json:"status"`
	Applicant       string    `json:"applicant"`
	SubmittedAt     time.Time `json:"submitted_at"`
}

// Stats is the aggregate view behind the admin dashboard.
type Stats struct {
	Total      int             `json:"total"`
	New        int             `json:"new"`
	ThisWeek   int             `json:"this_week"`
	ByPosition []PositionCount `json:"by_position"`
	ByStatus   []StatusCount   `json:"by_status"`
}
