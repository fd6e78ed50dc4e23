// Package notify sends outbound email for intake confirmations and staff
// alerts, and logs every delivery attempt.
package notify

import "time"

// Delivery statuses for a Record.
const (
	StatusSent   = "sent"
	StatusFailed = "failed"
)

// Template names, logged with each attempt.
const (
	TemplateGSOCAlert     = "gsoc_alert"
	TemplateSubmitterAck  = "submitter_ack"
	TemplateCareerConfirm = "career_confirm"
	TemplateHRAlert       = "hr_alert"
)

// Record is the persisted outcome of one delivery attempt, successful
// or not.
type Record struct {
	ID           int64     `json:"id"`
	SentAt       time.Time `json:"sent_at"`
	Recipient    string    `json:"recipient"`
	Subject      string    `json:"subject"`
	Template     string    `json:"template,omitempty"`
	EntityType   string    `json:"entity_type,omitempty"`
	EntityID     string    `json:"entity_id,omitempty"`
	Status       string    `json:"status"`
	ErrorMessage string    `json:"error_message,omitempty"`
}

// Message is one outbound email, ready to send.
type Message struct {
	To         string
	Subject    string
	HTML       string
	Template   string
	EntityType string
	EntityID   string
}
