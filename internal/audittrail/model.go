// Package audittrail provides the append-only ledger of privileged
// actions. Every login, failed login, and staff-initiated mutation lands
// here; nothing is ever updated or deleted.
package audittrail

import "time"

// Action tags for audit events.
const (
	ActionLogin             = "LOGIN"
	ActionFailedLogin       = "FAILED_LOGIN"
	ActionUpdateAudit       = "UPDATE_AUDIT"
	ActionUpdateApplication = "UPDATE_APPLICATION"
	ActionCreateAdminUser   = "CREATE_ADMIN_USER"
	ActionUpdateAdminUser   = "UPDATE_ADMIN_USER"
)

// Event represents a single entry in the audit trail. AdminID is nil for
// events without an authenticated actor (failed logins).
type Event struct {
	ID         int64     `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	AdminID    *string   `json:"admin_id,omitempty"`
	Action     string    `json:"action"`
	EntityType string    `json:"entity_type,omitempty"`
	EntityID   string    `json:"entity_id,omitempty"`
	Details    string    `json:"details,omitempty"`
	IPAddress  string    `json:"ip_address,omitempty"`

	// Joined actor fields for the admin listing; empty when the actor
	// is unknown or the account has been removed.
	AdminName  string `json:"admin_name,omitempty"`
	AdminEmail string `json:"admin_email,omitempty"`
}

// Entry is the input for recording an audit event.
type Entry struct {
	AdminID    *string
	Action     string
	EntityType string
	EntityID   string
	Details    string
	IPAddress  string
}
