// Package attachment tracks uploaded files linked to audit cases and
// career applications.
package attachment

import "time"

// Submission kinds an attachment can belong to.
const (
	KindAudit   = "audit"
	KindCareers = "careers"
)

// Attachment is the stored record of one uploaded file. The bytes
// themselves live in a storage.Store under StoredName.
type Attachment struct {
	ID             string    `json:"id"`
	SubmissionID   string    `json:"submission_id"`
	SubmissionType string    `json:"submission_type"`
	OriginalName   string    `json:"original_name"`
	StoredName     string    `json:"stored_name"`
	MimeType       string    `json:"mime_type,omitempty"`
	SizeBytes      int64     `json:"size_bytes"`
	UploadedAt     time.Time `json:"uploaded_at"`
}
