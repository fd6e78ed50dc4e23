// Package intake implements the two public submission workflows: the
// emergency audit request and the career application. Each workflow
// validates its input, mints a reference number, persists the record and
// its attachments, and queues the outbound notifications.
package intake

import (
	"io"
	"time"
)

// FieldError describes one failed validation check, keyed by the form
// field it applies to.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Upload is one file received with a submission, still unread.
type Upload struct {
	Filename string
	MimeType string
	Size     int64
	Content  io.Reader
}

// Result is the public outcome of a successful submission.
type Result struct {
	Reference string
	Position  string
	Message   string
}

// How many times a workflow re-mints after a reference collision before
// giving up.
const maxMintAttempts = 5

// Limits on the number of files accepted per submission.
const (
	MaxAuditAttachments  = 10
	MaxCertificationDocs = 5
)

func nowUTC() time.Time { return time.Now().UTC() }
