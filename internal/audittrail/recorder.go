package audittrail

import (
	"context"
	"log/slog"
)

// Recorder writes audit events without ever failing the request that
// triggered them. A storage failure degrades to an error log entry; the
// primary operation proceeds.
type Recorder struct {
	repo   Repository
	logger *slog.Logger
}

// NewRecorder creates a Recorder. A nil logger falls back to slog.Default.
func NewRecorder(repo Repository, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{repo: repo, logger: logger}
}

// Record appends an audit event. Failures are swallowed after logging.
func (r *Recorder) Record(ctx context.Context, e Entry) {
	if _, err := r.repo.Record(ctx, e); err != nil {
		r.logger.ErrorContext(ctx, "audit trail write failed",
			"action", e.Action,
			"entity_type", e.EntityType,
			"entity_id", e.EntityID,
			"error", err)
	}
}
