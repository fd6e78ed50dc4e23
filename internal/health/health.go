// Package health implements the liveness endpoint with a database
// probe.
package health

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// Checker reports whether a dependency is reachable.
type Checker interface {
	HealthCheck(ctx context.Context) error
}

// DBChecker probes a database connection pool.
type DBChecker struct {
	db *sql.DB
}

// NewDBChecker wraps a pool for health probing.
func NewDBChecker(db *sql.DB) *DBChecker {
	return &DBChecker{db: db}
}

// HealthCheck pings the database with a short deadline.
func (c *DBChecker) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return c.db.PingContext(ctx)
}

// Response is the GET /api/health body.
type Response struct {
	Status     string  `json:"status"`
	Database   string  `json:"database"`
	UptimeSecs float64 `json:"uptime_secs"`
}

// Handler serves GET /api/health. A failing database probe degrades the
// status and the response code to 503; the process itself still answers.
type Handler struct {
	dbChecker Checker
	startedAt time.Time
	logger    *slog.Logger
}

// NewHandler creates the health handler. dbChecker may be nil when the
// service runs on in-memory stores.
func NewHandler(dbChecker Checker, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		dbChecker: dbChecker,
		startedAt: time.Now(),
		logger:    logger,
	}
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := Response{
		Status:     "ok",
		Database:   "ok",
		UptimeSecs: time.Since(h.startedAt).Seconds(),
	}
	status := http.StatusOK

	if h.dbChecker == nil {
		resp.Database = "none"
	} else if err := h.dbChecker.HealthCheck(r.Context()); err != nil {
		h.logger.ErrorContext(r.Context(), "database health check failed", "error", err)
		resp.Status = "degraded"
		resp.Database = "unreachable"
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to encode health response", "error", err)
	}
}
