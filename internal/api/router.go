package api

import (
	"log/slog"
	"net/http"

	"github.com/gwplsec/backend/internal/middleware"
	"github.com/gwplsec/backend/internal/staff"
)

// RouterConfig carries everything the HTTP surface needs.
type RouterConfig struct {
	Audit   *AuditHandlers
	Careers *CareerHandlers
	Admin   *AdminHandlers

	Health  http.Handler
	Metrics http.Handler

	Verifier middleware.Verifier
	Logger   *slog.Logger

	RateLimitStore middleware.RateLimitStore
	GlobalLimit    middleware.RateLimitConfig
	SubmitLimit    middleware.RateLimitConfig
	HTTPMetrics    *middleware.Metrics

	CORS middleware.CORSConfig
}

// chain wraps h in the given middleware, first entry outermost.
func chain(h http.Handler, mw ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	return h
}

// NewRouter assembles the route table and the middleware stack. The
// outer chain (request ID, logging, CORS, metrics, global rate limit)
// wraps everything; per-route chains add the strict intake limiter and
// the auth gates.
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	requireAuth := middleware.RequireAuth(cfg.Verifier, cfg.Logger)
	staffOnly := func(h http.HandlerFunc, roles ...string) http.Handler {
		if len(roles) == 0 {
			return chain(h, requireAuth)
		}
		return chain(h, requireAuth, middleware.RequireRole(roles...))
	}
	submitLimited := func(h http.HandlerFunc) http.Handler {
		if cfg.RateLimitStore == nil {
			return h
		}
		return chain(h, middleware.RateLimiter(cfg.RateLimitStore, cfg.SubmitLimit, middleware.IPKeyFunc(), cfg.HTTPMetrics, "submit"))
	}

	// Public intake surface.
	mux.Handle("POST /api/audit/submit", submitLimited(cfg.Audit.Submit))
	mux.HandleFunc("GET /api/audit/{ref}/status", cfg.Audit.Status)
	mux.Handle("POST /api/careers/apply", submitLimited(cfg.Careers.Apply))
	mux.HandleFunc("GET /api/careers/positions", cfg.Careers.Positions)

	// Staff case management.
	mux.Handle("GET /api/audit/submissions", staffOnly(cfg.Audit.List))
	mux.Handle("GET /api/audit/stats/summary", staffOnly(cfg.Audit.Stats))
	mux.Handle("GET /api/audit/{id}", staffOnly(cfg.Audit.Get))
	mux.Handle("PATCH /api/audit/{id}", staffOnly(cfg.Audit.Update,
		staff.RoleSuperadmin, staff.RoleAdmin, staff.RoleAnalyst))

	mux.Handle("GET /api/careers/applications", staffOnly(cfg.Careers.List))
	mux.Handle("GET /api/careers/stats/summary", staffOnly(cfg.Careers.Stats))
	mux.Handle("GET /api/careers/{id}", staffOnly(cfg.Careers.Get))
	mux.Handle("PATCH /api/careers/{id}", staffOnly(cfg.Careers.Update,
		staff.RoleSuperadmin, staff.RoleAdmin, staff.RoleAnalyst))

	// Admin accounts and oversight.
	mux.HandleFunc("POST /api/admin/login", cfg.Admin.Login)
	mux.Handle("GET /api/admin/me", staffOnly(cfg.Admin.Me))
	mux.Handle("GET /api/admin/dashboard", staffOnly(cfg.Admin.Dashboard))
	mux.Handle("GET /api/admin/audit-log", staffOnly(cfg.Admin.AuditLog,
		staff.RoleSuperadmin, staff.RoleAdmin))
	mux.Handle("GET /api/admin/users", staffOnly(cfg.Admin.ListUsers,
		staff.RoleSuperadmin, staff.RoleAdmin))
	mux.Handle("POST /api/admin/users", staffOnly(cfg.Admin.CreateUser, staff.RoleSuperadmin))
	mux.Handle("PATCH /api/admin/users/{id}", staffOnly(cfg.Admin.UpdateUser, staff.RoleSuperadmin))

	if cfg.Health != nil {
		mux.Handle("GET /api/health", cfg.Health)
	}
	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", cfg.Metrics)
	}

	outer := []func(http.Handler) http.Handler{
		middleware.RequestID,
		middleware.Logging(cfg.Logger),
		middleware.CORS(cfg.CORS),
	}
	if cfg.HTTPMetrics != nil {
		outer = append(outer, middleware.HTTPMetrics(cfg.HTTPMetrics))
	}
	if cfg.RateLimitStore != nil {
		outer = append(outer, middleware.RateLimiter(cfg.RateLimitStore, cfg.GlobalLimit, middleware.IPKeyFunc(), cfg.HTTPMetrics, "global"))
	}
	return chain(mux, outer...)
}
