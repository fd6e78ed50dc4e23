package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gwplsec/backend/internal/attachment"
	"github.com/gwplsec/backend/internal/audittrail"
	"github.com/gwplsec/backend/internal/auth"
	"github.com/gwplsec/backend/internal/career"
	"github.com/gwplsec/backend/internal/intake"
	"github.com/gwplsec/backend/internal/middleware"
	"github.com/gwplsec/backend/internal/notify"
	"github.com/gwplsec/backend/internal/staff"
	"github.com/gwplsec/backend/internal/submission"
	"github.com/gwplsec/backend/internal/validate"
)

// AdminHandlers holds dependencies for the staff-facing endpoints.
type AdminHandlers struct {
	auth        *auth.Service
	accounts    staff.Repository
	cases       submission.Repository
	apps        career.Repository
	attachments attachment.Repository
	emails      notify.Repository
	events      audittrail.Repository
	trail       *audittrail.Recorder
}

// NewAdminHandlers creates the admin handler set.
func NewAdminHandlers(
	authSvc *auth.Service,
	accounts staff.Repository,
	cases submission.Repository,
	apps career.Repository,
	attachments attachment.Repository,
	emails notify.Repository,
	events audittrail.Repository,
	trail *audittrail.Recorder,
) *AdminHandlers {
	return &AdminHandlers{
		auth:        authSvc,
		accounts:    accounts,
		cases:       cases,
		apps:        apps,
		attachments: attachments,
		emails:      emails,
		events:      events,
		trail:       trail,
	}
}

// loginRequest is the POST /api/admin/login body.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginResponse carries the issued token and the trimmed account.
type loginResponse struct {
	Success bool           `json:"success"`
	Token   string         `json:"token"`
	Admin   *staff.Account `json:"admin"`
}

// Login handles POST /api/admin/login.
func (h *AdminHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeBadRequest, "Malformed request body.")
		return
	}

	var fieldErrs []intake.FieldError
	email, err := validate.Email(req.Email)
	if err != nil {
		fieldErrs = append(fieldErrs, intake.FieldError{Field: "email", Message: "Valid email required"})
	}
	if req.Password == "" {
		fieldErrs = append(fieldErrs, intake.FieldError{Field: "password", Message: "Password is required"})
	}
	if len(fieldErrs) > 0 {
		WriteValidationErrors(w, r.Context(), fieldErrs)
		return
	}

	session, err := h.auth.Authenticate(r.Context(), email, req.Password, clientIP(r))
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			WriteError(w, r.Context(), http.StatusUnauthorized, ErrCodeAuthFailed, "Invalid credentials.")
			return
		}
		slog.ErrorContext(r.Context(), "login failed", "error", err)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Login failed.")
		return
	}

	WriteJSON(w, r.Context(), http.StatusOK, loginResponse{
		Success: true,
		Token:   session.Token,
		Admin:   session.Account,
	})
}

// Me handles GET /api/admin/me.
func (h *AdminHandlers) Me(w http.ResponseWriter, r *http.Request) {
	account := middleware.GetPrincipal(r.Context())
	if account == nil {
		WriteError(w, r.Context(), http.StatusUnauthorized, ErrCodeAuthFailed, "Not authenticated.")
		return
	}
	WriteJSON(w, r.Context(), http.StatusOK, dataResponse{Success: true, Data: account})
}

// dashboardResponse is the unified admin dashboard payload.
type dashboardResponse struct {
	Audit         *submission.Dashboard      `json:"audit"`
	Careers       *career.Stats              `json:"careers"`
	RecentAudit   []submission.RecentCase    `json:"recent_audit"`
	RecentCareers []career.RecentApplication `json:"recent_careers"`
	Attachments   int                        `json:"attachments"`
	EmailsSent    int                        `json:"emails_sent"`
}

// Dashboard handles GET /api/admin/dashboard.
func (h *AdminHandlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	auditStats, err := h.cases.Dashboard(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to aggregate audit dashboard", "error", err)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to load dashboard.")
		return
	}
	careerStats, err := h.apps.Stats(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to aggregate careers dashboard", "error", err)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to load dashboard.")
		return
	}
	recentAudit, err := h.cases.Recent(ctx, 8)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list recent cases", "error", err)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to load dashboard.")
		return
	}
	recentCareers, err := h.apps.Recent(ctx, 8)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list recent applications", "error", err)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to load dashboard.")
		return
	}
	attachmentCount, err := h.attachments.CountAll(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to count attachments", "error", err)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to load dashboard.")
		return
	}
	emailCount, err := h.emails.Count(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to count delivery records", "error", err)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to load dashboard.")
		return
	}

	WriteJSON(w, ctx, http.StatusOK, dataResponse{Success: true, Data: dashboardResponse{
		Audit:         auditStats,
		Careers:       careerStats,
		RecentAudit:   recentAudit,
		RecentCareers: recentCareers,
		Attachments:   attachmentCount,
		EmailsSent:    emailCount,
	}})
}

// auditLogResponse pages the audit trail listing.
type auditLogResponse struct {
	Success bool                `json:"success"`
	Total   int                 `json:"total"`
	Data    []*audittrail.Event `json:"data"`
}

// AuditLog handles GET /api/admin/audit-log.
func (h *AdminHandlers) AuditLog(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := queryInt(q.Get("page"))
	if page < 1 {
		page = 1
	}
	limit := queryInt(q.Get("limit"))
	if limit < 1 {
		limit = 50
	}

	events, err := h.events.List(r.Context(), limit, (page-1)*limit)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to list audit events", "error", err)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to load audit log.")
		return
	}
	total, err := h.events.Count(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to count audit events", "error", err)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to load audit log.")
		return
	}
	if events == nil {
		events = []*audittrail.Event{}
	}

	WriteJSON(w, r.Context(), http.StatusOK, auditLogResponse{Success: true, Total: total, Data: events})
}

// ListUsers handles GET /api/admin/users.
func (h *AdminHandlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accounts.List(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to list accounts", "error", err)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to list users.")
		return
	}
	if accounts == nil {
		accounts = []*staff.Account{}
	}
	WriteJSON(w, r.Context(), http.StatusOK, dataResponse{Success: true, Data: accounts})
}

// createUserRequest is the POST /api/admin/users body.
type createUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

// assignableRoles are the roles a superadmin may grant. The superadmin
// role itself is never assignable over the API.
var assignableRoles = map[string]bool{
	staff.RoleAdmin:   true,
	staff.RoleAnalyst: true,
	staff.RoleViewer:  true,
}

// CreateUser handles POST /api/admin/users.
func (h *AdminHandlers) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeBadRequest, "Malformed request body.")
		return
	}

	var fieldErrs []intake.FieldError
	email, err := validate.Email(req.Email)
	if err != nil {
		fieldErrs = append(fieldErrs, intake.FieldError{Field: "email", Message: "Valid email required"})
	}
	if len(req.Password) < 10 {
		fieldErrs = append(fieldErrs, intake.FieldError{Field: "password", Message: "Password must be at least 10 characters"})
	}
	fullName, err := validate.RequiredField(req.FullName)
	if err != nil {
		fieldErrs = append(fieldErrs, intake.FieldError{Field: "full_name", Message: "Full name is required"})
	}
	if !assignableRoles[req.Role] {
		fieldErrs = append(fieldErrs, intake.FieldError{Field: "role", Message: "Invalid role"})
	}
	if len(fieldErrs) > 0 {
		WriteValidationErrors(w, r.Context(), fieldErrs)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to hash password", "error", err)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to create user.")
		return
	}

	account := &staff.Account{
		Email:        email,
		PasswordHash: hash,
		FullName:     fullName,
		Role:         req.Role,
		IsActive:     true,
	}
	if err := h.accounts.Create(r.Context(), account); err != nil {
		if errors.Is(err, staff.ErrDuplicateEmail) {
			WriteError(w, r.Context(), http.StatusConflict, ErrCodeConflict, "Email already exists.")
			return
		}
		slog.ErrorContext(r.Context(), "failed to create account", "error", err)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to create user.")
		return
	}

	h.trail.Record(r.Context(), audittrail.Entry{
		AdminID:    actorID(r),
		Action:     audittrail.ActionCreateAdminUser,
		EntityType: "admin_user",
		EntityID:   account.ID,
		IPAddress:  clientIP(r),
	})
	WriteJSON(w, r.Context(), http.StatusCreated, messageResponse{Success: true, Message: "Admin user created."})
}

// updateUserRequest is the PATCH /api/admin/users/{id} body. Only role
// and is_active are mutable.
type updateUserRequest struct {
	Role     *string `json:"role"`
	IsActive *bool   `json:"is_active"`
}

// UpdateUser handles PATCH /api/admin/users/{id}.
func (h *AdminHandlers) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeBadRequest, "Malformed request body.")
		return
	}
	if req.Role == nil && req.IsActive == nil {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeBadRequest, "No valid fields to update.")
		return
	}
	if req.Role != nil && !assignableRoles[*req.Role] {
		WriteValidationErrors(w, r.Context(), []intake.FieldError{{Field: "role", Message: "Invalid role"}})
		return
	}

	err := h.accounts.Update(r.Context(), id, staff.Patch{Role: req.Role, IsActive: req.IsActive})
	if err != nil {
		if errors.Is(err, staff.ErrAccountNotFound) {
			WriteError(w, r.Context(), http.StatusNotFound, ErrCodeNotFound, "Not found.")
			return
		}
		slog.ErrorContext(r.Context(), "failed to update account", "error", err, "account_id", id)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Update failed.")
		return
	}

	h.trail.Record(r.Context(), audittrail.Entry{
		AdminID:    actorID(r),
		Action:     audittrail.ActionUpdateAdminUser,
		EntityType: "admin_user",
		EntityID:   id,
		IPAddress:  clientIP(r),
	})
	WriteJSON(w, r.Context(), http.StatusOK, messageResponse{Success: true, Message: "Updated."})
}
