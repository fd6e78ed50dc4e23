package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gwplsec/backend/internal/attachment"
	"github.com/gwplsec/backend/internal/audittrail"
	"github.com/gwplsec/backend/internal/intake"
	"github.com/gwplsec/backend/internal/middleware"
	"github.com/gwplsec/backend/internal/submission"
)

// AuditHandlers holds dependencies for the audit-request endpoints.
type AuditHandlers struct {
	intake      *intake.AuditService
	cases       submission.Repository
	attachments attachment.Repository
	trail       *audittrail.Recorder
	metrics     *middleware.Metrics
}

// NewAuditHandlers creates the audit-request handler set. metrics may be
// nil.
func NewAuditHandlers(
	svc *intake.AuditService,
	cases submission.Repository,
	attachments attachment.Repository,
	trail *audittrail.Recorder,
	metrics *middleware.Metrics,
) *AuditHandlers {
	return &AuditHandlers{
		intake:      svc,
		cases:       cases,
		attachments: attachments,
		trail:       trail,
		metrics:     metrics,
	}
}

// submitResponse is the 201 body for a successful intake.
type submitResponse struct {
	Success         bool   `json:"success"`
	ReferenceNumber string `json:"reference_number"`
	Position        string `json:"position,omitempty"`
	Message         string `json:"message"`
}

// Submit handles POST /api/audit/submit.
func (h *AuditHandlers) Submit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeBadRequest, "Malformed form data.")
		return
	}

	req := &intake.AuditRequest{
		FirstName:      formValue(r, "first_name"),
		LastName:       formValue(r, "last_name"),
		JobTitle:       formValue(r, "job_title"),
		ClearanceLevel: formValue(r, "clearance_level"),

		PhonePrimary:      formValue(r, "phone_primary"),
		PhoneAlternate:    formValue(r, "phone_alternate"),
		Email:             formValue(r, "email"),
		ContactPreference: formValue(r, "contact_preference"),

		OrganisationName: formValue(r, "organisation_name"),
		OrganisationType: formValue(r, "organisation_type"),
		StateRegion:      formValue(r, "state_region"),
		SiteLocation:     formValue(r, "site_location"),
		Sectors:          formList(r, "sectors"),
		AssetValueRange:  formValue(r, "asset_value_range"),
		ExistingProvider: formValue(r, "existing_provider"),

		ThreatLevel:         formValue(r, "threat_level"),
		ThreatType:          formValue(r, "threat_type"),
		IncidentDatetime:    formValue(r, "incident_datetime"),
		AuthoritiesNotified: formValue(r, "authorities_notified"),
		ThreatActors:        formList(r, "threat_actors"),
		SituationSummary:    formValue(r, "situation_summary"),
		EstimatedImpact:     formValue(r, "estimated_impact"),

		ServicesRequired: formList(r, "services_required"),
		DesiredStartDate: formValue(r, "desired_start_date"),
		ContractDuration: formValue(r, "contract_duration"),
		BudgetRange:      formValue(r, "budget_range"),
		AdditionalNotes:  formValue(r, "additional_notes"),

		IPAddress: clientIP(r),
		UserAgent: r.UserAgent(),
	}

	if r.MultipartForm != nil {
		uploads, closeAll, err := openUploads(r.MultipartForm.File["attachments"])
		if err != nil {
			WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeBadRequest, "Malformed form data.")
			return
		}
		defer closeAll()
		req.Attachments = uploads
	}

	result, fieldErrs, err := h.intake.Submit(r.Context(), req)
	if len(fieldErrs) > 0 {
		WriteValidationErrors(w, r.Context(), fieldErrs)
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "audit submission failed", "error", err)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal,
			"Submission failed. Please call our emergency hotline.")
		return
	}

	if h.metrics != nil {
		h.metrics.IncSubmissions("audit")
	}
	WriteJSON(w, r.Context(), http.StatusCreated, submitResponse{
		Success:         true,
		ReferenceNumber: result.Reference,
		Message:         result.Message,
	})
}

// statusResponse is the public reference-lookup body.
type statusResponse struct {
	ReferenceNumber string     `json:"reference_number"`
	Status          string     `json:"status"`
	SubmittedAt     time.Time  `json:"submitted_at"`
	AcknowledgedAt  *time.Time `json:"acknowledged_at"`
}

// Status handles GET /api/audit/{ref}/status, the public lookup by
// reference number.
func (h *AuditHandlers) Status(w http.ResponseWriter, r *http.Request) {
	ref := r.PathValue("ref")

	c, err := h.cases.GetByReference(r.Context(), ref)
	if err != nil {
		if errors.Is(err, submission.ErrCaseNotFound) {
			WriteError(w, r.Context(), http.StatusNotFound, ErrCodeNotFound, "Reference not found.")
			return
		}
		slog.ErrorContext(r.Context(), "reference lookup failed", "error", err, "reference", ref)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Lookup failed.")
		return
	}

	WriteJSON(w, r.Context(), http.StatusOK, dataResponse{Success: true, Data: statusResponse{
		ReferenceNumber: c.ReferenceNumber,
		Status:          c.Status,
		SubmittedAt:     c.SubmittedAt,
		AcknowledgedAt:  c.AcknowledgedAt,
	}})
}

// caseListItem is the trimmed row shape for the admin listing.
type caseListItem struct {
	ID               string     `json:"id"`
	ReferenceNumber  string     `json:"reference_number"`
	Status           string     `json:"status"`
	ThreatLevel      string     `json:"threat_level"`
	SubmittedAt      time.Time  `json:"submitted_at"`
	AcknowledgedAt   *time.Time `json:"acknowledged_at"`
	FirstName        string     `json:"first_name"`
	LastName         string     `json:"last_name"`
	JobTitle         string     `json:"job_title"`
	OrganisationName string     `json:"organisation_name"`
	PhonePrimary     string     `json:"phone_primary"`
	Email            string     `json:"email"`
	StateRegion      string     `json:"state_region"`
	ThreatType       string     `json:"threat_type"`
	AssignedTo       string     `json:"assigned_to"`
}

// listResponse pages any admin listing.
type listResponse struct {
	Success bool `json:"success"`
	Total   int  `json:"total"`
	Page    int  `json:"page"`
	Pages   int  `json:"pages"`
	Data    any  `json:"data"`
}

// List handles GET /api/audit/submissions.
func (h *AuditHandlers) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := submission.ListFilter{
		Status:      q.Get("status"),
		ThreatLevel: q.Get("threat_level"),
		Search:      q.Get("search"),
		Page:        queryInt(q.Get("page")),
		Limit:       queryInt(q.Get("limit")),
	}

	page, err := h.cases.List(r.Context(), filter)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to list cases", "error", err)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to list submissions.")
		return
	}

	items := make([]caseListItem, 0, len(page.Items))
	for _, c := range page.Items {
		items = append(items, caseListItem{
			ID:               c.ID,
			ReferenceNumber:  c.ReferenceNumber,
			Status:           c.Status,
			ThreatLevel:      c.ThreatLevel,
			SubmittedAt:      c.SubmittedAt,
			AcknowledgedAt:   c.AcknowledgedAt,
			FirstName:        c.FirstName,
			LastName:         c.LastName,
			JobTitle:         c.JobTitle,
			OrganisationName: c.OrganisationName,
			PhonePrimary:     c.PhonePrimary,
			Email:            c.Email,
			StateRegion:      c.StateRegion,
			ThreatType:       c.ThreatType,
			AssignedTo:       c.AssignedTo,
		})
	}
	WriteJSON(w, r.Context(), http.StatusOK, listResponse{
		Success: true,
		Total:   page.Total,
		Page:    page.Page,
		Pages:   page.Pages,
		Data:    items,
	})
}

// caseDetail is the full case plus its attachment records.
type caseDetail struct {
	*submission.Case
	Attachments []*attachment.Attachment `json:"attachments"`
}

// Get handles GET /api/audit/{id}.
func (h *AuditHandlers) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	c, err := h.cases.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, submission.ErrCaseNotFound) {
			WriteError(w, r.Context(), http.StatusNotFound, ErrCodeNotFound, "Not found.")
			return
		}
		slog.ErrorContext(r.Context(), "failed to get case", "error", err, "case_id", id)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to retrieve submission.")
		return
	}

	files, err := h.attachments.ListBySubmission(r.Context(), id, attachment.KindAudit)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to list attachments", "error", err, "case_id", id)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to retrieve submission.")
		return
	}
	if files == nil {
		files = []*attachment.Attachment{}
	}

	WriteJSON(w, r.Context(), http.StatusOK, dataResponse{Success: true, Data: caseDetail{Case: c, Attachments: files}})
}

// Update handles PATCH /api/audit/{id}.
func (h *AuditHandlers) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var patch submission.Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeBadRequest, "Malformed request body.")
		return
	}

	err := h.cases.Update(r.Context(), id, patch)
	switch {
	case errors.Is(err, submission.ErrNoFieldsToUpdate):
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeBadRequest, "No valid fields to update.")
		return
	case errors.Is(err, submission.ErrCaseNotFound):
		WriteError(w, r.Context(), http.StatusNotFound, ErrCodeNotFound, "Not found.")
		return
	case err != nil:
		slog.ErrorContext(r.Context(), "failed to update case", "error", err, "case_id", id)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Update failed.")
		return
	}

	h.trail.Record(r.Context(), audittrail.Entry{
		AdminID:    actorID(r),
		Action:     audittrail.ActionUpdateAudit,
		EntityType: "audit",
		EntityID:   id,
		IPAddress:  clientIP(r),
	})
	WriteJSON(w, r.Context(), http.StatusOK, messageResponse{Success: true, Message: "Updated successfully."})
}

// Stats handles GET /api/audit/stats/summary.
func (h *AuditHandlers) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.cases.Stats(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to aggregate case stats", "error", err)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to load stats.")
		return
	}
	WriteJSON(w, r.Context(), http.StatusOK, dataResponse{Success: true, Data: stats})
}
