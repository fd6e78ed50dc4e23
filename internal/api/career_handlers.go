package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gwplsec/backend/internal/attachment"
	"github.com/gwplsec/backend/internal/audittrail"
	"github.com/gwplsec/backend/internal/career"
	"github.com/gwplsec/backend/internal/intake"
	"github.com/gwplsec/backend/internal/middleware"
)

// CareerHandlers holds dependencies for the recruitment endpoints.
type CareerHandlers struct {
	intake      *intake.CareerService
	apps        career.Repository
	attachments attachment.Repository
	trail       *audittrail.Recorder
	metrics     *middleware.Metrics
}

// NewCareerHandlers creates the recruitment handler set. metrics may be
// nil.
func NewCareerHandlers(
	svc *intake.CareerService,
	apps career.Repository,
	attachments attachment.Repository,
	trail *audittrail.Recorder,
	metrics *middleware.Metrics,
) *CareerHandlers {
	return &CareerHandlers{
		intake:      svc,
		apps:        apps,
		attachments: attachments,
		trail:       trail,
		metrics:     metrics,
	}
}

// Positions handles GET /api/careers/positions, the public catalog of
// open roles.
func (h *CareerHandlers) Positions(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, r.Context(), http.StatusOK, dataResponse{Success: true, Data: career.Positions})
}

// Apply handles POST /api/careers/apply.
func (h *CareerHandlers) Apply(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeBadRequest, "Malformed form data.")
		return
	}

	req := &intake.CareerRequest{
		FirstName: formValue(r, "first_name"),
		LastName:  formValue(r, "last_name"),
		Email:     formValue(r, "email"),
		Phone:     formValue(r, "phone"),

		PositionKey: formValue(r, "position_key"),

		DateOfBirth:     formValue(r, "date_of_birth"),
		StateOfOrigin:   formValue(r, "state_of_origin"),
		CurrentLocation: formValue(r, "current_location"),

		HighestEducation: formValue(r, "highest_education"),
		YearsExperience:  formInt(r, "years_experience"),

		MilitaryBackground: formBool(r, "military_background"),
		MilitaryBranch:     formValue(r, "military_branch"),
		MilitaryRank:       formValue(r, "military_rank"),
		MilitaryYears:      formInt(r, "military_years"),

		Certifications: formList(r, "certifications"),
		Languages:      formList(r, "languages"),
		CoverLetter:    formValue(r, "cover_letter"),
		LinkedinURL:    formValue(r, "linkedin_url"),
		ReferralSource: formValue(r, "referral_source"),

		IPAddress: clientIP(r),
		UserAgent: r.UserAgent(),
	}

	if r.MultipartForm != nil {
		if cvs := r.MultipartForm.File["cv"]; len(cvs) > 0 {
			uploads, closeAll, err := openUploads(cvs[:1])
			if err != nil {
				WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeBadRequest, "Malformed form data.")
				return
			}
			defer closeAll()
			req.CV = &uploads[0]
		}
		if docs := r.MultipartForm.File["certifications_docs"]; len(docs) > 0 {
			uploads, closeAll, err := openUploads(docs)
			if err != nil {
				WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeBadRequest, "Malformed form data.")
				return
			}
			defer closeAll()
			req.CertificationDocs = uploads
		}
	}

	result, fieldErrs, err := h.intake.Submit(r.Context(), req)
	if len(fieldErrs) > 0 {
		WriteValidationErrors(w, r.Context(), fieldErrs)
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "career application failed", "error", err)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal,
			"Application failed. Please email hr@gwplsecurity.com directly.")
		return
	}

	if h.metrics != nil {
		h.metrics.IncSubmissions("careers")
	}
	WriteJSON(w, r.Context(), http.StatusCreated, submitResponse{
		Success:         true,
		ReferenceNumber: result.Reference,
		Position:        result.Position,
		Message:         result.Message,
	})
}

// applicationListItem is the trimmed row shape for the admin listing.
type applicationListItem struct {
	ID                 string    `json:"id"`
	ReferenceNumber    string    `json:"reference_number"`
	Status             string    `json:"status"`
	SubmittedAt        time.Time `json:"submitted_at"`
	FirstName          string    `json:"first_name"`
	LastName           string    `json:"last_name"`
	Email              string    `json:"email"`
	Phone              string    `json:"phone"`
	PositionApplied    string    `json:"position_applied"`
	PositionCode       string    `json:"position_code"`
	YearsExperience    int       `json:"years_experience"`
	MilitaryBackground bool      `json:"military_background"`
	StateOfOrigin      string    `json:"state_of_origin"`
	AssignedTo         string    `json:"assigned_to"`
}

// List handles GET /api/careers/applications.
func (h *CareerHandlers) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := career.ListFilter{
		Status:       q.Get("status"),
		PositionCode: q.Get("position_code"),
		Search:       q.Get("search"),
		Page:         queryInt(q.Get("page")),
		Limit:        queryInt(q.Get("limit")),
	}

	page, err := h.apps.List(r.Context(), filter)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to list applications", "error", err)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to list applications.")
		return
	}

	items := make([]applicationListItem, 0, len(page.Items))
	for _, a := range page.Items {
		items = append(items, applicationListItem{
			ID:                 a.ID,
			ReferenceNumber:    a.ReferenceNumber,
			Status:             a.Status,
			SubmittedAt:        a.SubmittedAt,
			FirstName:          a.FirstName,
			LastName:           a.LastName,
			Email:              a.Email,
			Phone:              a.Phone,
			PositionApplied:    a.PositionApplied,
			PositionCode:       a.PositionCode,
			YearsExperience:    a.YearsExperience,
			MilitaryBackground: a.MilitaryBackground,
			StateOfOrigin:      a.StateOfOrigin,
			AssignedTo:         a.AssignedTo,
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

// applicationDetail is the full application plus its attachment records.
type applicationDetail struct {
	*career.Application
	Attachments []*attachment.Attachment `json:"attachments"`
}

// Get handles GET /api/careers/{id}.
func (h *CareerHandlers) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	a, err := h.apps.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, career.ErrApplicationNotFound) {
			WriteError(w, r.Context(), http.StatusNotFound, ErrCodeNotFound, "Not found.")
			return
		}
		slog.ErrorContext(r.Context(), "failed to get application", "error", err, "application_id", id)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to retrieve application.")
		return
	}

	files, err := h.attachments.ListBySubmission(r.Context(), id, attachment.KindCareers)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to list attachments", "error", err, "application_id", id)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to retrieve application.")
		return
	}
	if files == nil {
		files = []*attachment.Attachment{}
	}

	WriteJSON(w, r.Context(), http.StatusOK, dataResponse{Success: true, Data: applicationDetail{Application: a, Attachments: files}})
}

// Update handles PATCH /api/careers/{id}.
func (h *CareerHandlers) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var patch career.Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeBadRequest, "Malformed request body.")
		return
	}

	err := h.apps.Update(r.Context(), id, patch)
	switch {
	case errors.Is(err, career.ErrNoFieldsToUpdate):
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeBadRequest, "No valid fields.")
		return
	case errors.Is(err, career.ErrApplicationNotFound):
		WriteError(w, r.Context(), http.StatusNotFound, ErrCodeNotFound, "Not found.")
		return
	case err != nil:
		slog.ErrorContext(r.Context(), "failed to update application", "error", err, "application_id", id)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Update failed.")
		return
	}

	h.trail.Record(r.Context(), audittrail.Entry{
		AdminID:    actorID(r),
		Action:     audittrail.ActionUpdateApplication,
		EntityType: "careers",
		EntityID:   id,
		IPAddress:  clientIP(r),
	})
	WriteJSON(w, r.Context(), http.StatusOK, messageResponse{Success: true, Message: "Updated."})
}

// Stats handles GET /api/careers/stats/summary.
func (h *CareerHandlers) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.apps.Stats(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to aggregate application stats", "error", err)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to load stats.")
		return
	}
	WriteJSON(w, r.Context(), http.StatusOK, dataResponse{Success: true, Data: stats})
}
