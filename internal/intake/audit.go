package intake

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gwplsec/backend/internal/attachment"
	"github.com/gwplsec/backend/internal/notify"
	"github.com/gwplsec/backend/internal/refgen"
	"github.com/gwplsec/backend/internal/storage"
	"github.com/gwplsec/backend/internal/submission"
	"github.com/gwplsec/backend/internal/validate"
)

// auditReceivedMessage is returned to the submitter on success.
const auditReceivedMessage = "Your emergency audit request has been received. Acknowledgement will follow within 2 hours."

// Notifier queues outbound messages without blocking the caller.
type Notifier interface {
	Enqueue(msg notify.Message)
}

// AuditRequest carries everything the public audit form submits.
type AuditRequest struct {
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	JobTitle       string `json:"job_title"`
	ClearanceLevel string `json:"clearance_level"`

	PhonePrimary      string `json:"phone_primary"`
	PhoneAlternate    string `json:"phone_alternate"`
	Email             string `json:"email"`
	ContactPreference string `json:"contact_preference"`

	OrganisationName string   `json:"organisation_name"`
	OrganisationType string   `json:"organisation_type"`
	StateRegion      string   `json:"state_region"`
	SiteLocation     string   `json:"site_location"`
	Sectors          []string `json:"sectors"`
	AssetValueRange  string   `json:"asset_value_range"`
	ExistingProvider string   `json:"existing_provider"`

	ThreatLevel         string   `json:"threat_level"`
	ThreatType          string   `json:"threat_type"`
	IncidentDatetime    string   `json:"incident_datetime"`
	AuthoritiesNotified string   `json:"authorities_notified"`
	ThreatActors        []string `json:"threat_actors"`
	SituationSummary    string   `json:"situation_summary"`
	EstimatedImpact     string   `json:"estimated_impact"`

	ServicesRequired []string `json:"services_required"`
	DesiredStartDate string   `json:"desired_start_date"`
	ContractDuration string   `json:"contract_duration"`
	BudgetRange      string   `json:"budget_range"`
	AdditionalNotes  string   `json:"additional_notes"`

	IPAddress string `json:"-"`
	UserAgent string `json:"-"`

	Attachments []Upload `json:"-"`
}

// AuditService runs the audit-request intake workflow.
type AuditService struct {
	cases       submission.Repository
	attachments attachment.Repository
	store       storage.Store
	refs        *refgen.Generator
	notifier    Notifier
	templates   notify.Templates
	logger      *slog.Logger

	maxUploadBytes int64
	now            func() time.Time
}

// NewAuditService wires the audit intake workflow. maxUploadMB bounds the
// size of a single attachment; zero falls back to 20.
func NewAuditService(
	cases submission.Repository,
	attachments attachment.Repository,
	store storage.Store,
	refs *refgen.Generator,
	notifier Notifier,
	templates notify.Templates,
	maxUploadMB int,
	logger *slog.Logger,
) *AuditService {
	if maxUploadMB <= 0 {
		maxUploadMB = 20
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditService{
		cases:          cases,
		attachments:    attachments,
		store:          store,
		refs:           refs,
		notifier:       notifier,
		templates:      templates,
		logger:         logger,
		maxUploadBytes: int64(maxUploadMB) * 1024 * 1024,
		now:            nowUTC,
	}
}

func (s *AuditService) validate(req *AuditRequest) []FieldError {
	var errs []FieldError
	fail := func(field, message string) {
		errs = append(errs, FieldError{Field: field, Message: message})
	}

	var err error
	if req.FirstName, err = validate.RequiredField(req.FirstName); err != nil {
		fail("first_name", "First name is required")
	}
	if req.LastName, err = validate.RequiredField(req.LastName); err != nil {
		fail("last_name", "Last name is required")
	}
	if req.Email, err = validate.Email(req.Email); err != nil {
		fail("email", "Valid email required")
	}
	if req.PhonePrimary, err = validate.RequiredField(req.PhonePrimary); err != nil {
		fail("phone_primary", "Phone number is required")
	}
	if req.OrganisationName, err = validate.RequiredField(req.OrganisationName); err != nil {
		fail("organisation_name", "Organisation name is required")
	}
	if req.SituationSummary, err = validate.Summary(req.SituationSummary); err != nil {
		fail("situation_summary", "Please provide a summary of at least 20 characters")
	}

	if req.ThreatLevel == "" {
		req.ThreatLevel = submission.ThreatRoutine
	} else if !submission.ValidThreatLevels[req.ThreatLevel] {
		fail("threat_level", "Unknown threat level")
	}

	return errs
}

// Submit runs the full workflow. Validation failures come back as field
// errors with nothing persisted; the error return is reserved for
// persistence failures.
func (s *AuditService) Submit(ctx context.Context, req *AuditRequest) (*Result, []FieldError, error) {
	if errs := s.validate(req); len(errs) > 0 {
		return nil, errs, nil
	}

	c := &submission.Case{
		FirstName:           req.FirstName,
		LastName:            req.LastName,
		JobTitle:            req.JobTitle,
		ClearanceLevel:      req.ClearanceLevel,
		PhonePrimary:        req.PhonePrimary,
		PhoneAlternate:      req.PhoneAlternate,
		Email:               req.Email,
		ContactPreference:   req.ContactPreference,
		OrganisationName:    req.OrganisationName,
		OrganisationType:    req.OrganisationType,
		StateRegion:         req.StateRegion,
		SiteLocation:        req.SiteLocation,
		Sectors:             req.Sectors,
		AssetValueRange:     req.AssetValueRange,
		ExistingProvider:    req.ExistingProvider,
		ThreatLevel:         req.ThreatLevel,
		ThreatType:          req.ThreatType,
		IncidentDatetime:    req.IncidentDatetime,
		AuthoritiesNotified: req.AuthoritiesNotified,
		ThreatActors:        req.ThreatActors,
		SituationSummary:    req.SituationSummary,
		EstimatedImpact:     req.EstimatedImpact,
		ServicesRequired:    req.ServicesRequired,
		DesiredStartDate:    req.DesiredStartDate,
		ContractDuration:    req.ContractDuration,
		BudgetRange:         req.BudgetRange,
		AdditionalNotes:     req.AdditionalNotes,
		IPAddress:           req.IPAddress,
		UserAgent:           req.UserAgent,
	}
	if c.ContactPreference == "" {
		c.ContactPreference = "both"
	}

	if err := s.insertWithRetry(ctx, c); err != nil {
		return nil, nil, err
	}

	s.saveAttachments(ctx, c.ID, req.Attachments)

	s.notifier.Enqueue(s.templates.SubmitterAck(c))
	s.notifier.Enqueue(s.templates.GSOCAlert(c))

	return &Result{
		Reference: c.ReferenceNumber,
		Message:   auditReceivedMessage,
	}, nil, nil
}

// insertWithRetry mints and inserts, re-minting on a reference collision.
func (s *AuditService) insertWithRetry(ctx context.Context, c *submission.Case) error {
	for attempt := 0; attempt < maxMintAttempts; attempt++ {
		c.ReferenceNumber = s.refs.Mint(refgen.KindAudit)
		err := s.cases.Insert(ctx, c)
		if err == nil {
			return nil
		}
		if !errors.Is(err, submission.ErrDuplicateReference) {
			return err
		}
		s.logger.WarnContext(ctx, "reference collision, re-minting",
			slog.String("reference", c.ReferenceNumber))
	}
	return fmt.Errorf("could not mint a unique reference after %d attempts", maxMintAttempts)
}

// saveAttachments stores the acceptable uploads. A rejected or failed
// file never fails the submission; it is logged and skipped.
func (s *AuditService) saveAttachments(ctx context.Context, caseID string, uploads []Upload) {
	if len(uploads) > MaxAuditAttachments {
		uploads = uploads[:MaxAuditAttachments]
	}
	constraints := validate.FileConstraints{
		AllowedExtensions: validate.AuditExtensions,
		MaxSizeBytes:      s.maxUploadBytes,
	}
	for _, up := range uploads {
		if _, err := validate.File(up.Filename, up.Size, constraints); err != nil {
			s.logger.InfoContext(ctx, "skipping rejected attachment",
				slog.String("filename", up.Filename),
				slog.String("reason", err.Error()))
			continue
		}

		storedName := storage.StoredName("audit", up.Filename, s.now())
		if err := s.store.Save(ctx, storedName, up.Content); err != nil {
			s.logger.ErrorContext(ctx, "failed to store attachment",
				slog.String("filename", up.Filename),
				slog.String("error", err.Error()))
			continue
		}

		rec := &attachment.Attachment{
			SubmissionID:   caseID,
			SubmissionType: attachment.KindAudit,
			OriginalName:   up.Filename,
			StoredName:     storedName,
			MimeType:       up.MimeType,
			SizeBytes:      up.Size,
		}
		if err := s.attachments.Insert(ctx, rec); err != nil {
			s.logger.ErrorContext(ctx, "failed to record attachment",
				slog.String("filename", up.Filename),
				slog.String("error", err.Error()))
		}
	}
}
