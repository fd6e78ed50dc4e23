package intake

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gwplsec/backend/internal/attachment"
	"github.com/gwplsec/backend/internal/career"
	"github.com/gwplsec/backend/internal/notify"
	"github.com/gwplsec/backend/internal/refgen"
	"github.com/gwplsec/backend/internal/storage"
	"github.com/gwplsec/backend/internal/validate"
)

// careerReceivedMessage is returned to the applicant on success.
const careerReceivedMessage = "Application received. Our recruitment board will be in touch within 5-7 working days."

// cvMaxBytes is fixed: CVs are documents, not evidence dumps.
const cvMaxBytes = 10 * 1024 * 1024

// CareerRequest carries everything the public application form submits.
type CareerRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`

	PositionKey string `json:"position_key"`

	DateOfBirth     string `json:"date_of_birth"`
	StateOfOrigin   string `json:"state_of_origin"`
	CurrentLocation string `json:"current_location"`

	HighestEducation string `json:"highest_education"`
	YearsExperience  int    `json:"years_experience"`

	MilitaryBackground bool   `json:"military_background"`
	MilitaryBranch     string `json:"military_branch"`
	MilitaryRank       string `json:"military_rank"`
	MilitaryYears      int    `json:"military_years"`

	Certifications []string `json:"certifications"`
	Languages      []string `json:"languages"`
	CoverLetter    string   `json:"cover_letter"`
	LinkedinURL    string   `json:"linkedin_url"`
	ReferralSource string   `json:"referral_source"`

	IPAddress string `json:"-"`
	UserAgent string `json:"-"`

	CV                *Upload  `json:"-"`
	CertificationDocs []Upload `json:"-"`
}

// CareerService runs the career-application intake workflow.
type CareerService struct {
	applications career.Repository
	attachments  attachment.Repository
	store        storage.Store
	refs         *refgen.Generator
	notifier     Notifier
	templates    notify.Templates
	logger       *slog.Logger
	now          func() time.Time
}

// NewCareerService wires the career intake workflow.
func NewCareerService(
	applications career.Repository,
	attachments attachment.Repository,
	store storage.Store,
	refs *refgen.Generator,
	notifier Notifier,
	templates notify.Templates,
	logger *slog.Logger,
) *CareerService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CareerService{
		applications: applications,
		attachments:  attachments,
		store:        store,
		refs:         refs,
		notifier:     notifier,
		templates:    templates,
		logger:       logger,
		now:          nowUTC,
	}
}

func (s *CareerService) validate(req *CareerRequest) ([]FieldError, career.Position) {
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
	if req.Phone, err = validate.RequiredField(req.Phone); err != nil {
		fail("phone", "Phone number is required")
	}

	pos, ok := career.PositionByKey(req.PositionKey)
	if !ok {
		fail("position_key", "Invalid position selected")
	}

	return errs, pos
}

// Submit runs the full workflow. Validation failures come back as field
// errors with nothing persisted.
func (s *CareerService) Submit(ctx context.Context, req *CareerRequest) (*Result, []FieldError, error) {
	errs, pos := s.validate(req)
	if len(errs) > 0 {
		return nil, errs, nil
	}

	a := &career.Application{
		FirstName:          req.FirstName,
		LastName:           req.LastName,
		Email:              req.Email,
		Phone:              req.Phone,
		DateOfBirth:        req.DateOfBirth,
		StateOfOrigin:      req.StateOfOrigin,
		CurrentLocation:    req.CurrentLocation,
		PositionApplied:    pos.Title,
		PositionCode:       pos.Code,
		HighestEducation:   req.HighestEducation,
		YearsExperience:    req.YearsExperience,
		MilitaryBackground: req.MilitaryBackground,
		MilitaryBranch:     req.MilitaryBranch,
		MilitaryRank:       req.MilitaryRank,
		MilitaryYears:      req.MilitaryYears,
		Certifications:     req.Certifications,
		Languages:          req.Languages,
		CoverLetter:        req.CoverLetter,
		LinkedinURL:        req.LinkedinURL,
		ReferralSource:     req.ReferralSource,
		IPAddress:          req.IPAddress,
		UserAgent:          req.UserAgent,
	}

	if err := s.insertWithRetry(ctx, a); err != nil {
		return nil, nil, err
	}

	var uploads []Upload
	if req.CV != nil {
		uploads = append(uploads, *req.CV)
	}
	docs := req.CertificationDocs
	if len(docs) > MaxCertificationDocs {
		docs = docs[:MaxCertificationDocs]
	}
	uploads = append(uploads, docs...)
	s.saveDocuments(ctx, a.ID, uploads)

	s.notifier.Enqueue(s.templates.CareerConfirm(a))
	s.notifier.Enqueue(s.templates.HRAlert(a))

	return &Result{
		Reference: a.ReferenceNumber,
		Position:  pos.Title,
		Message:   careerReceivedMessage,
	}, nil, nil
}

func (s *CareerService) insertWithRetry(ctx context.Context, a *career.Application) error {
	for attempt := 0; attempt < maxMintAttempts; attempt++ {
		a.ReferenceNumber = s.refs.Mint(refgen.KindCareers)
		err := s.applications.Insert(ctx, a)
		if err == nil {
			return nil
		}
		if !errors.Is(err, career.ErrDuplicateReference) {
			return err
		}
		s.logger.WarnContext(ctx, "reference collision, re-minting",
			slog.String("reference", a.ReferenceNumber))
	}
	return fmt.Errorf("could not mint a unique reference after %d attempts", maxMintAttempts)
}

// saveDocuments stores the acceptable uploads. A rejected or failed file
// never fails the application.
func (s *CareerService) saveDocuments(ctx context.Context, applicationID string, uploads []Upload) {
	constraints := validate.FileConstraints{
		AllowedExtensions: validate.CareerExtensions,
		MaxSizeBytes:      cvMaxBytes,
	}
	for _, up := range uploads {
		if _, err := validate.File(up.Filename, up.Size, constraints); err != nil {
			s.logger.InfoContext(ctx, "skipping rejected document",
				slog.String("filename", up.Filename),
				slog.String("reason", err.Error()))
			continue
		}

		storedName := storage.StoredName("cv", up.Filename, s.now())
		if err := s.store.Save(ctx, storedName, up.Content); err != nil {
			s.logger.ErrorContext(ctx, "failed to store document",
				slog.String("filename", up.Filename),
				slog.String("error", err.Error()))
			continue
		}

		rec := &attachment.Attachment{
			SubmissionID:   applicationID,
			SubmissionType: attachment.KindCareers,
			OriginalName:   up.Filename,
			StoredName:     storedName,
			MimeType:       up.MimeType,
			SizeBytes:      up.Size,
		}
		if err := s.attachments.Insert(ctx, rec); err != nil {
			s.logger.ErrorContext(ctx, "failed to record document",
				slog.String("filename", up.Filename),
				slog.String("error", err.Error()))
		}
	}
}
