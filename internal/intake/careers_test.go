package intake

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"testing"

	"github.com/gwplsec/backend/internal/attachment"
	"github.com/gwplsec/backend/internal/career"
	"github.com/gwplsec/backend/internal/notify"
	"github.com/gwplsec/backend/internal/refgen"
	"github.com/gwplsec/backend/internal/storage"
)

func validCareerRequest() *CareerRequest {
	return &CareerRequest{
		FirstName:   "Chinedu",
		LastName:    "Eze",
		Email:       "chinedu@applicant.test",
		Phone:       "+2348009998877",
		PositionKey: "gsoc-operator",
	}
}

func newCareerFixture(t *testing.T) (*CareerService, *career.InMemoryRepository, *attachment.InMemoryRepository, *captureNotifier) {
	t.Helper()
	applications := career.NewInMemoryRepository()
	attachments := attachment.NewInMemoryRepository()
	store, err := storage.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	notifier := &captureNotifier{}
	templates := notify.Templates{BaseURL: "https://gwpl.test", HRAlertTo: "hr@gwpl.test"}
	svc := NewCareerService(applications, attachments, store, refgen.New(), notifier, templates, nil)
	return svc, applications, attachments, notifier
}

func TestCareerSubmitRejectsUnknownPosition(t *testing.T) {
	svc, applications, _, notifier := newCareerFixture(t)

	req := validCareerRequest()
	req.PositionKey = "janitor"

	result, fieldErrs, err := svc.Submit(context.Background(), req)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if result != nil {
		t.Errorf("result = %+v, want nil", result)
	}
	if len(fieldErrs) != 1 || fieldErrs[0].Field != "position_key" {
		t.Errorf("field errors = %+v", fieldErrs)
	}

	page, _ := applications.List(context.Background(), career.ListFilter{})
	if page.Total != 0 {
		t.Errorf("applications persisted on validation failure: %d", page.Total)
	}
	if len(notifier.messages) != 0 {
		t.Errorf("notifications queued on validation failure: %d", len(notifier.messages))
	}
}

func TestCareerSubmitSuccess(t *testing.T) {
	svc, applications, attachments, notifier := newCareerFixture(t)

	req := validCareerRequest()
	req.CV = &Upload{Filename: "cv.pdf", MimeType: "application/pdf", Size: 4096, Content: strings.NewReader("cv bytes")}
	req.CertificationDocs = []Upload{
		{Filename: "cert-a.pdf", Size: 100, Content: strings.NewReader("a")},
		{Filename: "cert-b.png", Size: 100, Content: strings.NewReader("b")},
	}

	result, fieldErrs, err := svc.Submit(context.Background(), req)
	if err != nil || len(fieldErrs) > 0 {
		t.Fatalf("Submit: err=%v fieldErrs=%+v", err, fieldErrs)
	}

	pattern := regexp.MustCompile(`^GWPL-HR-\d{4}-\d{5}$`)
	if !pattern.MatchString(result.Reference) {
		t.Errorf("Reference = %q, want %v", result.Reference, pattern)
	}
	if result.Position != "GSOC Surveillance Operator" {
		t.Errorf("Position = %q", result.Position)
	}

	page, _ := applications.List(context.Background(), career.ListFilter{})
	if page.Total != 1 {
		t.Fatalf("applications stored = %d, want 1", page.Total)
	}
	a := page.Items[0]
	if a.PositionCode != "GSO" || a.PositionApplied != "GSOC Surveillance Operator" {
		t.Errorf("position fields = %q/%q", a.PositionCode, a.PositionApplied)
	}

	// The PNG certification doc is outside the document allow-list.
	saved, err := attachments.ListBySubmission(context.Background(), a.ID, attachment.KindCareers)
	if err != nil {
		t.Fatalf("ListBySubmission: %v", err)
	}
	if len(saved) != 2 {
		t.Fatalf("saved %d documents, want 2 (png skipped)", len(saved))
	}
	if !strings.HasPrefix(saved[0].StoredName, "cv_") {
		t.Errorf("StoredName = %q, want cv_ prefix", saved[0].StoredName)
	}
	if saved[0].MimeType != "application/pdf" {
		t.Errorf("MimeType = %q, want application/pdf", saved[0].MimeType)
	}

	if len(notifier.messages) != 2 {
		t.Fatalf("queued %d notifications, want 2", len(notifier.messages))
	}
	templates := map[string]bool{}
	for _, m := range notifier.messages {
		templates[m.Template] = true
	}
	if !templates[notify.TemplateCareerConfirm] || !templates[notify.TemplateHRAlert] {
		t.Errorf("templates queued: %+v", templates)
	}
}

func TestCareerSubmitCapsCertificationDocs(t *testing.T) {
	svc, applications, attachments, _ := newCareerFixture(t)

	req := validCareerRequest()
	for i := 0; i < MaxCertificationDocs+3; i++ {
		req.CertificationDocs = append(req.CertificationDocs, Upload{
			Filename: fmt.Sprintf("cert-%d.pdf", i),
			Size:     100,
			Content:  strings.NewReader("x"),
		})
	}

	_, fieldErrs, err := svc.Submit(context.Background(), req)
	if err != nil || len(fieldErrs) > 0 {
		t.Fatalf("Submit: err=%v fieldErrs=%+v", err, fieldErrs)
	}

	page, _ := applications.List(context.Background(), career.ListFilter{})
	saved, _ := attachments.ListBySubmission(context.Background(), page.Items[0].ID, attachment.KindCareers)
	if len(saved) != MaxCertificationDocs {
		t.Errorf("saved %d documents, want %d", len(saved), MaxCertificationDocs)
	}
}
