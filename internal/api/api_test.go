package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gwplsec/backend/internal/attachment"
	"github.com/gwplsec/backend/internal/audittrail"
	"github.com/gwplsec/backend/internal/auth"
	"github.com/gwplsec/backend/internal/career"
	"github.com/gwplsec/backend/internal/intake"
	"github.com/gwplsec/backend/internal/middleware"
	"github.com/gwplsec/backend/internal/notify"
	"github.com/gwplsec/backend/internal/refgen"
	"github.com/gwplsec/backend/internal/staff"
	"github.com/gwplsec/backend/internal/storage"
	"github.com/gwplsec/backend/internal/submission"
)

// nopNotifier drops outbound messages; handler tests do not assert on
// email delivery.
type nopNotifier struct{}

func (nopNotifier) Enqueue(msg notify.Message) {}

// testEnv wires the full router against in-memory repositories.
type testEnv struct {
	handler http.Handler

	cases       *submission.InMemoryRepository
	apps        *career.InMemoryRepository
	attachments *attachment.InMemoryRepository
	accounts    *staff.InMemoryRepository
	emails      *notify.InMemoryRepository
	events      *audittrail.InMemoryRepository

	tokens *auth.TokenService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	env := &testEnv{
		cases:       submission.NewInMemoryRepository(),
		apps:        career.NewInMemoryRepository(),
		attachments: attachment.NewInMemoryRepository(),
		accounts:    staff.NewInMemoryRepository(),
		emails:      notify.NewInMemoryRepository(),
		events:      audittrail.NewInMemoryRepository(),
	}

	store, err := storage.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore() error = %v", err)
	}

	refs := refgen.New()
	trail := audittrail.NewRecorder(env.events, logger)
	templates := notify.Templates{
		BaseURL:     "http://localhost:3000",
		GSOCAlertTo: "gsoc@gwplsecurity.com",
		HRAlertTo:   "hr@gwplsecurity.com",
	}

	auditSvc := intake.NewAuditService(env.cases, env.attachments, store, refs, nopNotifier{}, templates, 20, logger)
	careerSvc := intake.NewCareerService(env.apps, env.attachments, store, refs, nopNotifier{}, templates, logger)

	env.tokens = auth.NewTokenService("test-secret-with-enough-length-for-hs256", time.Hour)
	authSvc := auth.NewService(env.accounts, env.tokens, trail, logger)

	env.handler = NewRouter(RouterConfig{
		Audit:   NewAuditHandlers(auditSvc, env.cases, env.attachments, trail, nil),
		Careers: NewCareerHandlers(careerSvc, env.apps, env.attachments, trail, nil),
		Admin:   NewAdminHandlers(authSvc, env.accounts, env.cases, env.apps, env.attachments, env.emails, env.events, trail),

		Verifier: authSvc,
		Logger:   logger,

		CORS: middleware.DefaultCORSConfig(nil),
	})
	return env
}

// seedAccount creates an active account and returns a valid token for
// it. The password hash is fixed and unusable; login tests hash their
// own.
func (env *testEnv) seedAccount(t *testing.T, email, role string) (*staff.Account, string) {
	t.Helper()
	account := &staff.Account{
		Email:        email,
		PasswordHash: "x",
		FullName:     "Test Staff",
		Role:         role,
		IsActive:     true,
	}
	if err := env.accounts.Create(context.Background(), account); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	token, err := env.tokens.Issue(account)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	return account, token
}

// do runs one request through the router.
func (env *testEnv) do(t *testing.T, method, target, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	return rec
}

// doJSON sends a JSON body.
func (env *testEnv) doJSON(t *testing.T, method, target, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	return env.do(t, method, target, token, bytes.NewReader(b), "application/json")
}

// decodeBody parses a JSON response body into a generic map.
func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("invalid JSON response %q: %v", rec.Body.String(), err)
	}
	return m
}

// multipartBody builds a multipart form from field values and optional
// files keyed by form field name.
func multipartBody(t *testing.T, fields map[string]string, files map[string][]string) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			t.Fatalf("WriteField(%s) error = %v", name, err)
		}
	}
	for field, names := range files {
		for _, name := range names {
			fw, err := w.CreateFormFile(field, name)
			if err != nil {
				t.Fatalf("CreateFormFile(%s) error = %v", field, err)
			}
			if _, err := io.Copy(fw, strings.NewReader("test file content")); err != nil {
				t.Fatalf("Copy() error = %v", err)
			}
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	return &buf, w.FormDataContentType()
}

// validAuditFields is a minimal passing audit submission form.
func validAuditFields() map[string]string {
	return map[string]string{
		"first_name":        "Adaeze",
		"last_name":         "Okonkwo",
		"email":             "adaeze@example.com",
		"phone_primary":     "+234-801-555-0101",
		"organisation_name": "Delta Logistics Ltd",
		"situation_summary": "Armed intrusion attempts at our depot over the past week.",
		"threat_level":      "critical",
		"state_region":      "Delta",
	}
}

// validCareerFields is a minimal passing career application form.
func validCareerFields() map[string]string {
	return map[string]string{
		"first_name":   "Chinedu",
		"last_name":    "Eze",
		"email":        "chinedu@example.com",
		"phone":        "+234-802-555-0199",
		"position_key": "gsoc-operator",
	}
}

// fieldErrorSet extracts the failing field names from a 422 body.
func fieldErrorSet(t *testing.T, rec *httptest.ResponseRecorder) map[string]bool {
	t.Helper()
	var body struct {
		Success bool `json:"success"`
		Errors  []struct {
			Field string `json:"field"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON response %q: %v", rec.Body.String(), err)
	}
	if body.Success {
		t.Error("validation response success = true, want false")
	}
	fields := make(map[string]bool, len(body.Errors))
	for _, e := range body.Errors {
		fields[e.Field] = true
	}
	return fields
}
