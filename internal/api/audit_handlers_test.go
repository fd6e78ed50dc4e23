package api

import (
	"context"
	"net/http"
	"regexp"
	"testing"

	"github.com/gwplsec/backend/internal/attachment"
	"github.com/gwplsec/backend/internal/audittrail"
	"github.com/gwplsec/backend/internal/staff"
	"github.com/gwplsec/backend/internal/submission"
)

var auditRefPattern = regexp.MustCompile(`^GWPL-\d{4}-\d{5}$`)

func TestAuditSubmit_Created(t *testing.T) {
	env := newTestEnv(t)

	body, contentType := multipartBody(t, validAuditFields(), map[string][]string{
		"attachments": {"evidence.pdf", "photo.jpg"},
	})
	rec := env.do(t, http.MethodPost, "/api/audit/submit", "", body, contentType)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d. Body: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	resp := decodeBody(t, rec)
	if resp["success"] != true {
		t.Error("success = false, want true")
	}
	ref, _ := resp["reference_number"].(string)
	if !auditRefPattern.MatchString(ref) {
		t.Errorf("reference_number = %q, want GWPL-YYYY-NNNNN format", ref)
	}
	if msg, _ := resp["message"].(string); msg == "" {
		t.Error("message is empty")
	}

	c, err := env.cases.GetByReference(context.Background(), ref)
	if err != nil {
		t.Fatalf("GetByReference(%s) error = %v", ref, err)
	}
	if c.ThreatLevel != "critical" {
		t.Errorf("ThreatLevel = %q, want critical", c.ThreatLevel)
	}
}

func TestAuditSubmit_ValidationErrors(t *testing.T) {
	env := newTestEnv(t)

	fields := validAuditFields()
	delete(fields, "first_name")
	fields["email"] = "not-an-email"
	fields["situation_summary"] = "too short"

	body, contentType := multipartBody(t, fields, nil)
	rec := env.do(t, http.MethodPost, "/api/audit/submit", "", body, contentType)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d. Body: %s", rec.Code, http.StatusUnprocessableEntity, rec.Body.String())
	}
	failed := fieldErrorSet(t, rec)
	for _, field := range []string{"first_name", "email", "situation_summary"} {
		if !failed[field] {
			t.Errorf("missing validation error for %q. Got: %v", field, failed)
		}
	}

	page, err := env.cases.List(context.Background(), submission.ListFilter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if page.Total != 0 {
		t.Errorf("case count = %d after rejected submission, want 0", page.Total)
	}
}

func TestAuditStatus_Lookup(t *testing.T) {
	env := newTestEnv(t)

	body, contentType := multipartBody(t, validAuditFields(), nil)
	rec := env.do(t, http.MethodPost, "/api/audit/submit", "", body, contentType)
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit status = %d. Body: %s", rec.Code, rec.Body.String())
	}
	ref := decodeBody(t, rec)["reference_number"].(string)

	rec = env.do(t, http.MethodGet, "/api/audit/"+ref+"/status", "", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d. Body: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	data := decodeBody(t, rec)["data"].(map[string]any)
	if data["reference_number"] != ref {
		t.Errorf("data.reference_number = %v, want %s", data["reference_number"], ref)
	}
	if data["status"] != "new" {
		t.Errorf("data.status = %v, want new", data["status"])
	}
}

func TestAuditStatus_NotFound(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/audit/GWPL-2026-99999/status", "", nil, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	resp := decodeBody(t, rec)
	if resp["error"] != "Reference not found." {
		t.Errorf("error = %v, want %q", resp["error"], "Reference not found.")
	}
}

func TestAuditList_RequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/audit/submissions", "", nil, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status without token = %d, want %d", rec.Code, http.StatusUnauthorized)
	}

	_, token := env.seedAccount(t, "viewer@gwplsecurity.com", staff.RoleViewer)
	rec = env.do(t, http.MethodGet, "/api/audit/submissions", token, nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status with token = %d, want %d. Body: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	resp := decodeBody(t, rec)
	if resp["success"] != true {
		t.Error("success = false, want true")
	}
}

func TestAuditList_FiltersByThreatLevel(t *testing.T) {
	env := newTestEnv(t)

	for _, level := range []string{"critical", "routine", "critical"} {
		fields := validAuditFields()
		fields["threat_level"] = level
		body, contentType := multipartBody(t, fields, nil)
		if rec := env.do(t, http.MethodPost, "/api/audit/submit", "", body, contentType); rec.Code != http.StatusCreated {
			t.Fatalf("submit status = %d. Body: %s", rec.Code, rec.Body.String())
		}
	}

	_, token := env.seedAccount(t, "viewer@gwplsecurity.com", staff.RoleViewer)
	rec := env.do(t, http.MethodGet, "/api/audit/submissions?threat_level=critical", token, nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d. Body: %s", rec.Code, rec.Body.String())
	}
	resp := decodeBody(t, rec)
	if total := resp["total"].(float64); total != 2 {
		t.Errorf("total = %v, want 2", total)
	}
}

func TestAuditGet_IncludesAttachments(t *testing.T) {
	env := newTestEnv(t)

	body, contentType := multipartBody(t, validAuditFields(), map[string][]string{
		"attachments": {"evidence.pdf"},
	})
	rec := env.do(t, http.MethodPost, "/api/audit/submit", "", body, contentType)
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit status = %d. Body: %s", rec.Code, rec.Body.String())
	}
	ref := decodeBody(t, rec)["reference_number"].(string)
	c, err := env.cases.GetByReference(context.Background(), ref)
	if err != nil {
		t.Fatalf("GetByReference() error = %v", err)
	}

	_, token := env.seedAccount(t, "viewer@gwplsecurity.com", staff.RoleViewer)
	rec = env.do(t, http.MethodGet, "/api/audit/"+c.ID, token, nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d. Body: %s", rec.Code, rec.Body.String())
	}
	data := decodeBody(t, rec)["data"].(map[string]any)
	files, ok := data["attachments"].([]any)
	if !ok {
		t.Fatalf("data.attachments missing or not a list: %v", data["attachments"])
	}
	if len(files) != 1 {
		t.Errorf("len(attachments) = %d, want 1", len(files))
	}

	// The multipart part's Content-Type travels into the stored record.
	saved, err := env.attachments.ListBySubmission(context.Background(), c.ID, attachment.KindAudit)
	if err != nil {
		t.Fatalf("ListBySubmission() error = %v", err)
	}
	if len(saved) != 1 || saved[0].MimeType != "application/octet-stream" {
		t.Errorf("stored attachments = %+v, want one with the part's content type", saved)
	}
}

func TestAuditUpdate_RoleGate(t *testing.T) {
	env := newTestEnv(t)

	_, viewerToken := env.seedAccount(t, "viewer@gwplsecurity.com", staff.RoleViewer)
	rec := env.doJSON(t, http.MethodPatch, "/api/audit/some-id", viewerToken, map[string]any{"status": "acknowledged"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("viewer patch status = %d, want %d", rec.Code, http.StatusForbidden)
	}
	resp := decodeBody(t, rec)
	if resp["error"] != "Insufficient permissions." {
		t.Errorf("error = %v, want %q", resp["error"], "Insufficient permissions.")
	}
}

func TestAuditUpdate_RecordsAuditEvent(t *testing.T) {
	env := newTestEnv(t)

	body, contentType := multipartBody(t, validAuditFields(), nil)
	rec := env.do(t, http.MethodPost, "/api/audit/submit", "", body, contentType)
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit status = %d. Body: %s", rec.Code, rec.Body.String())
	}
	ref := decodeBody(t, rec)["reference_number"].(string)
	c, err := env.cases.GetByReference(context.Background(), ref)
	if err != nil {
		t.Fatalf("GetByReference() error = %v", err)
	}

	analyst, token := env.seedAccount(t, "analyst@gwplsecurity.com", staff.RoleAnalyst)
	rec = env.doJSON(t, http.MethodPatch, "/api/audit/"+c.ID, token, map[string]any{"status": "acknowledged"})
	if rec.Code != http.StatusOK {
		t.Fatalf("patch status = %d. Body: %s", rec.Code, rec.Body.String())
	}
	if msg := decodeBody(t, rec)["message"]; msg != "Updated successfully." {
		t.Errorf("message = %v, want %q", msg, "Updated successfully.")
	}

	updated, err := env.cases.GetByID(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if updated.Status != "acknowledged" {
		t.Errorf("Status = %q, want acknowledged", updated.Status)
	}

	events, err := env.events.List(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	var found bool
	for _, e := range events {
		if e.Action == audittrail.ActionUpdateAudit && e.EntityID == c.ID {
			found = true
			if e.AdminID == nil || *e.AdminID != analyst.ID {
				t.Errorf("event AdminID = %v, want %s", e.AdminID, analyst.ID)
			}
		}
	}
	if !found {
		t.Error("no UPDATE_AUDIT event recorded")
	}
}

func TestAuditUpdate_EmptyPatch(t *testing.T) {
	env := newTestEnv(t)

	_, token := env.seedAccount(t, "admin@gwplsecurity.com", staff.RoleAdmin)
	rec := env.doJSON(t, http.MethodPatch, "/api/audit/some-id", token, map[string]any{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d. Body: %s", rec.Code, http.StatusBadRequest, rec.Body.String())
	}
	if resp := decodeBody(t, rec); resp["error"] != "No valid fields to update." {
		t.Errorf("error = %v, want %q", resp["error"], "No valid fields to update.")
	}
}

func TestAuditUpdate_NotFound(t *testing.T) {
	env := newTestEnv(t)

	_, token := env.seedAccount(t, "admin@gwplsecurity.com", staff.RoleAdmin)
	rec := env.doJSON(t, http.MethodPatch, "/api/audit/missing-id", token, map[string]any{"status": "resolved"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d. Body: %s", rec.Code, http.StatusNotFound, rec.Body.String())
	}
}

func TestAuditStats_Summary(t *testing.T) {
	env := newTestEnv(t)

	body, contentType := multipartBody(t, validAuditFields(), nil)
	if rec := env.do(t, http.MethodPost, "/api/audit/submit", "", body, contentType); rec.Code != http.StatusCreated {
		t.Fatalf("submit status = %d. Body: %s", rec.Code, rec.Body.String())
	}

	_, token := env.seedAccount(t, "viewer@gwplsecurity.com", staff.RoleViewer)
	rec := env.do(t, http.MethodGet, "/api/audit/stats/summary", token, nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d. Body: %s", rec.Code, rec.Body.String())
	}
	data := decodeBody(t, rec)["data"].(map[string]any)
	if total := data["total"].(float64); total != 1 {
		t.Errorf("data.total = %v, want 1", total)
	}
}
