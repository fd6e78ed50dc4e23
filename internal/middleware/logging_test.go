package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newCapturedLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewJSONHandler(&buf, nil)), &buf
}

func decodeLogLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to decode log line %q: %v", buf.String(), err)
	}
	return entry
}

func TestLogging_RecordsRequestFields(t *testing.T) {
	logger, buf := newCapturedLogger()

	handler := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"success":true}`))
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/audit/submit", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	entry := decodeLogLine(t, buf)
	if entry["method"] != http.MethodPost {
		t.Errorf("method = %v, want POST", entry["method"])
	}
	if entry["path"] != "/api/audit/submit" {
		t.Errorf("path = %v, want /api/audit/submit", entry["path"])
	}
	if entry["status"] != float64(http.StatusCreated) {
		t.Errorf("status = %v, want 201", entry["status"])
	}
	if entry["size"] != float64(len(`{"success":true}`)) {
		t.Errorf("size = %v, want %d", entry["size"], len(`{"success":true}`))
	}
	if entry["level"] != "INFO" {
		t.Errorf("level = %v, want INFO", entry["level"])
	}
}

func TestLogging_ErrorCodeFromHandler(t *testing.T) {
	logger, buf := newCapturedLogger()

	handler := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Handlers deep in the chain report a code for the access log.
		SetErrorCode(r.Context(), "validation_failed")
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/careers/apply", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	entry := decodeLogLine(t, buf)
	if entry["error_code"] != "validation_failed" {
		t.Errorf("error_code = %v, want validation_failed", entry["error_code"])
	}
	if entry["level"] != "WARN" {
		t.Errorf("level = %v, want WARN for 4xx", entry["level"])
	}
}

func TestLogging_StaffIDFromAuth(t *testing.T) {
	logger, buf := newCapturedLogger()

	handler := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		SetStaffID(r.Context(), "staff-123")
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/admin/me", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	entry := decodeLogLine(t, buf)
	if entry["staff_id"] != "staff-123" {
		t.Errorf("staff_id = %v, want staff-123", entry["staff_id"])
	}
}

func TestLogging_ServerErrorLevel(t *testing.T) {
	logger, buf := newCapturedLogger()

	handler := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/admin/dashboard", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	entry := decodeLogLine(t, buf)
	if entry["level"] != "ERROR" {
		t.Errorf("level = %v, want ERROR for 5xx", entry["level"])
	}
}

func TestScopeAccessors_NoScopeInstalled(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)

	if got := GetStaffID(req.Context()); got != "" {
		t.Errorf("GetStaffID = %q, want empty", got)
	}
	if got := GetErrorCode(req.Context()); got != "" {
		t.Errorf("GetErrorCode = %q, want empty", got)
	}

	// Without the holder the setters fall back to context values.
	ctx := SetStaffID(req.Context(), "abc")
	if got := GetStaffID(ctx); got != "abc" {
		t.Errorf("GetStaffID after set = %q, want abc", got)
	}
}
