package health

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

type stubChecker struct {
	err error
}

func (c stubChecker) HealthCheck(ctx context.Context) error {
	return c.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func serve(t *testing.T, h *Handler) (int, Response) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON response %q: %v", rec.Body.String(), err)
	}
	return rec.Code, resp
}

func TestHandler_Healthy(t *testing.T) {
	h := NewHandler(stubChecker{}, testLogger())

	code, resp := serve(t, h)
	if code != http.StatusOK {
		t.Errorf("status = %d, want %d", code, http.StatusOK)
	}
	if resp.Status != "ok" {
		t.Errorf("Status = %q, want ok", resp.Status)
	}
	if resp.Database != "ok" {
		t.Errorf("Database = %q, want ok", resp.Database)
	}
	if resp.UptimeSecs < 0 {
		t.Errorf("UptimeSecs = %f, want >= 0", resp.UptimeSecs)
	}
}

func TestHandler_DatabaseDown(t *testing.T) {
	h := NewHandler(stubChecker{err: errors.New("connection refused")}, testLogger())

	code, resp := serve(t, h)
	if code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", code, http.StatusServiceUnavailable)
	}
	if resp.Status != "degraded" {
		t.Errorf("Status = %q, want degraded", resp.Status)
	}
	if resp.Database != "unreachable" {
		t.Errorf("Database = %q, want unreachable", resp.Database)
	}
}

func TestHandler_NoDatabase(t *testing.T) {
	h := NewHandler(nil, testLogger())

	code, resp := serve(t, h)
	if code != http.StatusOK {
		t.Errorf("status = %d, want %d", code, http.StatusOK)
	}
	if resp.Database != "none" {
		t.Errorf("Database = %q, want none", resp.Database)
	}
}
