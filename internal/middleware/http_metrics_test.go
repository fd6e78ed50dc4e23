package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/api/audit/submit", "/api/audit/submit"},
		{"/api/audit/submissions", "/api/audit/submissions"},
		{"/api/audit/stats/summary", "/api/audit/stats/summary"},
		{"/api/audit/GWPL-2026-48213/status", "/api/audit/{reference}/status"},
		{"/api/audit/53", "/api/audit/{id}"},
		{"/api/careers/apply", "/api/careers/apply"},
		{"/api/careers/positions", "/api/careers/positions"},
		{"/api/careers/17", "/api/careers/{id}"},
		{"/api/admin/login", "/api/admin/login"},
		{"/api/admin/users", "/api/admin/users"},
		{"/api/admin/users/9", "/api/admin/users/{id}"},
		{"/api/health", "/api/health"},
		{"/metrics", "/metrics"},
		{"/favicon.ico", "/other"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := normalizePath(tt.path); got != tt.want {
				t.Errorf("normalizePath(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestHTTPMetrics_RecordsRequests(t *testing.T) {
	m := NewMetrics()
	reg := prometheus.NewRegistry()
	if err := m.Register(reg); err != nil {
		t.Fatalf("Register() failed: %v", err)
	}

	handler := HTTPMetrics(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"success":true}`))
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/audit/submit", strings.NewReader(`{}`))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rr.Code)
	}
	if got := counterValue(t, m.httpRequestsTotal, "POST", "/api/audit/submit", "201"); got != 1 {
		t.Errorf("request count = %v, want 1", got)
	}
}

func TestHTTPMetrics_NormalizesDynamicPaths(t *testing.T) {
	m := NewMetrics()

	handler := HTTPMetrics(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, ref := range []string{"GWPL-2026-12345", "GWPL-2026-54321"} {
		req := httptest.NewRequest(http.MethodGet, "/api/audit/"+ref+"/status", nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
	}

	// Both requests collapse to one label value.
	if got := counterValue(t, m.httpRequestsTotal, "GET", "/api/audit/{reference}/status", "200"); got != 2 {
		t.Errorf("request count = %v, want 2", got)
	}
}

func TestHTTPMetrics_ExcludesHealth(t *testing.T) {
	m := NewMetrics()

	handler := HTTPMetrics(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if got := counterValue(t, m.httpRequestsTotal, "GET", "/api/health", "200"); got != 0 {
		t.Errorf("health request count = %v, want 0", got)
	}
}

func TestHTTPMetrics_DefaultsTo200WithoutWriteHeader(t *testing.T) {
	m := NewMetrics()

	handler := HTTPMetrics(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/careers/positions", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if got := counterValue(t, m.httpRequestsTotal, "GET", "/api/careers/positions", "200"); got != 1 {
		t.Errorf("request count = %v, want 1", got)
	}
}
