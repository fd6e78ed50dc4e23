package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// staticPaths are routes observed under their literal path.
var staticPaths = map[string]struct{}{
	"/api/audit/submit":          {},
	"/api/audit/submissions":     {},
	"/api/audit/stats/summary":   {},
	"/api/careers/apply":         {},
	"/api/careers/positions":     {},
	"/api/careers/applications":  {},
	"/api/careers/stats/summary": {},
	"/api/admin/login":           {},
	"/api/admin/me":              {},
	"/api/admin/dashboard":       {},
	"/api/admin/audit-log":       {},
	"/api/admin/users":           {},
	"/api/health":                {},
	"/metrics":                   {},
}

// normalizePath collapses path parameters so the metric label set stays
// bounded.
func normalizePath(path string) string {
	if _, ok := staticPaths[path]; ok {
		return path
	}
	switch {
	case strings.HasPrefix(path, "/api/audit/") && strings.HasSuffix(path, "/status"):
		return "/api/audit/{reference}/status"
	case strings.HasPrefix(path, "/api/audit/"):
		return "/api/audit/{id}"
	case strings.HasPrefix(path, "/api/careers/"):
		return "/api/careers/{id}"
	case strings.HasPrefix(path, "/api/admin/users/"):
		return "/api/admin/users/{id}"
	}
	return "/other"
}

// metricsResponseWriter tracks the status code and bytes written.
type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int64
}

func (w *metricsResponseWriter) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *metricsResponseWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.bytesWritten += int64(n)
	return n, err
}

// HTTPMetrics returns middleware that records request duration, count
// and sizes for every request except health probes.
func HTTPMetrics(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/api/health" {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			mw := &metricsResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(mw, r)

			metrics.ObserveHTTPRequest(
				r.Method,
				normalizePath(r.URL.Path),
				strconv.Itoa(mw.statusCode),
				time.Since(start).Seconds(),
				r.ContentLength,
				mw.bytesWritten,
			)
		})
	}
}
