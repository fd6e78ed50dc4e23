package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"
)

// scopeKey is the context key for the per-request scope.
type scopeKey struct{}

// requestScope carries values set by inner middleware and handlers that
// the access log needs after the handler returns. Context values flow
// down the chain, not up, so Logging installs one mutable scope up front.
type requestScope struct {
	staffID   string
	errorCode string
}

func scopeFrom(ctx context.Context) *requestScope {
	s, _ := ctx.Value(scopeKey{}).(*requestScope)
	return s
}

// SetStaffID records the authenticated staff account ID for the access
// log. Called by the auth middleware after verifying the token.
func SetStaffID(ctx context.Context, id string) context.Context {
	if s := scopeFrom(ctx); s != nil {
		s.staffID = id
		return ctx
	}
	return context.WithValue(ctx, scopeKey{}, &requestScope{staffID: id})
}

// GetStaffID retrieves the staff account ID, or "" if the request is
// unauthenticated.
func GetStaffID(ctx context.Context) string {
	if s := scopeFrom(ctx); s != nil {
		return s.staffID
	}
	return ""
}

// SetErrorCode records an error code for the access log. Called by
// handlers when returning error responses.
func SetErrorCode(ctx context.Context, code string) context.Context {
	if s := scopeFrom(ctx); s != nil {
		s.errorCode = code
		return ctx
	}
	return context.WithValue(ctx, scopeKey{}, &requestScope{errorCode: code})
}

// GetErrorCode retrieves the error code, or "" if not set.
func GetErrorCode(ctx context.Context) string {
	if s := scopeFrom(ctx); s != nil {
		return s.errorCode
	}
	return ""
}

// responseWriter wraps http.ResponseWriter to capture status code and
// response size.
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	size        int
	wroteHeader bool
}

// WriteHeader captures the status code. Only the first call counts,
// matching http.ResponseWriter behavior.
func (rw *responseWriter) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.statusCode = code
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.size += n
	return n, err
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

// NewLogger creates an slog.Logger based on the environment: JSON output
// for production, text for development.
func NewLogger(env string) *slog.Logger {
	var handler slog.Handler
	if env == "production" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
	}
	return slog.New(handler)
}

// Logging logs every request with structured fields: method, path,
// status, latency, response size, request ID, and for authenticated
// requests the staff account ID. Error responses also carry the error
// code set by the handler.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			scope := &requestScope{}
			r = r.WithContext(context.WithValue(r.Context(), scopeKey{}, scope))

			rw := newResponseWriter(w)
			next.ServeHTTP(rw, r)

			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rw.statusCode),
				slog.Int64("latency_ms", time.Since(start).Milliseconds()),
				slog.Int("size", rw.size),
			}
			if requestID := GetRequestID(r.Context()); requestID != "" {
				attrs = append(attrs, slog.String("request_id", requestID))
			}
			if scope.staffID != "" {
				attrs = append(attrs, slog.String("staff_id", scope.staffID))
			}
			if rw.statusCode >= 400 && scope.errorCode != "" {
				attrs = append(attrs, slog.String("error_code", scope.errorCode))
			}

			level := slog.LevelInfo
			switch {
			case rw.statusCode >= 500:
				level = slog.LevelError
			case rw.statusCode >= 400:
				level = slog.LevelWarn
			}
			logger.LogAttrs(r.Context(), level, "request completed", attrs...)
		})
	}
}
