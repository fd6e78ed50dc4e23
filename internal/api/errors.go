// Package api provides the HTTP handlers and response envelope for the
// intake backend.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gwplsec/backend/internal/intake"
	"github.com/gwplsec/backend/internal/middleware"
)

// Error codes recorded in the access log for 4xx/5xx responses.
const (
	// ErrCodeValidation indicates input validation failure.
	ErrCodeValidation = "validation_error"

	// ErrCodeAuthFailed indicates authentication failure.
	ErrCodeAuthFailed = "auth_failed"

	// ErrCodeNotFound indicates the requested resource was not found.
	ErrCodeNotFound = "not_found"

	// ErrCodeForbidden indicates the request is forbidden.
	ErrCodeForbidden = "forbidden"

	// ErrCodeConflict indicates a conflict with the current state.
	ErrCodeConflict = "conflict"

	// ErrCodeBadRequest indicates a malformed request.
	ErrCodeBadRequest = "bad_request"

	// ErrCodeInternal indicates an internal server error.
	ErrCodeInternal = "internal_error"
)

// errorResponse is the error envelope: {"success":false,"error":"..."}.
type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// validationResponse is the 422 envelope carrying per-field errors.
type validationResponse struct {
	Success bool                `json:"success"`
	Errors  []intake.FieldError `json:"errors"`
}

// WriteError writes the standard error envelope and records the error
// code for the access log.
func WriteError(w http.ResponseWriter, ctx context.Context, status int, code, message string) {
	middleware.SetErrorCode(ctx, code)

	data, err := json.Marshal(errorResponse{Error: message})
	if err != nil {
		slog.ErrorContext(ctx, "failed to marshal error response", "error", err)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("Internal server error"))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		slog.ErrorContext(ctx, "failed to write error response", "error", err)
	}
}

// WriteValidationErrors writes the 422 envelope used by both intake
// forms and the admin validation paths.
func WriteValidationErrors(w http.ResponseWriter, ctx context.Context, errs []intake.FieldError) {
	middleware.SetErrorCode(ctx, ErrCodeValidation)
	WriteJSON(w, ctx, http.StatusUnprocessableEntity, validationResponse{Errors: errs})
}

// WriteJSON writes v with the given status. Marshal failures degrade to
// a plain 500; by then the status line may already be out, so they are
// only logged.
func WriteJSON(w http.ResponseWriter, ctx context.Context, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.ErrorContext(ctx, "failed to marshal response", "error", err)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Internal server error")
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		slog.ErrorContext(ctx, "failed to write response", "error", err)
	}
}
