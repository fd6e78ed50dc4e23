package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gwplsec/backend/internal/staff"
)

// Verifier resolves a bearer token to an active staff account.
type Verifier interface {
	Verify(ctx context.Context, token string) (*staff.Account, error)
}

type principalKey struct{}

// GetPrincipal retrieves the authenticated staff account from the
// context, or nil when the request is unauthenticated.
func GetPrincipal(ctx context.Context) *staff.Account {
	account, ok := ctx.Value(principalKey{}).(*staff.Account)
	if !ok {
		return nil
	}
	return account
}

// RequireAuth returns middleware that rejects requests without a valid
// Bearer token. The resolved account is stored in the request context.
func RequireAuth(verifier Verifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				writeAuthError(w, http.StatusUnauthorized, "Authentication required.")
				SetErrorCode(r.Context(), "missing_token")
				return
			}

			account, err := verifier.Verify(r.Context(), token)
			if err != nil {
				logger.Warn("rejected token",
					slog.String("request_id", GetRequestID(r.Context())),
					slog.String("error", err.Error()),
				)
				writeAuthError(w, http.StatusUnauthorized, "Invalid or expired token.")
				SetErrorCode(r.Context(), "invalid_token")
				return
			}

			ctx := context.WithValue(r.Context(), principalKey{}, account)
			SetStaffID(ctx, account.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole returns middleware that limits a route to the given
// roles. It must run after RequireAuth.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			account := GetPrincipal(r.Context())
			if account == nil {
				writeAuthError(w, http.StatusUnauthorized, "Not authenticated.")
				SetErrorCode(r.Context(), "missing_token")
				return
			}
			if _, ok := allowed[account.Role]; !ok {
				writeAuthError(w, http.StatusForbidden, "Insufficient permissions.")
				SetErrorCode(r.Context(), "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"success":false,"error":"` + message + `"}`))
}
