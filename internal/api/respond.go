package api

import (
	"net/http"
	"strconv"

	"github.com/gwplsec/backend/internal/middleware"
)

// dataResponse wraps a payload in the success envelope.
type dataResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// messageResponse is the success envelope for mutations.
type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// queryInt parses a paging query parameter, zero when absent or
// malformed. Repositories clamp zero to their defaults.
func queryInt(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

// actorID returns the authenticated staff account ID as the audit trail
// expects it, or nil for unauthenticated requests.
func actorID(r *http.Request) *string {
	if account := middleware.GetPrincipal(r.Context()); account != nil {
		id := account.ID
		return &id
	}
	return nil
}
