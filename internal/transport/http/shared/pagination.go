package shared

import (
	"net/http"
	"strconv"
)

// ParseLimit reads the limit query parameter. Missing or non-positive values
// fall back to defaultLimit; values above maxLimit are clamped.
func ParseLimit(r *http.Request, defaultLimit, maxLimit int) int {
	limit := defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}
	if maxLimit > 0 && limit > maxLimit {
		limit = maxLimit
	}
	return limit
}
