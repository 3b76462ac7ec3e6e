package adminapi

import "net/http"

// rateLimitStatter is the subset of *ratelimit.Guard the admin API reports
// on. Narrowed to avoid a hard dependency on the guard's internal limiter
// types.
type rateLimitStatter interface {
	SuspiciousCount() int
	BlockedCount() (int, error)
}

type rateLimitHandler struct {
	stats rateLimitStatter
}

// Stats handles GET /api/v1/ratelimit/stats.
func (h *rateLimitHandler) Stats(w http.ResponseWriter, r *http.Request) {
	if h.stats == nil {
		writeJSON(w, http.StatusOK, map[string]any{"enabled": false})
		return
	}

	blocked, err := h.stats.BlockedCount()
	if err != nil {
		internalError(w, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"enabled":          true,
		"suspicious_count": h.stats.SuspiciousCount(),
		"blocked_count":    blocked,
	})
}
