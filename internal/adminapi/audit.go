package adminapi

import (
	"net/http"
	"strconv"

	"github.com/NTD-LAB/FSH/internal/security/audit"
)

// auditQuerier is the subset of *audit.GORMStore the admin API needs. The
// OTLP audit sink does not implement it; when that backend is configured
// the audit log endpoint answers with an empty event list.
type auditQuerier interface {
	Query(limit int) ([]audit.Event, error)
}

type auditHandler struct {
	store auditQuerier
}

// List handles GET /api/v1/audit?limit=N - the most recent audit events,
// newest first.
func (h *auditHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			badRequest(w, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	if h.store == nil {
		writeJSON(w, http.StatusOK, map[string]any{"events": []audit.Event{}})
		return
	}

	events, err := h.store.Query(limit)
	if err != nil {
		internalError(w, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events, "count": len(events)})
}
