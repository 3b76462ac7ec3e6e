package adminapi

import (
	"net/http"
	"time"
)

// healthHandler answers liveness/readiness probes, grounded on the
// teacher's controlplane/api/handlers.HealthHandler.
type healthHandler struct {
	srv       sessionLister
	startTime time.Time
}

func newHealthHandler(srv sessionLister) *healthHandler {
	return &healthHandler{srv: srv, startTime: time.Now()}
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
}

// Liveness handles GET /health - always succeeds while the process runs.
func (h *healthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	uptime := time.Since(h.startTime)
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Data: map[string]any{
			"service":    "fshd",
			"started_at": h.startTime.UTC().Format(time.RFC3339),
			"uptime":     uptime.Round(time.Second).String(),
		},
	})
}

// Readiness handles GET /health/ready - reports the session registry is up.
func (h *healthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.srv == nil {
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unhealthy", Timestamp: time.Now().UTC()})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Data:      map[string]any{"sessions": len(h.srv.Sessions())},
	})
}
