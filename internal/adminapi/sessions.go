package adminapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/NTD-LAB/FSH/internal/session"
)

// sessionLister is the subset of *server.Server the admin API needs,
// narrowed so this package does not import internal/server; cmd/fshd
// passes the server in when it mounts these routes.
type sessionLister interface {
	Sessions() []*session.Session
	Session(id string) (*session.Session, bool)
	SessionCount() int
}

type sessionView struct {
	ID        string    `json:"id"`
	State     string    `json:"state"`
	Folder    string    `json:"folder,omitempty"`
	RemoteIP  string    `json:"remote_addr"`
	CreatedAt time.Time `json:"created_at"`
}

func newSessionView(s *session.Session) sessionView {
	return sessionView{
		ID:        s.ID(),
		State:     s.State().String(),
		Folder:    s.Folder(),
		RemoteIP:  s.RemoteAddr(),
		CreatedAt: s.CreatedAt(),
	}
}

type sessionHandler struct {
	srv sessionLister
}

// List handles GET /api/v1/sessions.
func (h *sessionHandler) List(w http.ResponseWriter, r *http.Request) {
	sessions := h.srv.Sessions()
	views := make([]sessionView, 0, len(sessions))
	for _, s := range sessions {
		views = append(views, newSessionView(s))
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": views, "count": len(views)})
}

// Get handles GET /api/v1/sessions/{id}.
func (h *sessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s, ok := h.srv.Session(id)
	if !ok {
		notFound(w, "no session with id "+id)
		return
	}
	writeJSON(w, http.StatusOK, newSessionView(s))
}

// Evict handles DELETE /api/v1/sessions/{id} - forcibly closes a session.
func (h *sessionHandler) Evict(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s, ok := h.srv.Session(id)
	if !ok {
		notFound(w, "no session with id "+id)
		return
	}
	s.Close("evicted by admin")
	writeJSON(w, http.StatusOK, map[string]string{"status": "evicted", "id": id})
}
