package adminapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/NTD-LAB/FSH/internal/config"
)

type folderView struct {
	Name        string   `json:"name"`
	Path        string   `json:"path"`
	Permissions []string `json:"permissions"`
}

type folderHandler struct {
	cfg *config.Config
}

// List handles GET /api/v1/folders - the configured folder roots (spec
// §4.1 FolderConfig), read-only: folder configuration is static for a
// running fshd instance and changes only when fshd is restarted.
func (h *folderHandler) List(w http.ResponseWriter, r *http.Request) {
	views := make([]folderView, 0, len(h.cfg.Folders))
	for _, f := range h.cfg.Folders {
		views = append(views, folderView{Name: f.Name, Path: f.Path, Permissions: f.Permissions})
	}
	writeJSON(w, http.StatusOK, map[string]any{"folders": views})
}

// Get handles GET /api/v1/folders/{name}.
func (h *folderHandler) Get(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	for _, f := range h.cfg.Folders {
		if f.Name == name {
			writeJSON(w, http.StatusOK, folderView{Name: f.Name, Path: f.Path, Permissions: f.Permissions})
			return
		}
	}
	notFound(w, "no folder named "+name)
}
