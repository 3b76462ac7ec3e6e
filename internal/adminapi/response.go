package adminapi

import (
	"encoding/json"
	"net/http"
)

// Problem is an RFC 7807 problem-details error body, grounded on the
// teacher's controlplane/api/handlers.Problem.
type Problem struct {
	Type   string `json:"type,omitempty"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Problem{Type: "about:blank", Title: title, Status: status, Detail: detail})
}

func badRequest(w http.ResponseWriter, detail string) { writeProblem(w, http.StatusBadRequest, "Bad Request", detail) }

func notFound(w http.ResponseWriter, detail string) { writeProblem(w, http.StatusNotFound, "Not Found", detail) }

func internalError(w http.ResponseWriter, detail string) {
	writeProblem(w, http.StatusInternalServerError, "Internal Server Error", detail)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
