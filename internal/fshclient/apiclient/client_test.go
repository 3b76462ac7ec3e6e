package apiclient

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListSessions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/sessions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(sessionListResponse{
			Sessions: []Session{{ID: "sess-1", State: "ready"}},
			Count:    1,
		})
	}))
	defer srv.Close()

	client := New(srv.URL).WithToken("secret")
	sessions, err := client.ListSessions()
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "sess-1", sessions[0].ID)
}

func TestErrorResponseDecodesProblem(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(Problem{Status: 404, Title: "not found", Detail: "no session with id x"})
	}))
	defer srv.Close()

	client := New(srv.URL).WithToken("secret")
	_, err := client.GetSession("x")
	require.Error(t, err)

	var problem *Problem
	require.ErrorAs(t, err, &problem)
	assert.True(t, problem.IsNotFound())
}

func TestListAuditEventsWithLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		_ = json.NewEncoder(w).Encode(auditListResponse{Events: nil, Count: 0})
	}))
	defer srv.Close()

	client := New(srv.URL)
	events, err := client.ListAuditEvents(5)
	require.NoError(t, err)
	assert.Empty(t, events)
}
