package adminapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NTD-LAB/FSH/internal/config"
	"github.com/NTD-LAB/FSH/internal/session"
)

type fakeSessionLister struct {
	sessions map[string]*session.Session
}

func (f *fakeSessionLister) Sessions() []*session.Session {
	out := make([]*session.Session, 0, len(f.sessions))
	for _, s := range f.sessions {
		out = append(out, s)
	}
	return out
}

func (f *fakeSessionLister) Session(id string) (*session.Session, bool) {
	s, ok := f.sessions[id]
	return s, ok
}

func (f *fakeSessionLister) SessionCount() int { return len(f.sessions) }

type fakeRateLimitStatter struct {
	suspicious int
	blocked    int
}

func (f *fakeRateLimitStatter) SuspiciousCount() int          { return f.suspicious }
func (f *fakeRateLimitStatter) BlockedCount() (int, error)    { return f.blocked, nil }

func TestHealthLiveness(t *testing.T) {
	router := NewRouter(&config.Config{}, nil, nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthReadinessWithoutServer(t *testing.T) {
	router := NewRouter(&config.Config{}, nil, nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestFoldersList(t *testing.T) {
	cfg := &config.Config{Folders: []config.FolderConfig{
		{Name: "export", Path: "/srv/export", Permissions: []string{"read"}},
	}}
	router := NewRouter(cfg, nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/folders", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	folders := body["folders"].([]any)
	assert.Len(t, folders, 1)
}

func TestFoldersGetNotFound(t *testing.T) {
	router := NewRouter(&config.Config{}, nil, nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/folders/missing", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRateLimitStatsDisabled(t *testing.T) {
	router := NewRouter(&config.Config{}, nil, nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/ratelimit/stats", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["enabled"])
}

func TestRateLimitStatsEnabled(t *testing.T) {
	stats := &fakeRateLimitStatter{suspicious: 2, blocked: 1}
	router := NewRouter(&config.Config{}, nil, stats, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/ratelimit/stats", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["enabled"])
	assert.Equal(t, float64(2), body["suspicious_count"])
}

func TestAuditListWithoutStoreReturnsEmpty(t *testing.T) {
	router := NewRouter(&config.Config{}, nil, nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/audit", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAuditListRejectsBadLimit(t *testing.T) {
	router := NewRouter(&config.Config{}, nil, nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/audit?limit=-1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSessionsEndpointsAbsentWithoutServer(t *testing.T) {
	router := NewRouter(&config.Config{}, nil, nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSessionsListWithServer(t *testing.T) {
	lister := &fakeSessionLister{sessions: map[string]*session.Session{}}
	router := NewRouter(&config.Config{}, lister, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}
