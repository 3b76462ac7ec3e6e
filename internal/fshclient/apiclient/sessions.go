package apiclient

import (
	"fmt"
	"time"
)

// Session mirrors adminapi's sessionView.
type Session struct {
	ID        string    `json:"id"`
	State     string    `json:"state"`
	Folder    string    `json:"folder,omitempty"`
	RemoteIP  string    `json:"remote_addr"`
	CreatedAt time.Time `json:"created_at"`
}

type sessionListResponse struct {
	Sessions []Session `json:"sessions"`
	Count    int       `json:"count"`
}

// ListSessions calls GET /api/v1/sessions.
func (c *Client) ListSessions() ([]Session, error) {
	var resp sessionListResponse
	if err := c.get("/api/v1/sessions", &resp); err != nil {
		return nil, err
	}
	return resp.Sessions, nil
}

// GetSession calls GET /api/v1/sessions/{id}.
func (c *Client) GetSession(id string) (*Session, error) {
	var s Session
	if err := c.get(fmt.Sprintf("/api/v1/sessions/%s", id), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// EvictSession calls DELETE /api/v1/sessions/{id}.
func (c *Client) EvictSession(id string) error {
	return c.delete(fmt.Sprintf("/api/v1/sessions/%s", id), nil)
}
