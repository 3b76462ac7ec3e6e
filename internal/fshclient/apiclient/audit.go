package apiclient

import (
	"fmt"
	"time"
)

// AuditEvent mirrors internal/security/audit.Event as returned by the
// admin API, duplicated here rather than imported so fshctl does not pull
// in GORM and its drivers.
type AuditEvent struct {
	ID        uint64    `json:"id"`
	EventType string    `json:"event_type"`
	SourceIP  string    `json:"source_ip"`
	SessionID string    `json:"session_id"`
	Resource  string    `json:"resource"`
	Details   string    `json:"details"`
	Timestamp time.Time `json:"timestamp"`
}

type auditListResponse struct {
	Events []AuditEvent `json:"events"`
	Count  int          `json:"count"`
}

// ListAuditEvents calls GET /api/v1/audit, optionally bounding the result
// to the most recent limit events. limit <= 0 uses the server default.
func (c *Client) ListAuditEvents(limit int) ([]AuditEvent, error) {
	path := "/api/v1/audit"
	if limit > 0 {
		path = withQuery(path, map[string]string{"limit": fmt.Sprintf("%d", limit)})
	}
	var resp auditListResponse
	if err := c.get(path, &resp); err != nil {
		return nil, err
	}
	return resp.Events, nil
}
