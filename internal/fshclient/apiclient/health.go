package apiclient

import "time"

// HealthResponse mirrors adminapi's healthResponse.
type HealthResponse struct {
	Status    string         `json:"status"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}

// Liveness calls GET /health.
func (c *Client) Liveness() (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.get("/health", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Readiness calls GET /health/ready.
func (c *Client) Readiness() (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.get("/health/ready", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
