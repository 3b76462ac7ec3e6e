package apiclient

// RateLimitStats mirrors adminapi's ratelimit stats response.
type RateLimitStats struct {
	Enabled         bool `json:"enabled"`
	SuspiciousCount int  `json:"suspicious_count,omitempty"`
	BlockedCount    int  `json:"blocked_count,omitempty"`
}

// RateLimitStats calls GET /api/v1/ratelimit/stats.
func (c *Client) RateLimitStats() (*RateLimitStats, error) {
	var stats RateLimitStats
	if err := c.get("/api/v1/ratelimit/stats", &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}
