package ratelimit

import (
	"time"

	"github.com/NTD-LAB/FSH/internal/config"
)

// Guard combines the adaptive sliding-window limiter with the
// persistent failed-auth block list behind the single entry point the
// server and admin API consume.
type Guard struct {
	Limiter   *AdaptiveLimiter
	BlockList *BlockList
	enabled   bool
}

// New builds a Guard from SecurityConfig. When cfg.RateLimit.Enabled is
// false, Allow always permits and RecordFailedAuth never blocks, so
// callers do not need their own enabled/disabled branching.
func New(cfg config.SecurityConfig) (*Guard, error) {
	windowSize := cfg.RateLimit.WindowSize
	if windowSize <= 0 {
		windowSize = defaultWindowSize
	}
	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = defaultMaxRequests
	}

	base := NewLimiter(maxRequests, windowSize)
	adaptive := NewAdaptiveLimiter(base)

	maxFailedAttempts := cfg.MaxFailedAuthAttempts
	if maxFailedAttempts <= 0 {
		maxFailedAttempts = defaultMaxFailedAttempts
	}
	blockDuration := cfg.BlockDuration
	if blockDuration <= 0 {
		blockDuration = defaultBlockDuration
	}

	blockList, err := NewBlockList(cfg.RateLimit.DBPath, maxFailedAttempts, blockDuration)
	if err != nil {
		return nil, err
	}

	return &Guard{
		Limiter:   adaptive,
		BlockList: blockList,
		enabled:   cfg.RateLimit.Enabled,
	}, nil
}

const (
	defaultWindowSize        = 60 * time.Second
	defaultMaxRequests       = 100
	defaultMaxFailedAttempts = 5
	defaultBlockDuration     = time.Hour
)

// Allow reports whether identifier (typically the client's remote IP)
// may proceed with a new connection or operation.
func (g *Guard) Allow(identifier string) (bool, error) {
	if !g.enabled {
		return true, nil
	}

	blocked, err := g.BlockList.IsBlocked(identifier)
	if err != nil {
		return false, err
	}
	if blocked {
		return false, nil
	}

	return g.Limiter.Allow(identifier), nil
}

// RecordFailedAuth records a failed authentication attempt, possibly
// escalating identifier straight to blocked.
func (g *Guard) RecordFailedAuth(identifier string) error {
	if !g.enabled {
		return nil
	}
	_, err := g.BlockList.RecordFailedAuth(identifier)
	return err
}

// CleanupExpired runs the limiter's periodic decay; intended to be
// called from the server's periodic cleanup sweep alongside expired
// session reaping.
func (g *Guard) CleanupExpired() {
	g.Limiter.CleanupExpired()
}

// SuspiciousCount reports how many identifiers currently carry a reduced
// budget from repeated rate-limit violations, for the admin API.
func (g *Guard) SuspiciousCount() int {
	return g.Limiter.SuspiciousCount()
}

// BlockedCount reports how many identifiers are currently blocked outright
// for repeated failed authentication, for the admin API.
func (g *Guard) BlockedCount() (int, error) {
	return g.BlockList.BlockedCount()
}

// Close releases the Guard's persistent store.
func (g *Guard) Close() error {
	return g.BlockList.Close()
}
