package ratelimit

import (
	"sync"
	"time"
)

// suspiciousDecay matches the reference AdaptiveRateLimiter's 1-hour
// forgetting window for tracked violators.
const suspiciousDecay = time.Hour

// violationsBeforeSeverePenalty is the violation count past which a
// repeat offender's budget is cut further than the initial halving.
const violationsBeforeSeverePenalty = 5

// suspiciousActivity mirrors the original's SuspiciousActivity: a
// per-identifier violation count, the time of the last violation, and
// the identifier's currently reduced request budget.
type suspiciousActivity struct {
	violations    int
	lastViolation time.Time
	reducedLimit  int
}

// AdaptiveLimiter wraps a base Limiter and progressively tightens the
// budget for identifiers that keep exceeding it, grounded on the
// reference implementation's AdaptiveRateLimiter.
type AdaptiveLimiter struct {
	base *Limiter

	mu         sync.Mutex
	suspicious map[string]*suspiciousActivity
	baseLimit  int
}

// NewAdaptiveLimiter wraps base with violation-based budget reduction.
func NewAdaptiveLimiter(base *Limiter) *AdaptiveLimiter {
	return &AdaptiveLimiter{
		base:       base,
		suspicious: make(map[string]*suspiciousActivity),
		baseLimit:  base.maxRequests,
	}
}

// Allow applies identifier's reduced budget, if any, before falling
// back to the base limiter's window check. A denial records or
// deepens the identifier's violation history.
func (a *AdaptiveLimiter) Allow(identifier string) bool {
	limit := a.effectiveLimit(identifier)

	allowed := a.allowWithLimit(identifier, limit)
	if !allowed {
		a.recordViolation(identifier)
	}
	return allowed
}

// allowWithLimit runs the base limiter's sliding-window check against a
// possibly-reduced limit instead of the base limiter's own configured
// maximum.
func (a *AdaptiveLimiter) allowWithLimit(identifier string, limit int) bool {
	a.base.mu.Lock()
	defer a.base.mu.Unlock()

	now := time.Now()
	times := retainRecent(a.base.requests[identifier], now, a.base.window)
	if len(times) < limit {
		a.base.requests[identifier] = append(times, now)
		return true
	}
	a.base.requests[identifier] = times
	return false
}

func (a *AdaptiveLimiter) effectiveLimit(identifier string) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	sa, ok := a.suspicious[identifier]
	if !ok {
		return a.baseLimit
	}
	return sa.reducedLimit
}

func (a *AdaptiveLimiter) recordViolation(identifier string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	sa, ok := a.suspicious[identifier]
	if !ok {
		sa = &suspiciousActivity{reducedLimit: max(a.baseLimit/2, 1)}
		a.suspicious[identifier] = sa
	}
	sa.violations++
	sa.lastViolation = time.Now()
	if sa.violations > violationsBeforeSeverePenalty {
		sa.reducedLimit = max(sa.reducedLimit/2, 1)
	}
}

// MarkSuspicious immediately drops identifier's budget to 1, matching
// the original's mark_suspicious used when other signals (e.g. a
// dangerous path probe) flag an identifier outside the normal
// request-counting path.
func (a *AdaptiveLimiter) MarkSuspicious(identifier string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	sa, ok := a.suspicious[identifier]
	if !ok {
		sa = &suspiciousActivity{}
		a.suspicious[identifier] = sa
	}
	sa.violations++
	sa.lastViolation = time.Now()
	sa.reducedLimit = 1
}

// GetRemaining reports identifier's remaining budget under its current
// (possibly reduced) limit.
func (a *AdaptiveLimiter) GetRemaining(identifier string) int {
	limit := a.effectiveLimit(identifier)

	a.base.mu.Lock()
	defer a.base.mu.Unlock()

	times := retainRecent(a.base.requests[identifier], time.Now(), a.base.window)
	remaining := limit - len(times)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// CleanupExpired prunes both the base limiter's stale windows and
// suspicious-identifier entries that have not reoffended in over an
// hour, matching the original's cleanup_expired decay.
func (a *AdaptiveLimiter) CleanupExpired() {
	a.base.CleanupExpired()

	now := time.Now()
	a.mu.Lock()
	defer a.mu.Unlock()
	for id, sa := range a.suspicious {
		if now.Sub(sa.lastViolation) > suspiciousDecay {
			delete(a.suspicious, id)
		}
	}
}

// SuspiciousCount reports how many identifiers currently carry a
// reduced budget, for admin API / Prometheus introspection.
func (a *AdaptiveLimiter) SuspiciousCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.suspicious)
}
