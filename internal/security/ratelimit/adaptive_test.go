package ratelimit

import (
	"testing"
	"time"
)

func TestAdaptiveLimiterReducesBudgetAfterViolation(t *testing.T) {
	base := NewLimiter(4, time.Minute)
	a := NewAdaptiveLimiter(base)

	for i := 0; i < 4; i++ {
		if !a.Allow("1.2.3.4") {
			t.Fatalf("request %d: expected allow under base budget", i)
		}
	}
	if a.Allow("1.2.3.4") {
		t.Fatal("expected 5th request to violate and be denied")
	}

	base.Reset("1.2.3.4")

	allowed := 0
	for i := 0; i < 4; i++ {
		if a.Allow("1.2.3.4") {
			allowed++
		}
	}
	if allowed != 2 {
		t.Errorf("allowed = %d after violation, want 2 (half of base budget 4)", allowed)
	}
}

func TestMarkSuspiciousDropsToOne(t *testing.T) {
	base := NewLimiter(10, time.Minute)
	a := NewAdaptiveLimiter(base)

	a.MarkSuspicious("9.9.9.9")

	if !a.Allow("9.9.9.9") {
		t.Fatal("expected first request to still be allowed under reduced limit of 1")
	}
	if a.Allow("9.9.9.9") {
		t.Error("expected second request to be denied under reduced limit of 1")
	}
}

func TestCleanupExpiredDecaysSuspiciousEntries(t *testing.T) {
	base := NewLimiter(10, time.Minute)
	a := NewAdaptiveLimiter(base)
	a.MarkSuspicious("9.9.9.9")

	a.mu.Lock()
	a.suspicious["9.9.9.9"].lastViolation = time.Now().Add(-2 * suspiciousDecay)
	a.mu.Unlock()

	a.CleanupExpired()

	if got := a.SuspiciousCount(); got != 0 {
		t.Errorf("SuspiciousCount = %d, want 0 after decay", got)
	}
}
