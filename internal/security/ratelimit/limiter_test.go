package ratelimit

import (
	"testing"
	"time"
)

func TestLimiterAllowsWithinBudget(t *testing.T) {
	l := NewLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		if !l.Allow("1.2.3.4") {
			t.Fatalf("request %d: expected allow", i)
		}
	}
	if l.Allow("1.2.3.4") {
		t.Error("expected 4th request to be denied")
	}
}

func TestLimiterTracksIdentifiersIndependently(t *testing.T) {
	l := NewLimiter(1, time.Minute)

	if !l.Allow("a") {
		t.Fatal("expected first request from a to be allowed")
	}
	if !l.Allow("b") {
		t.Fatal("expected first request from b to be allowed independently of a")
	}
	if l.Allow("a") {
		t.Error("expected second request from a to be denied")
	}
}

func TestLimiterSlidesWindow(t *testing.T) {
	l := NewLimiter(1, 20*time.Millisecond)

	if !l.Allow("1.2.3.4") {
		t.Fatal("expected first request to be allowed")
	}
	if l.Allow("1.2.3.4") {
		t.Fatal("expected second request within window to be denied")
	}

	time.Sleep(30 * time.Millisecond)
	if !l.Allow("1.2.3.4") {
		t.Error("expected request after window to be allowed")
	}
}

func TestGetRemaining(t *testing.T) {
	l := NewLimiter(5, time.Minute)

	l.Allow("1.2.3.4")
	l.Allow("1.2.3.4")

	if got := l.GetRemaining("1.2.3.4"); got != 3 {
		t.Errorf("GetRemaining = %d, want 3", got)
	}
}

func TestResetClearsIdentifier(t *testing.T) {
	l := NewLimiter(1, time.Minute)

	l.Allow("1.2.3.4")
	l.Reset("1.2.3.4")

	if !l.Allow("1.2.3.4") {
		t.Error("expected request after Reset to be allowed")
	}
}

func TestCleanupExpiredPrunesStaleIdentifiers(t *testing.T) {
	l := NewLimiter(1, 10*time.Millisecond)

	l.Allow("1.2.3.4")
	time.Sleep(20 * time.Millisecond)
	l.CleanupExpired()

	if stats := l.Stats(); stats.TrackedIdentifiers != 0 {
		t.Errorf("TrackedIdentifiers = %d, want 0 after cleanup", stats.TrackedIdentifiers)
	}
}
