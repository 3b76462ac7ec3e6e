package ratelimit

import (
	"testing"
	"time"

	"github.com/NTD-LAB/FSH/internal/config"
)

func TestGuardDisabledAlwaysAllows(t *testing.T) {
	g, err := New(config.SecurityConfig{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer g.Close()

	for i := 0; i < 1000; i++ {
		allowed, err := g.Allow("1.2.3.4")
		if err != nil {
			t.Fatalf("Allow: %v", err)
		}
		if !allowed {
			t.Fatalf("request %d: expected disabled guard to always allow", i)
		}
	}
}

func TestGuardBlocksAfterFailedAuthThreshold(t *testing.T) {
	cfg := config.SecurityConfig{
		RateLimit:             config.RateLimitConfig{Enabled: true, MaxRequests: 100, WindowSize: time.Minute},
		MaxFailedAuthAttempts: 2,
		BlockDuration:         time.Hour,
	}
	g, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer g.Close()

	if err := g.RecordFailedAuth("1.2.3.4"); err != nil {
		t.Fatalf("RecordFailedAuth: %v", err)
	}
	if err := g.RecordFailedAuth("1.2.3.4"); err != nil {
		t.Fatalf("RecordFailedAuth: %v", err)
	}

	allowed, err := g.Allow("1.2.3.4")
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if allowed {
		t.Error("expected identifier blocked after reaching MaxFailedAuthAttempts to be denied")
	}
}

func TestGuardEnforcesWindowBudget(t *testing.T) {
	cfg := config.SecurityConfig{
		RateLimit: config.RateLimitConfig{Enabled: true, MaxRequests: 2, WindowSize: time.Minute},
	}
	g, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer g.Close()

	for i := 0; i < 2; i++ {
		allowed, err := g.Allow("1.2.3.4")
		if err != nil {
			t.Fatalf("Allow: %v", err)
		}
		if !allowed {
			t.Fatalf("request %d: expected allow within budget", i)
		}
	}

	allowed, err := g.Allow("1.2.3.4")
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if allowed {
		t.Error("expected 3rd request to exceed the window budget")
	}
}
