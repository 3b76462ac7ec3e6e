package auth

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/NTD-LAB/FSH/internal/config"
)

func TestNewBuildsTokenBackend(t *testing.T) {
	keyPath := filepath.Join(t.TempDir(), "signing.key")
	if err := os.WriteFile(keyPath, []byte("a-test-signing-key-32-bytes-long!"), 0600); err != nil {
		t.Fatalf("write signing key: %v", err)
	}

	a, err := New(config.SecurityConfig{Auth: config.AuthConfig{Backend: "token", SigningKeyFile: keyPath}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	token, err := a.jwtService.IssueToken([]string{"read"}, nil, "", time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	result, err := a.Authenticate("token", map[string]string{"token": token})
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if len(result.Capabilities) != 1 || result.Capabilities[0] != "read" {
		t.Errorf("Capabilities = %v, want [read]", result.Capabilities)
	}
}

func TestAuthenticateRejectsUnknownAuthType(t *testing.T) {
	a, err := New(config.SecurityConfig{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := a.Authenticate("carrier-pigeon", nil); err == nil {
		t.Fatal("expected unsupported auth_type to be rejected")
	}
}

func TestNewBuildsPasswordBackend(t *testing.T) {
	hashPath := writeHashFile(t, map[string]string{"alice": "hunter2"})

	a, err := New(config.SecurityConfig{Auth: config.AuthConfig{Backend: "password", PasswordHashFile: hashPath}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := a.Authenticate("password", map[string]string{"username": "alice", "password": "hunter2"}); err != nil {
		t.Errorf("expected valid password to authenticate, got: %v", err)
	}
	if _, err := a.Authenticate("password", map[string]string{"username": "alice", "password": "wrong"}); err == nil {
		t.Error("expected wrong password to be rejected")
	}
}
