package auth

import (
	"testing"
	"time"
)

func testSecret() []byte {
	return []byte("test-secret-key-must-be-32-bytes!")
}

func TestNewJWTServiceRejectsShortSecret(t *testing.T) {
	if _, err := NewJWTService(JWTConfig{Secret: []byte("short")}); err == nil {
		t.Fatal("expected error for short secret")
	}
}

func TestIssueAndValidateToken(t *testing.T) {
	svc, err := NewJWTService(JWTConfig{Secret: testSecret()})
	if err != nil {
		t.Fatalf("NewJWTService: %v", err)
	}

	token, err := svc.IssueToken([]string{"read", "execute"}, []string{"demo"}, "ci token", time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if !claims.HasCapability("read") || claims.HasCapability("write") {
		t.Errorf("Capabilities = %v, want [read execute]", claims.Capabilities)
	}
	if !claims.AllowsFolder("demo") || claims.AllowsFolder("other") {
		t.Errorf("Folders = %v, want [demo]", claims.Folders)
	}
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	svc, err := NewJWTService(JWTConfig{Secret: testSecret()})
	if err != nil {
		t.Fatalf("NewJWTService: %v", err)
	}

	expired, err := svc.IssueToken([]string{"read"}, nil, "", time.Nanosecond)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	time.Sleep(10 * time.Millisecond)

	if _, err := svc.ValidateToken(expired); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	svcA, _ := NewJWTService(JWTConfig{Secret: testSecret()})
	svcB, _ := NewJWTService(JWTConfig{Secret: []byte("a-totally-different-32-byte-key!!")})

	token, err := svcA.IssueToken([]string{"read"}, nil, "", time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	if _, err := svcB.ValidateToken(token); err == nil {
		t.Fatal("expected token signed with a different secret to be rejected")
	}
}
