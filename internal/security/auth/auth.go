// Package auth implements FSH's credential verification backends: a JWT
// capability-set token backend, a SHA-256 hashed-password backend, and an
// optional Kerberos AP-REQ backend. The session package defines the narrow
// Authenticator interface; this package supplies the concrete backends.
package auth

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/NTD-LAB/FSH/internal/config"
	"github.com/NTD-LAB/FSH/internal/session"
)

// Authenticator dispatches Authenticate calls to whichever backends were
// configured. More than one may be active at once: a deployment can accept
// JWT tokens as its primary backend while also accepting Kerberos tickets
// from hosts that already run a realm.
type Authenticator struct {
	jwtService    *JWTService
	passwordStore *PasswordStore
	krbVerifier   *KerberosVerifier
}

// New builds an Authenticator from SecurityConfig, loading whichever
// backend material the config selects. Returns an Authenticator with no
// backends active if cfg.Auth.Backend is empty and Kerberos is disabled;
// callers should have already skipped the handshake's Authenticate phase
// entirely in that case (see session.handleAuthentication).
func New(cfg config.SecurityConfig) (*Authenticator, error) {
	a := &Authenticator{}

	switch cfg.Auth.Backend {
	case "token":
		secret, err := readSecretFile(cfg.Auth.SigningKeyFile)
		if err != nil {
			return nil, fmt.Errorf("load JWT signing key: %w", err)
		}
		svc, err := NewJWTService(JWTConfig{Secret: secret, DefaultTTL: cfg.Auth.TokenTTL})
		if err != nil {
			return nil, fmt.Errorf("init JWT service: %w", err)
		}
		a.jwtService = svc

	case "password":
		store, err := LoadPasswordStore(cfg.Auth.PasswordHashFile)
		if err != nil {
			return nil, fmt.Errorf("load password hash file: %w", err)
		}
		a.passwordStore = store
	}

	if cfg.Auth.Kerberos.Enabled {
		verifier, err := NewKerberosVerifier(cfg.Auth.Kerberos)
		if err != nil {
			return nil, fmt.Errorf("init kerberos verifier: %w", err)
		}
		a.krbVerifier = verifier
	}

	return a, nil
}

// Authenticate implements session.Authenticator.
func (a *Authenticator) Authenticate(authType string, credentials map[string]string) (*session.AuthResult, error) {
	switch authType {
	case "token":
		return a.authenticateToken(credentials)
	case "password":
		return a.authenticatePassword(credentials)
	case "kerberos":
		return a.authenticateKerberos(credentials)
	default:
		return nil, fmt.Errorf("unsupported auth_type %q", authType)
	}
}

func (a *Authenticator) authenticateToken(credentials map[string]string) (*session.AuthResult, error) {
	if a.jwtService == nil {
		return nil, errors.New("token authentication is not configured")
	}

	token := strings.TrimSpace(credentials["token"])
	if token == "" {
		return nil, errors.New("missing token credential")
	}

	claims, err := a.jwtService.ValidateToken(token)
	if err != nil {
		return nil, err
	}

	result := &session.AuthResult{Capabilities: claims.Capabilities}
	if claims.ExpiresAt != nil {
		result.ExpiresAt = claims.ExpiresAt.Time
	}
	return result, nil
}

func (a *Authenticator) authenticatePassword(credentials map[string]string) (*session.AuthResult, error) {
	if a.passwordStore == nil {
		return nil, errors.New("password authentication is not configured")
	}

	username := credentials["username"]
	password := credentials["password"]
	if username == "" || password == "" {
		return nil, ErrPasswordAuthFailed
	}

	if !a.passwordStore.Verify(username, password) {
		return nil, ErrPasswordAuthFailed
	}

	// A password credential carries no separate capability subset: it
	// grants whatever the bound folder itself allows (nil Capabilities).
	return &session.AuthResult{}, nil
}

func (a *Authenticator) authenticateKerberos(credentials map[string]string) (*session.AuthResult, error) {
	if a.krbVerifier == nil {
		return nil, errors.New("kerberos authentication is not configured")
	}

	ticket := credentials["ticket"]
	if ticket == "" {
		return nil, errors.New("missing ticket credential")
	}

	if _, err := a.krbVerifier.Verify(ticket); err != nil {
		return nil, fmt.Errorf("kerberos authentication failed: %w", err)
	}

	return &session.AuthResult{}, nil
}

func readSecretFile(path string) ([]byte, error) {
	if path == "" {
		return nil, errors.New("signing_key_file is not configured")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return []byte(strings.TrimSpace(string(data))), nil
}
