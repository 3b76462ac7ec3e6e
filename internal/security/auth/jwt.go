package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Common JWT errors returned by the token auth backend.
var (
	ErrInvalidToken        = errors.New("invalid token")
	ErrExpiredToken        = errors.New("token has expired")
	ErrTokenSigningFailed  = errors.New("failed to sign token")
	ErrInvalidSecretLength = errors.New("JWT signing secret must be at least 32 bytes")
)

// JWTConfig configures the token auth backend.
type JWTConfig struct {
	// Secret is the HMAC signing key, loaded from SecurityConfig.Auth.SigningKeyFile.
	Secret []byte

	// Issuer is the token issuer claim.
	Issuer string

	// DefaultTTL is used by IssueToken when the caller does not specify an
	// expiry.
	DefaultTTL time.Duration
}

// JWTService issues and validates FSH capability tokens.
type JWTService struct {
	config JWTConfig
}

// NewJWTService constructs a JWTService. Secret must be at least 32 bytes.
func NewJWTService(config JWTConfig) (*JWTService, error) {
	if len(config.Secret) < 32 {
		return nil, ErrInvalidSecretLength
	}
	if config.Issuer == "" {
		config.Issuer = "fshd"
	}
	if config.DefaultTTL == 0 {
		config.DefaultTTL = 24 * time.Hour
	}
	return &JWTService{config: config}, nil
}

// IssueToken creates a signed token carrying capabilities and an optional
// folder allowlist. A zero ttl uses the service's DefaultTTL; a negative
// ttl issues a token with no expiry, for long-lived service credentials.
func (s *JWTService) IssueToken(capabilities, folders []string, description string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   s.config.Issuer,
			IssuedAt: jwt.NewNumericDate(now),
		},
		Capabilities: capabilities,
		Folders:      folders,
		Description:  description,
	}

	switch {
	case ttl < 0:
		// no expiry
	case ttl == 0:
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(s.config.DefaultTTL))
	default:
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.config.Secret)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenSigningFailed, err)
	}
	return signed, nil
}

// ValidateToken parses and verifies tokenString, rejecting any signing
// method other than HMAC. A non-empty string is never accepted at face
// value.
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.config.Secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
