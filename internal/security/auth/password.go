package auth

import (
	"bufio"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
)

// ErrPasswordAuthFailed is returned for any hashed-password mismatch, unknown
// user, or malformed credential, matching the reference AuthManager's
// hash-compare design in security/auth.rs (never a more specific error, so
// the failure reason doesn't leak which half was wrong).
var ErrPasswordAuthFailed = errors.New("invalid username or password")

// PasswordStore holds a username -> SHA-256 hash map loaded from
// AuthConfig.PasswordHashFile, one "username:hexhash" entry per line (blank
// lines and lines starting with '#' are ignored).
type PasswordStore struct {
	mu     sync.RWMutex
	hashes map[string][]byte
}

// LoadPasswordStore reads path and builds a PasswordStore.
func LoadPasswordStore(path string) (*PasswordStore, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open password hash file: %w", err)
	}
	defer f.Close()

	hashes := make(map[string][]byte)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		user, hexHash, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		raw, err := hex.DecodeString(strings.TrimSpace(hexHash))
		if err != nil {
			return nil, fmt.Errorf("malformed hash for user %q: %w", user, err)
		}
		hashes[user] = raw
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read password hash file: %w", err)
	}

	return &PasswordStore{hashes: hashes}, nil
}

// Verify reports whether password hashes to the stored value for username,
// using a constant-time comparison so timing cannot reveal how much of the
// hash matched.
func (p *PasswordStore) Verify(username, password string) bool {
	p.mu.RLock()
	want, ok := p.hashes[username]
	p.mu.RUnlock()
	if !ok {
		return false
	}

	sum := sha256.Sum256([]byte(password))
	return subtle.ConstantTimeCompare(sum[:], want) == 1
}

// HashPassword returns the hex-encoded SHA-256 digest of password, in the
// form PasswordHashFile entries use.
func HashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}
