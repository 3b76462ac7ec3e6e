package adminapi

import (
	"crypto/subtle"
	"net/http"
	"os"
	"strings"

	"github.com/NTD-LAB/FSH/internal/logger"
)

// extractBearerToken pulls the token out of a "Bearer <token>" header.
func extractBearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

// bearerTokenAuth requires a static bearer token read from tokenFile,
// simpler than the client-facing JWT/Kerberos/password backends since the
// admin API authenticates operators, not sandboxed shell clients. An empty
// tokenFile disables authentication entirely (intended for loopback-only
// deployments).
func bearerTokenAuth(tokenFile string) func(http.Handler) http.Handler {
	var token string
	if tokenFile != "" {
		raw, err := os.ReadFile(tokenFile)
		if err != nil {
			logger.Error("admin API token file unreadable, all requests will be rejected", "path", tokenFile, "error", err)
		} else {
			token = strings.TrimSpace(string(raw))
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			provided, ok := extractBearerToken(r)
			if !ok || subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
				writeProblem(w, http.StatusUnauthorized, "Unauthorized", "a valid bearer token is required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
