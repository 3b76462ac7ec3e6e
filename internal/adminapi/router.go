// Package adminapi exposes fshd's operational surface over HTTP: health
// probes, a read-only view of the session registry and configured
// folders, rate-limit stats, and the audit log.
package adminapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/NTD-LAB/FSH/internal/config"
	"github.com/NTD-LAB/FSH/internal/logger"
)

// NewRouter builds the admin HTTP API. srv and limiter may be nil (health
// endpoints still work; session/ratelimit endpoints report accordingly).
// auditStore may be nil or may not implement auditQuerier (the OTLP sink),
// in which case the audit endpoint returns an empty list.
func NewRouter(cfg *config.Config, srv sessionLister, limiter rateLimitStatter, auditStore any) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	health := newHealthHandler(srv)
	r.Route("/health", func(r chi.Router) {
		r.Get("/", health.Liveness)
		r.Get("/ready", health.Readiness)
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/health", http.StatusTemporaryRedirect)
	})

	var querier auditQuerier
	if q, ok := auditStore.(auditQuerier); ok {
		querier = q
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(bearerTokenAuth(cfg.AdminAPI.TokenFile))

		if srv != nil {
			sessions := &sessionHandler{srv: srv}
			r.Route("/sessions", func(r chi.Router) {
				r.Get("/", sessions.List)
				r.Get("/{id}", sessions.Get)
				r.Delete("/{id}", sessions.Evict)
			})
		}

		folders := &folderHandler{cfg: cfg}
		r.Route("/folders", func(r chi.Router) {
			r.Get("/", folders.List)
			r.Get("/{name}", folders.Get)
		})

		rl := &rateLimitHandler{stats: limiter}
		r.Get("/ratelimit/stats", rl.Stats)

		audit := &auditHandler{store: querier}
		r.Get("/audit", audit.List)
	})

	return r
}

// requestLogger logs each request at INFO (DEBUG for healthchecks).
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		args := []any{
			"request_id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).String(),
		}
		if r.URL.Path == "/health" || len(r.URL.Path) >= 8 && r.URL.Path[:8] == "/health/" {
			logger.Debug("admin API request", args...)
		} else {
			logger.Info("admin API request", args...)
		}
	})
}
