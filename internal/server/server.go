// Package server implements FSH's TCP acceptor and session registry (spec
// §4.7, C7): binding the listener, admitting connections up to
// max_connections, and driving graceful shutdown across the session table.
package server

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/NTD-LAB/FSH/internal/config"
	"github.com/NTD-LAB/FSH/internal/logger"
	"github.com/NTD-LAB/FSH/internal/metrics"
	"github.com/NTD-LAB/FSH/internal/security/ratelimit"
	"github.com/NTD-LAB/FSH/internal/session"
)

// cleanupInterval is how often the server sweeps expired rate-limit
// windows and reaps sessions whose auth token has expired.
const cleanupInterval = 5 * time.Minute

// Server owns the TCP listener and the session registry: a SessionID ->
// Session mapping guarded by a read-mostly lock.
type Server struct {
	cfg     *config.Config
	authn   session.Authenticator
	audit   session.Auditor
	limiter *ratelimit.Guard
	metrics *metrics.ServerMetrics

	listenerMu sync.RWMutex
	listener   net.Listener

	sessionsMu sync.RWMutex
	sessions   map[string]*session.Session

	connCount     atomic.Int32
	connSemaphore chan struct{}
	nextID        atomic.Uint64

	shutdown       chan struct{}
	shutdownOnce   sync.Once
	activeConns    sync.WaitGroup
	shutdownCtx    context.Context
	cancelRequests context.CancelFunc

	listenerReady chan struct{}
}

// New constructs a Server from cfg. authn and audit may be nil (no
// authentication required, audit events discarded). limiter may be nil,
// in which case rate limiting and IP blocking are skipped entirely.
func New(cfg *config.Config, authn session.Authenticator, audit session.Auditor, limiter *ratelimit.Guard) *Server {
	var connSemaphore chan struct{}
	if cfg.Server.MaxConnections > 0 {
		connSemaphore = make(chan struct{}, cfg.Server.MaxConnections)
	}

	shutdownCtx, cancel := context.WithCancel(context.Background())

	return &Server{
		cfg:            cfg,
		authn:          authn,
		audit:          audit,
		limiter:        limiter,
		sessions:       make(map[string]*session.Session),
		connSemaphore:  connSemaphore,
		shutdown:       make(chan struct{}),
		shutdownCtx:    shutdownCtx,
		cancelRequests: cancel,
		listenerReady:  make(chan struct{}),
	}
}

// Serve binds the configured address and accepts connections until ctx is
// cancelled or Stop is called. It blocks until shutdown completes.
func (srv *Server) Serve(ctx context.Context) error {
	listener, err := net.Listen("tcp", srv.cfg.Server.Address)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", srv.cfg.Server.Address, err)
	}

	srv.listenerMu.Lock()
	srv.listener = listener
	srv.listenerMu.Unlock()
	close(srv.listenerReady)

	logger.Info("fshd listening", "address", listener.Addr().String())

	go func() {
		<-ctx.Done()
		logger.Info("shutdown signal received", "error", ctx.Err())
		srv.initiateShutdown()
	}()

	go srv.cleanupLoop()

	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-srv.shutdown:
				return srv.gracefulShutdown()
			default:
				logger.Debug("accept error", "error", err)
				continue
			}
		}

		// max_connections: when every semaphore slot is taken, drop the
		// socket at once with no framing exchanged.
		if srv.connSemaphore != nil {
			select {
			case srv.connSemaphore <- struct{}{}:
			default:
				_ = conn.Close()
				continue
			}
		}

		if srv.limiter != nil {
			allowed, err := srv.limiter.Allow(remoteHost(conn))
			if err != nil {
				logger.Warn("rate limiter error", "error", err)
			} else if !allowed {
				logger.Debug("connection rejected by rate limiter", "address", conn.RemoteAddr().String())
				_ = conn.Close()
				if srv.connSemaphore != nil {
					<-srv.connSemaphore
				}
				continue
			}
		}

		srv.activeConns.Add(1)
		srv.connCount.Add(1)

		go srv.handleConnection(conn)
	}
}

func (srv *Server) handleConnection(conn net.Conn) {
	defer func() {
		srv.activeConns.Done()
		srv.connCount.Add(-1)
		if srv.connSemaphore != nil {
			<-srv.connSemaphore
		}
	}()

	id := fmt.Sprintf("sess-%d", srv.nextID.Add(1))
	logger.Debug("connection accepted", "session_id", id, "address", conn.RemoteAddr().String())

	var recorder session.FailureRecorder
	if srv.limiter != nil {
		recorder = srv.limiter
	}
	sess := session.New(id, conn, srv.cfg, srv.authn, srv.audit, srv.unregister, recorder)
	if srv.metrics != nil {
		sess.SetMetricsRecorder(srv.metrics)
	}
	srv.register(sess)

	sess.Serve(srv.shutdownCtx)
}

func (srv *Server) register(sess *session.Session) {
	srv.sessionsMu.Lock()
	srv.sessions[sess.ID()] = sess
	srv.sessionsMu.Unlock()
	srv.metrics.SessionOpened()
}

func (srv *Server) unregister(sess *session.Session) {
	srv.sessionsMu.Lock()
	delete(srv.sessions, sess.ID())
	srv.sessionsMu.Unlock()
	srv.metrics.SessionClosed()
}

// SessionCount returns the number of currently registered sessions.
func (srv *Server) SessionCount() int {
	srv.sessionsMu.RLock()
	defer srv.sessionsMu.RUnlock()
	return len(srv.sessions)
}

// Sessions returns a snapshot of currently registered sessions, for the
// admin API.
func (srv *Server) Sessions() []*session.Session {
	srv.sessionsMu.RLock()
	defer srv.sessionsMu.RUnlock()

	out := make([]*session.Session, 0, len(srv.sessions))
	for _, s := range srv.sessions {
		out = append(out, s)
	}
	return out
}

// Session looks up a registered session by ID, for the admin API's
// session get and evict endpoints.
func (srv *Server) Session(id string) (*session.Session, bool) {
	srv.sessionsMu.RLock()
	defer srv.sessionsMu.RUnlock()
	s, ok := srv.sessions[id]
	return s, ok
}

// SetMetrics attaches a Prometheus collector to the server. m may be nil,
// in which case metrics recording is a no-op. Must be called before Serve.
func (srv *Server) SetMetrics(m *metrics.ServerMetrics) {
	srv.metrics = m
}

// Addr returns the listener's bound address, blocking until Serve has
// started listening.
func (srv *Server) Addr() string {
	<-srv.listenerReady
	srv.listenerMu.RLock()
	defer srv.listenerMu.RUnlock()
	if srv.listener == nil {
		return ""
	}
	return srv.listener.Addr().String()
}

// initiateShutdown stops accepting new connections and interrupts any
// in-flight reads so sessions notice shutdown promptly.
func (srv *Server) initiateShutdown() {
	srv.shutdownOnce.Do(func() {
		logger.Debug("shutdown initiated")
		close(srv.shutdown)

		srv.listenerMu.Lock()
		if srv.listener != nil {
			_ = srv.listener.Close()
		}
		srv.listenerMu.Unlock()

		srv.cancelRequests()
	})
}

// gracefulShutdown waits for active connections to drain, bounded by
// ShutdownTimeout.
func (srv *Server) gracefulShutdown() error {
	timeout := srv.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	active := srv.connCount.Load()
	logger.Info("graceful shutdown: waiting for active sessions", "active", active, "timeout", timeout)

	done := make(chan struct{})
	go func() {
		srv.activeConns.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("graceful shutdown complete")
		return nil
	case <-time.After(timeout):
		remaining := srv.connCount.Load()
		logger.Warn("shutdown timeout exceeded, residual sessions remain", "remaining", remaining)
		return fmt.Errorf("shutdown timeout: %d sessions did not close", remaining)
	}
}

// Stop initiates shutdown and blocks until the session table drains or ctx
// is cancelled, whichever comes first.
func (srv *Server) Stop(ctx context.Context) error {
	srv.initiateShutdown()

	done := make(chan struct{})
	go func() {
		srv.activeConns.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		remaining := srv.connCount.Load()
		logger.Warn("shutdown context cancelled, residual sessions remain", "remaining", remaining)
		return ctx.Err()
	}
}

// cleanupLoop periodically decays the rate limiter's sliding windows and
// reaps registered sessions whose auth token has expired, until shutdown.
func (srv *Server) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-srv.shutdown:
			return
		case <-ticker.C:
			if srv.limiter != nil {
				srv.limiter.CleanupExpired()
				srv.metrics.SetSuspiciousClients(srv.limiter.SuspiciousCount())
				if blocked, err := srv.limiter.BlockedCount(); err == nil {
					srv.metrics.SetBlockedClients(blocked)
				}
			}
			srv.reapExpiredTokenSessions()
		}
	}
}

func (srv *Server) reapExpiredTokenSessions() {
	for _, sess := range srv.Sessions() {
		if sess.TokenExpired() {
			logger.Info("reaping session with expired auth token", "session_id", sess.ID())
			sess.Close("token expired")
		}
	}
}

// remoteHost extracts the host portion of conn's remote address, falling
// back to the full address if it cannot be split (e.g. in tests using
// net.Pipe, whose addresses have no port).
func remoteHost(conn net.Conn) string {
	addr := conn.RemoteAddr().String()
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
