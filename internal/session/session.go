// Package session implements FSH's per-connection protocol state machine
//: the four-phase handshake, the Ready event loop, and the
// concurrency discipline tying the frame codec, path validator, policy, and
// sandboxed shell together for one client connection.
package session

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/NTD-LAB/FSH/internal/config"
	"github.com/NTD-LAB/FSH/internal/logger"
	"github.com/NTD-LAB/FSH/internal/pathvalidator"
	"github.com/NTD-LAB/FSH/internal/protocol"
	"github.com/NTD-LAB/FSH/internal/shell"
)

// ServerVersion is advertised in ConnectResponse and compared against the
// client's requested version during the handshake.
const ServerVersion = "1.0.0"

// State is one phase of the session state machine.
type State int32

const (
	StateConnected State = iota
	StateAuthenticating
	StateBinding
	StateReady
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnected:
		return "Connected"
	case StateAuthenticating:
		return "Authenticating"
	case StateBinding:
		return "Binding"
	case StateReady:
		return "Ready"
	case StateClosed:
		return "Closed"
	default:
		return "Unknown"
	}
}

// AuthResult is the outcome of a successful Authenticate call: the token's
// own capability set and, if the credential carries one, its expiry. An
// operation's effective permission is the intersection of Capabilities and
// the bound folder's own permission bits. A nil Capabilities means the
// credential grants no narrower subset than the folder itself already
// allows.
type AuthResult struct {
	Capabilities []string
	ExpiresAt    time.Time
}

// Authenticator verifies credentials for the configured auth backend.
// Implemented by internal/security/auth; kept as a narrow interface here so
// session does not depend on the concrete backend (hashed-token, password,
// or Kerberos). A failed check returns a nil result and a non-nil error
// whose message is safe to relay to the client.
type Authenticator interface {
	Authenticate(authType string, credentials map[string]string) (*AuthResult, error)
}

// AuditEvent is one structured record emitted to an Auditor.
type AuditEvent struct {
	EventType string
	SourceIP  string
	SessionID string
	Resource  string
	Details   string
	Timestamp time.Time
}

// Auditor receives audit events. Implemented by internal/security/audit.
type Auditor interface {
	Record(event AuditEvent)
}

// noopAuditor discards every event; used when no Auditor is configured.
type noopAuditor struct{}

func (noopAuditor) Record(AuditEvent) {}

// Session drives one client connection through Connected -> Authenticating
// -> Binding -> Ready -> Closed. Carries the connection, the bound folder
// (once bound), a PathValidator rooted at that folder, a SandboxedShell
// instance, and client metadata.
//
// The working_directory inside Shell is mutated only by this session's own
// reader goroutine; the connection is guarded by a single Writer mutex; the
// active/state flag is an atomic.
type Session struct {
	id         string
	conn       net.Conn
	decoder    *protocol.Decoder
	writer     *protocol.Writer
	cfg        *config.Config
	authn      Authenticator
	auditor    Auditor
	clientInfo protocol.ClientInfo
	createdAt  time.Time

	state              atomic.Int32
	failedAuthAttempts int

	folder    *config.FolderConfig
	validator *pathvalidator.Validator
	shellExec *shell.Shell

	tokenCapabilities []string
	tokenExpiresAt    time.Time

	commandActive atomic.Bool
	cancelMu      sync.Mutex
	cancelCmd     context.CancelFunc

	failureRecorder FailureRecorder
	metricsRecorder MetricsRecorder

	onClose func(*Session)
}

// SetMetricsRecorder attaches a MetricsRecorder after construction, since
// the server builds its metrics collector independently of the session
// registry. May be left unset, in which case metrics recording is skipped.
func (s *Session) SetMetricsRecorder(m MetricsRecorder) {
	s.metricsRecorder = m
}

// MetricsRecorder receives counters for observability; implemented by
// internal/metrics.ServerMetrics. Kept as a narrow interface, like
// Authenticator and Auditor, so session does not depend on the metrics
// package's Prometheus types.
type MetricsRecorder interface {
	AuthFailure(authType string)
	CommandExecuted(command, status string)
}

// FailureRecorder records a failed authentication attempt against the
// connection's remote identifier (typically its IP), letting the server's
// persistent rate limiter escalate repeat offenders to a block,
// independent of this one session's own failedAuthAttempts counter.
type FailureRecorder interface {
	RecordFailedAuth(identifier string) error
}

// New constructs a Session over conn. id must already be unique within the
// server's registry. recorder may be nil, in which case failed
// authentications are only tracked locally for this session.
func New(id string, conn net.Conn, cfg *config.Config, authn Authenticator, auditor Auditor, onClose func(*Session), recorder FailureRecorder) *Session {
	if auditor == nil {
		auditor = noopAuditor{}
	}
	maxFrameSize := uint32(cfg.Server.MaxFrameSize)
	if maxFrameSize == 0 {
		maxFrameSize = protocol.DefaultMaxFrameSize
	}
	s := &Session{
		id:              id,
		conn:            conn,
		decoder:         protocol.NewDecoderSize(conn, maxFrameSize),
		writer:          protocol.NewWriter(conn),
		cfg:             cfg,
		authn:           authn,
		auditor:         auditor,
		createdAt:       time.Now(),
		failureRecorder: recorder,
	}
	s.onClose = onClose
	s.state.Store(int32(StateConnected))
	return s
}

// ID returns the session's opaque identifier.
func (s *Session) ID() string { return s.id }

// State returns the session's current phase.
func (s *Session) State() State { return State(s.state.Load()) }

func (s *Session) setState(st State) { s.state.Store(int32(st)) }

// RemoteAddr returns the client's address for logging and audit.
func (s *Session) RemoteAddr() string {
	if s.conn == nil {
		return ""
	}
	return s.conn.RemoteAddr().String()
}

// Folder returns the name of the session's bound folder, or "" if it has
// not yet completed BindFolder. For the admin API's session listing.
func (s *Session) Folder() string {
	if s.folder == nil {
		return ""
	}
	return s.folder.Name
}

// CreatedAt returns when the session was accepted, for the admin API.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

func (s *Session) sourceIP() string {
	host, _, err := net.SplitHostPort(s.RemoteAddr())
	if err != nil {
		return s.RemoteAddr()
	}
	return host
}

func (s *Session) audit(eventType, resource, details string) {
	s.auditor.Record(AuditEvent{
		EventType: eventType,
		SourceIP:  s.sourceIP(),
		SessionID: s.id,
		Resource:  resource,
		Details:   details,
		Timestamp: time.Now(),
	})
}

// Serve runs the handshake and, on success, the Ready event loop. It
// returns when the session closes for any reason; the caller (server's
// acceptor) should remove the session from its registry afterward, which
// New's onClose callback already does on this method's return.
func (s *Session) Serve(ctx context.Context) {
	defer s.handleClose()

	logger.Debug("session started", "session_id", s.id, "remote", s.RemoteAddr())

	if err := s.handshake(); err != nil {
		logger.Debug("handshake failed", "session_id", s.id, "error", err)
		return
	}

	s.readyLoop(ctx)
}

func (s *Session) handleClose() {
	if r := recover(); r != nil {
		logger.Error("panic in session handler", "session_id", s.id, "error", r)
	}

	s.setState(StateClosed)
	if s.shellExec != nil {
		s.shellExec.Kill()
	}
	_ = s.conn.Close()

	if s.onClose != nil {
		s.onClose(s)
	}
	logger.Debug("session closed", "session_id", s.id)
}

// handshake runs Connect -> (Authenticate*) -> FolderBind, linearly, under
// the server's idle timeout as a stand-in connection_timeout bound (the
// config surface does not carry a separate connection_timeout field).
func (s *Session) handshake() error {
	if err := s.setDeadline(); err != nil {
		return err
	}

	if err := s.handleConnect(); err != nil {
		return err
	}

	s.setState(StateAuthenticating)
	if err := s.handleAuthentication(); err != nil {
		return err
	}

	s.setState(StateBinding)
	return s.handleBinding()
}

func (s *Session) setDeadline() error {
	if s.cfg.Server.IdleTimeout <= 0 {
		return nil
	}
	return s.conn.SetDeadline(time.Now().Add(s.cfg.Server.IdleTimeout))
}

func (s *Session) handleConnect() error {
	msg, err := s.decoder.Next()
	if err != nil {
		return s.fatalf("network_error", "read Connect: %v", err)
	}

	connect, ok := msg.(*protocol.Connect)
	if !ok {
		return s.protocolErrorf("expected Connect, got %T", msg)
	}

	folders := make([]string, 0, len(s.cfg.Folders))
	for _, f := range s.cfg.Folders {
		folders = append(folders, f.Name)
	}

	if connect.Version != ServerVersion {
		_ = s.writer.WriteMessage(&protocol.ConnectResponse{
			Success: false,
			Message: fmt.Sprintf("unsupported client version %q (server %q)", connect.Version, ServerVersion),
		})
		return fmt.Errorf("%w: version mismatch", protocol.ErrProtocol)
	}

	s.clientInfo = connect.ClientInfo

	return s.writer.WriteMessage(&protocol.ConnectResponse{
		Success:           true,
		ServerVersion:     ServerVersion,
		SupportedFeatures: connect.SupportedFeatures,
		AvailableFolders:  folders,
	})
}

func (s *Session) handleAuthentication() error {
	if s.cfg.Security.Auth.Backend == "" {
		return nil
	}

	maxFailed := s.cfg.Security.MaxFailedAuthAttempts
	if maxFailed <= 0 {
		maxFailed = 5
	}

	for {
		msg, err := s.decoder.Next()
		if err != nil {
			return s.fatalf("network_error", "read Authenticate: %v", err)
		}

		authenticate, ok := msg.(*protocol.Authenticate)
		if !ok {
			return s.protocolErrorf("expected Authenticate, got %T", msg)
		}

		result, authErr := s.authn.Authenticate(authenticate.AuthType, authenticate.Credentials)
		if authErr == nil {
			s.tokenCapabilities = result.Capabilities
			s.tokenExpiresAt = result.ExpiresAt
			return s.writer.WriteMessage(&protocol.AuthResponse{Success: true})
		}

		message := authErr.Error()
		s.failedAuthAttempts++
		s.audit("auth_failed", "", message)
		if s.metricsRecorder != nil {
			s.metricsRecorder.AuthFailure(authenticate.AuthType)
		}
		if s.failureRecorder != nil {
			if err := s.failureRecorder.RecordFailedAuth(s.sourceIP()); err != nil {
				logger.Warn("rate limit failure record error", "session_id", s.id, "error", err)
			}
		}

		if s.failedAuthAttempts >= maxFailed {
			_ = s.writer.WriteMessage(&protocol.AuthResponse{Success: false, Message: message})
			return fmt.Errorf("%w: too many failed authentication attempts", protocol.ErrAuthenticationFailed)
		}

		if err := s.writer.WriteMessage(&protocol.AuthResponse{Success: false, Message: message}); err != nil {
			return err
		}
	}
}

func (s *Session) handleBinding() error {
	msg, err := s.decoder.Next()
	if err != nil {
		return s.fatalf("network_error", "read FolderBind: %v", err)
	}

	bind, ok := msg.(*protocol.FolderBind)
	if !ok {
		return s.protocolErrorf("expected FolderBind, got %T", msg)
	}

	folder := findFolder(s.cfg.Folders, bind.TargetFolder)
	if folder == nil {
		_ = s.writer.WriteMessage(&protocol.FolderBound{
			Success:      false,
			ErrorMessage: fmt.Sprintf("folder %q not found", bind.TargetFolder),
		})
		return fmt.Errorf("%w: %s", protocol.ErrFolderNotFound, bind.TargetFolder)
	}

	validator, err := pathvalidator.New(folder.Path)
	if err != nil {
		_ = s.writer.WriteMessage(&protocol.FolderBound{
			Success:      false,
			ErrorMessage: fmt.Sprintf("folder %q is unavailable", folder.Name),
		})
		return fmt.Errorf("%w: mount folder %q: %v", protocol.ErrConfigError, folder.Name, err)
	}

	s.folder = folder
	s.validator = validator
	s.shellExec = shell.New(folder, validator)
	s.setState(StateReady)

	if err := s.writer.WriteMessage(&protocol.FolderBound{
		Success: true,
		FolderInfo: &protocol.FolderInfo{
			Name:        folder.Name,
			Path:        validator.Root(),
			Permissions: folder.Permissions,
			ShellType:   folder.ShellType,
			CurrentDir:  ".",
		},
	}); err != nil {
		return err
	}

	return s.writer.WriteMessage(&protocol.SessionReady{
		SessionID:        s.id,
		ShellPrompt:      s.shellExec.Prompt(),
		WorkingDirectory: s.shellExec.WorkingDirectory(),
	})
}

// Close forcibly terminates the session's connection, for the server's
// periodic sweep reaping sessions whose auth token has expired. The
// running Serve goroutine observes the resulting read error and performs
// its own cleanup via handleClose.
func (s *Session) Close(reason string) {
	s.audit("session_closed", "", reason)
	_ = s.conn.Close()
}

// TokenExpired reports whether this session's credential carried an
// expiry that has since passed, independent of the connection's own idle
// timer. Used by the server's periodic cleanup sweep.
func (s *Session) TokenExpired() bool {
	return !s.tokenExpiresAt.IsZero() && time.Now().After(s.tokenExpiresAt)
}

// hasCapability reports whether this session's token capability set
// (if any was issued) includes perm. A nil capability set imposes no
// restriction beyond the folder's own permissions.
func (s *Session) hasCapability(perm string) bool {
	if s.tokenCapabilities == nil {
		return true
	}
	for _, c := range s.tokenCapabilities {
		if c == perm {
			return true
		}
	}
	return false
}

func findFolder(folders []config.FolderConfig, name string) *config.FolderConfig {
	for i := range folders {
		if folders[i].Name == name || folders[i].Path == name {
			return &folders[i]
		}
	}
	return nil
}

// fatalf logs, emits a wire Error, and returns a terminal error that closes
// the session.
func (s *Session) fatalf(errorType, format string, args ...any) error {
	message := fmt.Sprintf(format, args...)
	_ = s.writer.WriteMessage(&protocol.Error{ErrorType: errorType, Message: message})
	return fmt.Errorf("%s: %s", errorType, message)
}

func (s *Session) protocolErrorf(format string, args ...any) error {
	return s.fatalf("protocol_error", format, args...)
}
