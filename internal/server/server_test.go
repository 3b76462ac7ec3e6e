package server

import (
	"context"
	"net"
	"runtime"
	"testing"
	"time"

	"github.com/NTD-LAB/FSH/internal/config"
	"github.com/NTD-LAB/FSH/internal/protocol"
	"github.com/NTD-LAB/FSH/internal/security/ratelimit"
	"github.com/NTD-LAB/FSH/internal/session"
)

func testConfig(t *testing.T, maxConnections int) *config.Config {
	t.Helper()
	root := t.TempDir()
	return &config.Config{
		Server: config.ServerConfig{
			Address:         "127.0.0.1:0",
			MaxConnections:  maxConnections,
			IdleTimeout:     2 * time.Second,
			ShutdownTimeout: 2 * time.Second,
		},
		Folders: []config.FolderConfig{
			{
				Name:            "demo",
				Path:            root,
				Permissions:     []string{"read", "execute"},
				ShellType:       "bash",
				AllowedCommands: []string{"*"},
			},
		},
	}
}

func startTestServer(t *testing.T, cfg *config.Config) (*Server, context.CancelFunc) {
	t.Helper()
	srv := New(cfg, nil, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		_ = srv.Serve(ctx)
	}()

	_ = srv.Addr()
	return srv, cancel
}

func TestServerAcceptsAndRegistersConnections(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a bash host shell")
	}

	cfg := testConfig(t, 0)
	srv, cancel := startTestServer(t, cfg)
	defer cancel()

	conn, err := net.Dial("tcp", srv.Addr())
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	writer := protocol.NewWriter(conn)
	decoder := protocol.NewDecoder(conn)

	if err := writer.WriteMessage(&protocol.Connect{Version: session.ServerVersion}); err != nil {
		t.Fatalf("write Connect: %v", err)
	}

	resp, err := decoder.Next()
	if err != nil {
		t.Fatalf("decode ConnectResponse: %v", err)
	}
	connectResp, ok := resp.(*protocol.ConnectResponse)
	if !ok || !connectResp.Success {
		t.Fatalf("expected successful ConnectResponse, got %+v", resp)
	}

	deadline := time.Now().Add(2 * time.Second)
	for srv.SessionCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if srv.SessionCount() != 1 {
		t.Errorf("SessionCount() = %d, want 1", srv.SessionCount())
	}
}

func TestServerEnforcesMaxConnections(t *testing.T) {
	cfg := testConfig(t, 1)
	srv, cancel := startTestServer(t, cfg)
	defer cancel()

	first, err := net.Dial("tcp", srv.Addr())
	if err != nil {
		t.Fatalf("first dial failed: %v", err)
	}
	defer first.Close()

	writer := protocol.NewWriter(first)
	if err := writer.WriteMessage(&protocol.Connect{Version: session.ServerVersion}); err != nil {
		t.Fatalf("write Connect: %v", err)
	}
	decoder := protocol.NewDecoder(first)
	if _, err := decoder.Next(); err != nil {
		t.Fatalf("decode ConnectResponse: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for srv.SessionCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	second, err := net.Dial("tcp", srv.Addr())
	if err != nil {
		t.Fatalf("second dial failed: %v", err)
	}
	defer second.Close()

	// The second connection should be closed immediately with no framing
	// exchanged): reads should hit EOF.
	buf := make([]byte, 1)
	_ = second.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, err := second.Read(buf)
	if err == nil && n > 0 {
		t.Errorf("expected second connection to be closed with no data, got %d bytes", n)
	}
}

func TestServerGracefulShutdown(t *testing.T) {
	cfg := testConfig(t, 0)
	srv, cancel := startTestServer(t, cfg)
	defer cancel()

	ctx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer stopCancel()

	if err := srv.Stop(ctx); err != nil {
		t.Errorf("Stop returned error: %v", err)
	}

	if _, err := net.Dial("tcp", srv.Addr()); err == nil {
		t.Error("expected listener to be closed after shutdown")
	}
}

// TestServerRejectsConnectionsOverRateLimit wires a Guard with a
// one-request budget and confirms a second connection from the same
// loopback address is dropped before any framing is exchanged.
func TestServerRejectsConnectionsOverRateLimit(t *testing.T) {
	cfg := testConfig(t, 0)

	guard, err := ratelimit.New(config.SecurityConfig{
		RateLimit: config.RateLimitConfig{Enabled: true, MaxRequests: 1, WindowSize: time.Minute},
	})
	if err != nil {
		t.Fatalf("ratelimit.New: %v", err)
	}
	defer guard.Close()

	srv := New(cfg, nil, nil, guard)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		_ = srv.Serve(ctx)
	}()
	addr := srv.Addr()

	first, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("first dial failed: %v", err)
	}
	defer first.Close()

	writer := protocol.NewWriter(first)
	if err := writer.WriteMessage(&protocol.Connect{Version: session.ServerVersion}); err != nil {
		t.Fatalf("write Connect: %v", err)
	}
	decoder := protocol.NewDecoder(first)
	if _, err := decoder.Next(); err != nil {
		t.Fatalf("decode ConnectResponse: %v", err)
	}

	second, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("second dial failed: %v", err)
	}
	defer second.Close()

	buf := make([]byte, 1)
	_ = second.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, err := second.Read(buf)
	if err == nil && n > 0 {
		t.Errorf("expected rate-limited connection to be closed with no data, got %d bytes", n)
	}
}
