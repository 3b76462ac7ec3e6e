package session

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/NTD-LAB/FSH/internal/config"
	"github.com/NTD-LAB/FSH/internal/protocol"
)

type allowAllAuthenticator struct{}

func (allowAllAuthenticator) Authenticate(string, map[string]string) (*AuthResult, error) {
	return &AuthResult{}, nil
}

// readOnlyCapabilityAuthenticator grants a token capability set of only
// "read", exercising the capability/folder-permission intersection
//.
type readOnlyCapabilityAuthenticator struct{}

func (readOnlyCapabilityAuthenticator) Authenticate(string, map[string]string) (*AuthResult, error) {
	return &AuthResult{Capabilities: []string{"read"}}, nil
}

func testConfig(t *testing.T, folderPath string) *config.Config {
	t.Helper()
	return &config.Config{
		Server: config.ServerConfig{
			Address:         "127.0.0.1:0",
			IdleTimeout:     2 * time.Second,
			ShutdownTimeout: 5 * time.Second,
			CommandTimeout:  5 * time.Second,
		},
		Folders: []config.FolderConfig{
			{
				Name:            "demo",
				Path:            folderPath,
				Permissions:     []string{"read", "write", "execute"},
				ShellType:       "bash",
				AllowedCommands: []string{"*"},
			},
		},
	}
}

func readEnvelope(t *testing.T, dec *protocol.Decoder) any {
	t.Helper()
	msg, err := dec.Next()
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	return msg
}

// TestHappyPathHandshake drives a full handshake: Connect, FolderBind,
// then a Command, over an in-process net.Pipe connection.
func TestHappyPathHandshake(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a bash host shell")
	}

	root := t.TempDir()
	cfg := testConfig(t, root)

	serverConn, clientConn := net.Pipe()
	defer clientConn.Close()

	sess := New("sess-1", serverConn, cfg, allowAllAuthenticator{}, nil, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		sess.Serve(ctx)
		close(done)
	}()

	clientWriter := protocol.NewWriter(clientConn)
	clientDecoder := protocol.NewDecoder(clientConn)

	if err := clientWriter.WriteMessage(&protocol.Connect{
		Version:    ServerVersion,
		ClientInfo: protocol.ClientInfo{Platform: "test", AppName: "fsh-test", AppVersion: "0.0.0"},
	}); err != nil {
		t.Fatalf("write Connect: %v", err)
	}

	connectResp, ok := readEnvelope(t, clientDecoder).(*protocol.ConnectResponse)
	if !ok || !connectResp.Success {
		t.Fatalf("expected successful ConnectResponse, got %+v", connectResp)
	}
	if len(connectResp.AvailableFolders) != 1 || connectResp.AvailableFolders[0] != "demo" {
		t.Errorf("AvailableFolders = %v, want [demo]", connectResp.AvailableFolders)
	}

	if err := clientWriter.WriteMessage(&protocol.FolderBind{TargetFolder: "demo"}); err != nil {
		t.Fatalf("write FolderBind: %v", err)
	}

	bound, ok := readEnvelope(t, clientDecoder).(*protocol.FolderBound)
	if !ok || !bound.Success {
		t.Fatalf("expected successful FolderBound, got %+v", bound)
	}

	ready, ok := readEnvelope(t, clientDecoder).(*protocol.SessionReady)
	if !ok {
		t.Fatalf("expected SessionReady, got %+v", ready)
	}
	if ready.ShellPrompt != ".$ " {
		t.Errorf("ShellPrompt = %q, want %q", ready.ShellPrompt, ".$ ")
	}

	if err := clientWriter.WriteMessage(&protocol.Command{SessionID: "sess-1", Command: "pwd"}); err != nil {
		t.Fatalf("write Command: %v", err)
	}

	output, ok := readEnvelope(t, clientDecoder).(*protocol.CommandOutput)
	if !ok {
		t.Fatalf("expected CommandOutput, got %+v", output)
	}
	if string(output.Data) != ".\n" {
		t.Errorf("pwd output = %q, want %q", string(output.Data), ".\n")
	}

	complete, ok := readEnvelope(t, clientDecoder).(*protocol.CommandComplete)
	if !ok {
		t.Fatalf("expected CommandComplete, got %+v", complete)
	}
	if complete.ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", complete.ExitCode)
	}

	if err := clientWriter.WriteMessage(&protocol.Disconnect{Reason: "done"}); err != nil {
		t.Fatalf("write Disconnect: %v", err)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("session did not close after Disconnect")
	}
}

// TestFolderBindUnknownClosesSession drives the FolderBind-unknown
// transition to Closed.
func TestFolderBindUnknownClosesSession(t *testing.T) {
	root := t.TempDir()
	cfg := testConfig(t, root)

	serverConn, clientConn := net.Pipe()
	defer clientConn.Close()

	sess := New("sess-2", serverConn, cfg, allowAllAuthenticator{}, nil, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		sess.Serve(ctx)
		close(done)
	}()

	clientWriter := protocol.NewWriter(clientConn)
	clientDecoder := protocol.NewDecoder(clientConn)

	_ = clientWriter.WriteMessage(&protocol.Connect{Version: ServerVersion})
	_ = readEnvelope(t, clientDecoder)

	if err := clientWriter.WriteMessage(&protocol.FolderBind{TargetFolder: "nonexistent"}); err != nil {
		t.Fatalf("write FolderBind: %v", err)
	}

	bound, ok := readEnvelope(t, clientDecoder).(*protocol.FolderBound)
	if !ok || bound.Success {
		t.Fatalf("expected failed FolderBound, got %+v", bound)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("session did not close after unknown FolderBind")
	}
}

// TestFileListTraversalDenied verifies a path-traversal FileList request
// is rejected rather than escaping the bound folder.
func TestFileListTraversalDenied(t *testing.T) {
	root := t.TempDir()
	cfg := testConfig(t, root)

	serverConn, clientConn := net.Pipe()
	defer clientConn.Close()

	sess := New("sess-3", serverConn, cfg, allowAllAuthenticator{}, nil, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		sess.Serve(ctx)
		close(done)
	}()
	defer func() {
		cancel()
		<-done
	}()

	clientWriter := protocol.NewWriter(clientConn)
	clientDecoder := protocol.NewDecoder(clientConn)

	_ = clientWriter.WriteMessage(&protocol.Connect{Version: ServerVersion})
	_ = readEnvelope(t, clientDecoder)
	_ = clientWriter.WriteMessage(&protocol.FolderBind{TargetFolder: "demo"})
	_ = readEnvelope(t, clientDecoder) // FolderBound
	_ = readEnvelope(t, clientDecoder) // SessionReady

	if err := clientWriter.WriteMessage(&protocol.FileList{SessionID: "sess-3", Path: "../../etc"}); err != nil {
		t.Fatalf("write FileList: %v", err)
	}

	resp, ok := readEnvelope(t, clientDecoder).(*protocol.FileListResponse)
	if !ok {
		t.Fatalf("expected FileListResponse, got %+v", resp)
	}
	if resp.Success {
		t.Error("expected traversal FileList to fail")
	}
}

// TestFileReadOffsetPastEOFReturnsError verifies an offset beyond the
// file's size produces a Success:false response instead of panicking on a
// negative-length slice allocation.
func TestFileReadOffsetPastEOFReturnsError(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "small.txt"), []byte("hi"), 0644); err != nil {
		t.Fatalf("write fixture file: %v", err)
	}
	cfg := testConfig(t, root)

	serverConn, clientConn := net.Pipe()
	defer clientConn.Close()

	sess := New("sess-4", serverConn, cfg, allowAllAuthenticator{}, nil, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		sess.Serve(ctx)
		close(done)
	}()
	defer func() {
		cancel()
		<-done
	}()

	clientWriter := protocol.NewWriter(clientConn)
	clientDecoder := protocol.NewDecoder(clientConn)

	_ = clientWriter.WriteMessage(&protocol.Connect{Version: ServerVersion})
	_ = readEnvelope(t, clientDecoder)
	_ = clientWriter.WriteMessage(&protocol.FolderBind{TargetFolder: "demo"})
	_ = readEnvelope(t, clientDecoder) // FolderBound
	_ = readEnvelope(t, clientDecoder) // SessionReady

	if err := clientWriter.WriteMessage(&protocol.FileRead{SessionID: "sess-4", FilePath: "small.txt", Offset: 1000}); err != nil {
		t.Fatalf("write FileRead: %v", err)
	}

	resp, ok := readEnvelope(t, clientDecoder).(*protocol.FileReadResponse)
	if !ok {
		t.Fatalf("expected FileReadResponse, got %+v", resp)
	}
	if resp.Success {
		t.Error("expected out-of-range offset to fail rather than succeed")
	}
}

// TestTokenCapabilitySetRestrictsWritePermission verifies that a token
// capability set narrower than the folder's own permissions still denies
// the operation.
func TestTokenCapabilitySetRestrictsWritePermission(t *testing.T) {
	root := t.TempDir()
	cfg := testConfig(t, root)
	cfg.Security.Auth.Backend = "token"

	serverConn, clientConn := net.Pipe()
	defer clientConn.Close()

	sess := New("sess-5", serverConn, cfg, readOnlyCapabilityAuthenticator{}, nil, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		sess.Serve(ctx)
		close(done)
	}()
	defer func() {
		cancel()
		<-done
	}()

	clientWriter := protocol.NewWriter(clientConn)
	clientDecoder := protocol.NewDecoder(clientConn)

	_ = clientWriter.WriteMessage(&protocol.Connect{Version: ServerVersion})
	_ = readEnvelope(t, clientDecoder)

	_ = clientWriter.WriteMessage(&protocol.Authenticate{AuthType: "token", Credentials: map[string]string{"token": "irrelevant"}})
	authResp, ok := readEnvelope(t, clientDecoder).(*protocol.AuthResponse)
	if !ok || !authResp.Success {
		t.Fatalf("expected successful AuthResponse, got %+v", authResp)
	}

	_ = clientWriter.WriteMessage(&protocol.FolderBind{TargetFolder: "demo"})
	_ = readEnvelope(t, clientDecoder)
	_ = readEnvelope(t, clientDecoder)

	if err := clientWriter.WriteMessage(&protocol.FileWrite{SessionID: "sess-5", FilePath: "new.txt", Data: []byte("hi")}); err != nil {
		t.Fatalf("write FileWrite: %v", err)
	}

	resp, ok := readEnvelope(t, clientDecoder).(*protocol.FileWriteResponse)
	if !ok {
		t.Fatalf("expected FileWriteResponse, got %+v", resp)
	}
	if resp.Success {
		t.Error("expected write to be denied by a read-only token capability set")
	}
}

// TestFileWriteRequiresPermission verifies a readonly folder rejects writes.
func TestFileWriteRequiresPermission(t *testing.T) {
	root := t.TempDir()
	cfg := testConfig(t, root)
	cfg.Folders[0].ReadOnly = true

	serverConn, clientConn := net.Pipe()
	defer clientConn.Close()

	sess := New("sess-4", serverConn, cfg, allowAllAuthenticator{}, nil, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		sess.Serve(ctx)
		close(done)
	}()
	defer func() {
		cancel()
		<-done
	}()

	clientWriter := protocol.NewWriter(clientConn)
	clientDecoder := protocol.NewDecoder(clientConn)

	_ = clientWriter.WriteMessage(&protocol.Connect{Version: ServerVersion})
	_ = readEnvelope(t, clientDecoder)
	_ = clientWriter.WriteMessage(&protocol.FolderBind{TargetFolder: "demo"})
	_ = readEnvelope(t, clientDecoder)
	_ = readEnvelope(t, clientDecoder)

	if err := clientWriter.WriteMessage(&protocol.FileWrite{SessionID: "sess-4", FilePath: "new.txt", Data: []byte("hi")}); err != nil {
		t.Fatalf("write FileWrite: %v", err)
	}

	resp, ok := readEnvelope(t, clientDecoder).(*protocol.FileWriteResponse)
	if !ok {
		t.Fatalf("expected FileWriteResponse, got %+v", resp)
	}
	if resp.Success {
		t.Error("expected write to readonly folder to fail")
	}

	if _, err := os.Stat(filepath.Join(root, "new.txt")); err == nil {
		t.Error("expected file to not be created on readonly folder")
	}
}
