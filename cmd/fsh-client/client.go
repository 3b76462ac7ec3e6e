package main

import (
	"fmt"
	"net"
	"runtime"
	"time"

	"github.com/NTD-LAB/FSH/internal/protocol"
)

// protocolVersion is the client's advertised wire version.
const protocolVersion = "1.0"

// client drives one FSH connection: the handshake, folder bind, and the
// request/response exchange for each interactive command.
type client struct {
	conn net.Conn
	dec  *protocol.Decoder
	enc  *protocol.Writer

	sessionID  string
	folderInfo *protocol.FolderInfo
}

// dial opens a TCP connection to addr and performs the Connect handshake.
func dial(addr string, dialTimeout time.Duration) (*client, error) {
	conn, err := net.DialTimeout("tcp", addr, dialTimeout)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", addr, err)
	}

	c := &client{
		conn: conn,
		dec:  protocol.NewDecoder(conn),
		enc:  protocol.NewWriter(conn),
	}

	if err := c.handshake(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return c, nil
}

func (c *client) handshake() error {
	if err := c.enc.WriteMessage(&protocol.Connect{
		Version: protocolVersion,
		ClientInfo: protocol.ClientInfo{
			Platform:   runtime.GOOS,
			AppName:    "fsh-client",
			AppVersion: protocolVersion,
		},
		SupportedFeatures: nil,
	}); err != nil {
		return fmt.Errorf("send Connect: %w", err)
	}

	msg, err := c.dec.Next()
	if err != nil {
		return fmt.Errorf("read ConnectResponse: %w", err)
	}

	resp, ok := msg.(*protocol.ConnectResponse)
	if !ok {
		return fmt.Errorf("unexpected message during handshake: %T", msg)
	}
	if !resp.Success {
		return fmt.Errorf("server rejected connection: %s", resp.Message)
	}

	return nil
}

// authenticate sends Authenticate and returns an error if the server
// refuses the credentials. A nil creds map is sent as an empty map, for
// folders that require no authentication.
func (c *client) authenticate(authType string, creds map[string]string) error {
	if creds == nil {
		creds = map[string]string{}
	}

	if err := c.enc.WriteMessage(&protocol.Authenticate{
		AuthType:    authType,
		Credentials: creds,
	}); err != nil {
		return fmt.Errorf("send Authenticate: %w", err)
	}

	msg, err := c.dec.Next()
	if err != nil {
		return fmt.Errorf("read AuthResponse: %w", err)
	}

	resp, ok := msg.(*protocol.AuthResponse)
	if !ok {
		return fmt.Errorf("unexpected message after Authenticate: %T", msg)
	}
	if !resp.Success {
		return fmt.Errorf("authentication failed: %s", resp.Message)
	}

	return nil
}

// bindFolder requests binding to folder and waits for the session to reach
// Ready, consuming the optional SessionStart frame in between.
func (c *client) bindFolder(folder, preferredShell string) error {
	if err := c.enc.WriteMessage(&protocol.FolderBind{
		TargetFolder:   folder,
		PreferredShell: preferredShell,
	}); err != nil {
		return fmt.Errorf("send FolderBind: %w", err)
	}

	msg, err := c.dec.Next()
	if err != nil {
		return fmt.Errorf("read FolderBound: %w", err)
	}

	bound, ok := msg.(*protocol.FolderBound)
	if !ok {
		return fmt.Errorf("unexpected message after FolderBind: %T", msg)
	}
	if !bound.Success {
		return fmt.Errorf("folder bind rejected: %s", bound.ErrorMessage)
	}
	c.folderInfo = bound.FolderInfo

	for {
		msg, err := c.dec.Next()
		if err != nil {
			return fmt.Errorf("read SessionReady: %w", err)
		}

		switch m := msg.(type) {
		case *protocol.SessionStart:
			c.sessionID = m.SessionID
			continue
		case *protocol.SessionReady:
			if c.sessionID == "" {
				c.sessionID = m.SessionID
			}
			if c.folderInfo != nil {
				c.folderInfo.CurrentDir = m.WorkingDirectory
			}
			return nil
		default:
			return fmt.Errorf("unexpected message waiting for session ready: %T", msg)
		}
	}
}

// runCommand sends name and args as a Command and streams CommandOutput to out/errOut
// until CommandComplete, returning the reported exit code.
func (c *client) runCommand(name string, args []string, out, errOut func([]byte)) (int, error) {
	if err := c.enc.WriteMessage(&protocol.Command{
		SessionID: c.sessionID,
		Command:   name,
		Args:      args,
	}); err != nil {
		return 0, fmt.Errorf("send Command: %w", err)
	}

	for {
		msg, err := c.dec.Next()
		if err != nil {
			return 0, fmt.Errorf("read command response: %w", err)
		}

		switch m := msg.(type) {
		case *protocol.CommandOutput:
			if m.OutputType == protocol.StreamStderr {
				errOut(m.Data)
			} else {
				out(m.Data)
			}
		case *protocol.CommandComplete:
			return m.ExitCode, nil
		case *protocol.Error:
			return -1, fmt.Errorf("%s: %s", m.ErrorType, m.Message)
		default:
			return -1, fmt.Errorf("unexpected message during command: %T", msg)
		}
	}
}

// listFiles requests a directory listing in the bound folder.
func (c *client) listFiles(path string, showHidden bool) (*protocol.FileListResponse, error) {
	if err := c.enc.WriteMessage(&protocol.FileList{
		SessionID:  c.sessionID,
		Path:       path,
		ShowHidden: showHidden,
	}); err != nil {
		return nil, fmt.Errorf("send FileList: %w", err)
	}

	msg, err := c.dec.Next()
	if err != nil {
		return nil, fmt.Errorf("read FileListResponse: %w", err)
	}
	resp, ok := msg.(*protocol.FileListResponse)
	if !ok {
		return nil, fmt.Errorf("unexpected message after FileList: %T", msg)
	}
	return resp, nil
}

func (c *client) close(reason string) {
	_ = c.enc.WriteMessage(&protocol.Disconnect{Reason: reason})
	_ = c.conn.Close()
}
