package session

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/NTD-LAB/FSH/internal/logger"
	"github.com/NTD-LAB/FSH/internal/policy"
	"github.com/NTD-LAB/FSH/internal/protocol"
	"github.com/NTD-LAB/FSH/internal/shell"
)

// readyLoop is the Ready-state event loop: read one frame, dispatch, repeat.
// A read timeout triggers a server-initiated Ping; a second consecutive
// timeout with no traffic at all closes the session.
func (s *Session) readyLoop(ctx context.Context) {
	idleTimeout := s.cfg.Server.IdleTimeout
	if idleTimeout <= 0 {
		idleTimeout = 30 * time.Second
	}

	consecutiveTimeouts := 0

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := s.conn.SetReadDeadline(time.Now().Add(idleTimeout)); err != nil {
			logger.Warn("failed to set read deadline", "session_id", s.id, "error", err)
		}

		msg, err := s.decoder.Next()
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				consecutiveTimeouts++
				if consecutiveTimeouts >= 2 {
					logger.Debug("session idle timeout, closing", "session_id", s.id)
					return
				}
				if werr := s.writer.WriteMessage(&protocol.Ping{}); werr != nil {
					return
				}
				continue
			}
			logger.Debug("session read error, closing", "session_id", s.id, "error", err)
			return
		}

		consecutiveTimeouts = 0

		if !s.dispatch(ctx, msg) {
			return
		}
	}
}

// effectivePermission grants perm only when both the bound folder allows
// it and the session's own token capability set (if any was issued) also
// includes it.
func (s *Session) effectivePermission(perm policy.Permission) bool {
	return policy.HasPermission(s.folder, perm) && s.hasCapability(string(perm))
}

// dispatch handles one Ready-state message. Returns false when the session
// should close.
func (s *Session) dispatch(ctx context.Context, msg any) bool {
	switch m := msg.(type) {
	case *protocol.Command:
		s.handleCommand(ctx, m)
		return true
	case *protocol.FileList:
		s.handleFileList(m)
		return true
	case *protocol.FileRead:
		s.handleFileRead(m)
		return true
	case *protocol.FileWrite:
		s.handleFileWrite(m)
		return true
	case *protocol.Ping:
		_ = s.writer.WriteMessage(&protocol.Pong{})
		return true
	case *protocol.Disconnect:
		logger.Debug("client disconnected", "session_id", s.id, "reason", m.Reason)
		return false
	default:
		logger.Warn("unexpected message in Ready state, ignoring", "session_id", s.id, "type", fmt.Sprintf("%T", msg))
		return true
	}
}

// handleCommand executes a Command. The session refuses a second in-flight
// command for the same session rather than queueing or interleaving output
//.
func (s *Session) handleCommand(ctx context.Context, cmd *protocol.Command) {
	if !s.commandActive.CompareAndSwap(false, true) {
		logger.Warn("command received while one is already in flight, ignoring", "session_id", s.id)
		return
	}

	cmdCtx := ctx
	var cancel context.CancelFunc
	if s.cfg.Server.CommandTimeout > 0 {
		cmdCtx, cancel = context.WithTimeout(ctx, s.cfg.Server.CommandTimeout)
	} else {
		cmdCtx, cancel = context.WithCancel(ctx)
	}

	s.cancelMu.Lock()
	s.cancelCmd = cancel
	s.cancelMu.Unlock()

	s.audit("command", cmd.Command, fmt.Sprintf("args=%v", cmd.Args))

	outCh, resultCh, err := s.shellExec.Execute(cmdCtx, cmd.Command, cmd.Args, cmd.Environment)
	if err != nil {
		if errors.Is(err, protocol.ErrPermissionDenied) {
			s.audit("permission_denied", cmd.Command, err.Error())
		}
		_ = s.writer.WriteMessage(&protocol.CommandComplete{SessionID: s.id, ExitCode: -1, ExecutionTimeMs: 0})
		s.finishCommand(cancel)
		return
	}

	go s.streamCommand(cmd, outCh, resultCh, cancel)
}

// streamCommand drains outCh (closing strictly before the result is
// consulted) and then sends CommandComplete.
func (s *Session) streamCommand(cmd *protocol.Command, outCh <-chan shell.OutputLine, resultCh <-chan shell.Result, cancel context.CancelFunc) {
	defer s.finishCommand(cancel)

	for line := range outCh {
		if err := s.writer.WriteMessage(&protocol.CommandOutput{
			SessionID:  s.id,
			OutputType: line.Stream,
			Data:       line.Data,
		}); err != nil {
			logger.Debug("failed to write command output, continuing to drain", "session_id", s.id, "error", err)
		}
	}

	result := <-resultCh
	_ = s.writer.WriteMessage(&protocol.CommandComplete{
		SessionID:       s.id,
		ExitCode:        result.ExitCode,
		ExecutionTimeMs: result.ExecutionTimeMs,
	})

	if s.metricsRecorder != nil {
		status := "ok"
		if result.ExitCode != 0 {
			status = "error"
		}
		s.metricsRecorder.CommandExecuted(cmd.Command, status)
	}
}

func (s *Session) finishCommand(cancel context.CancelFunc) {
	cancel()
	s.cancelMu.Lock()
	s.cancelCmd = nil
	s.cancelMu.Unlock()
	s.commandActive.Store(false)
}

// CancelCommand requests termination of the session's in-flight command, if
// any.
func (s *Session) CancelCommand() {
	s.cancelMu.Lock()
	cancel := s.cancelCmd
	s.cancelMu.Unlock()

	if cancel != nil {
		cancel()
	}
	if s.shellExec != nil {
		s.shellExec.Kill()
	}
}

func (s *Session) handleFileList(req *protocol.FileList) {
	if !s.effectivePermission(policy.PermRead) {
		_ = s.writer.WriteMessage(&protocol.FileListResponse{Success: false, ErrorMessage: "folder does not grant read permission"})
		return
	}

	entries, err := s.shellExec.ListFiles(req.Path, req.ShowHidden)
	if err != nil {
		_ = s.writer.WriteMessage(&protocol.FileListResponse{Success: false, ErrorMessage: err.Error()})
		return
	}

	_ = s.writer.WriteMessage(&protocol.FileListResponse{Success: true, Files: entries})
}

func (s *Session) handleFileRead(req *protocol.FileRead) {
	if !s.effectivePermission(policy.PermRead) {
		_ = s.writer.WriteMessage(&protocol.FileReadResponse{Success: false, ErrorMessage: "folder does not grant read permission"})
		return
	}

	resolved, err := s.validator.ValidatePath(req.FilePath)
	if err != nil {
		_ = s.writer.WriteMessage(&protocol.FileReadResponse{Success: false, ErrorMessage: err.Error()})
		return
	}
	if policy.IsSuspiciousPath(resolved) {
		s.audit("suspicious_path", req.FilePath, "matched sensitive host file deny-list")
		_ = s.writer.WriteMessage(&protocol.FileReadResponse{Success: false, ErrorMessage: "access denied"})
		return
	}

	info, err := os.Stat(resolved)
	if err != nil {
		_ = s.writer.WriteMessage(&protocol.FileReadResponse{Success: false, ErrorMessage: err.Error()})
		return
	}

	maxSize := int64(s.folder.MaxFileSize)
	if maxSize <= 0 {
		maxSize = 10 * 1024 * 1024
	}
	if info.Size() > maxSize {
		_ = s.writer.WriteMessage(&protocol.FileReadResponse{Success: false, ErrorMessage: "file exceeds maximum allowed size"})
		return
	}

	f, err := os.Open(resolved)
	if err != nil {
		_ = s.writer.WriteMessage(&protocol.FileReadResponse{Success: false, ErrorMessage: err.Error()})
		return
	}
	defer f.Close()

	offset := req.Offset
	if offset < 0 || offset > info.Size() {
		_ = s.writer.WriteMessage(&protocol.FileReadResponse{Success: false, ErrorMessage: "offset out of range"})
		return
	}

	length := req.Length
	if length <= 0 {
		length = info.Size() - offset
	}

	data := make([]byte, length)
	n, err := f.ReadAt(data, offset)
	if err != nil && n == 0 {
		_ = s.writer.WriteMessage(&protocol.FileReadResponse{Success: false, ErrorMessage: err.Error()})
		return
	}

	_ = s.writer.WriteMessage(&protocol.FileReadResponse{
		Success:   true,
		Data:      data[:n],
		TotalSize: info.Size(),
	})
}

func (s *Session) handleFileWrite(req *protocol.FileWrite) {
	if !s.effectivePermission(policy.PermWrite) {
		_ = s.writer.WriteMessage(&protocol.FileWriteResponse{Success: false, ErrorMessage: "folder does not grant write permission"})
		return
	}

	resolved, err := s.validator.ValidatePath(req.FilePath)
	if err != nil {
		_ = s.writer.WriteMessage(&protocol.FileWriteResponse{Success: false, ErrorMessage: err.Error()})
		return
	}
	if policy.IsSuspiciousPath(resolved) {
		s.audit("suspicious_path", req.FilePath, "matched sensitive host file deny-list")
		_ = s.writer.WriteMessage(&protocol.FileWriteResponse{Success: false, ErrorMessage: "access denied"})
		return
	}

	maxSize := int64(s.folder.MaxFileSize)
	if maxSize <= 0 {
		maxSize = 10 * 1024 * 1024
	}
	if int64(len(req.Data)) > maxSize {
		_ = s.writer.WriteMessage(&protocol.FileWriteResponse{Success: false, ErrorMessage: "write exceeds maximum allowed size"})
		return
	}

	flags := os.O_CREATE | os.O_WRONLY
	if req.Append {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}

	f, err := os.OpenFile(resolved, flags, 0644)
	if err != nil {
		_ = s.writer.WriteMessage(&protocol.FileWriteResponse{Success: false, ErrorMessage: err.Error()})
		return
	}
	defer f.Close()

	n, err := f.Write(req.Data)
	if err != nil {
		_ = s.writer.WriteMessage(&protocol.FileWriteResponse{Success: false, ErrorMessage: err.Error()})
		return
	}

	s.audit("file_write", req.FilePath, fmt.Sprintf("bytes=%d append=%v", n, req.Append))
	_ = s.writer.WriteMessage(&protocol.FileWriteResponse{Success: true, BytesWritten: int64(n)})
}
