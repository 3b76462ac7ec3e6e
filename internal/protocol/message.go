package protocol

import (
	"encoding/json"
	"fmt"
	"time"
)

// MessageType tags the payload carried by an Envelope. The 21-member surface
// is fixed; adding a variant here must never change framing.
type MessageType string

const (
	TypeConnect          MessageType = "Connect"
	TypeConnectResponse  MessageType = "ConnectResponse"
	TypeAuthenticate     MessageType = "Authenticate"
	TypeAuthResponse     MessageType = "AuthResponse"
	TypeFolderBind       MessageType = "FolderBind"
	TypeFolderBound      MessageType = "FolderBound"
	TypeSessionStart     MessageType = "SessionStart"
	TypeSessionReady     MessageType = "SessionReady"
	TypeCommand          MessageType = "Command"
	TypeCommandOutput    MessageType = "CommandOutput"
	TypeCommandComplete  MessageType = "CommandComplete"
	TypeFileList         MessageType = "FileList"
	TypeFileListResponse MessageType = "FileListResponse"
	TypeFileRead         MessageType = "FileRead"
	TypeFileReadResponse MessageType = "FileReadResponse"
	TypeFileWrite        MessageType = "FileWrite"
	TypeFileWriteResp    MessageType = "FileWriteResponse"
	TypePing             MessageType = "Ping"
	TypePong             MessageType = "Pong"
	TypeDisconnect       MessageType = "Disconnect"
	TypeError            MessageType = "Error"
)

// OutputStream distinguishes CommandOutput's source pipe.
type OutputStream string

const (
	StreamStdout OutputStream = "Stdout"
	StreamStderr OutputStream = "Stderr"
)

// ClientInfo identifies the connecting client.
type ClientInfo struct {
	Platform   string `json:"platform"`
	AppName    string `json:"app_name"`
	AppVersion string `json:"app_version"`
}

// Connect is the first message on every connection.
type Connect struct {
	Version            string     `json:"version"`
	ClientInfo         ClientInfo `json:"client_info"`
	SupportedFeatures  []string   `json:"supported_features"`
}

// ConnectResponse answers Connect.
type ConnectResponse struct {
	Success           bool     `json:"success"`
	ServerVersion     string   `json:"server_version"`
	SupportedFeatures []string `json:"supported_features"`
	AvailableFolders  []string `json:"available_folders"`
	Message           string   `json:"message,omitempty"`
}

// Authenticate carries opaque credentials for the configured auth backend.
type Authenticate struct {
	AuthType    string            `json:"auth_type"`
	Credentials map[string]string `json:"credentials"`
}

// AuthResponse answers Authenticate.
type AuthResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// FolderBind requests binding the session to a configured folder.
type FolderBind struct {
	TargetFolder  string `json:"target_folder"`
	PreferredShell string `json:"preferred_shell,omitempty"`
}

// FolderInfo describes the bound folder's effective configuration.
type FolderInfo struct {
	Name        string   `json:"name"`
	Path        string   `json:"path"`
	Permissions []string `json:"permissions"`
	ShellType   string   `json:"shell_type"`
	CurrentDir  string   `json:"current_dir"`
	Description string   `json:"description,omitempty"`
}

// FolderBound answers FolderBind.
type FolderBound struct {
	Success      bool        `json:"success"`
	FolderInfo   *FolderInfo `json:"folder_info,omitempty"`
	ErrorMessage string      `json:"error_message,omitempty"`
}

// SessionStart optionally precedes SessionReady when environment variables
// are surfaced to the client.
type SessionStart struct {
	SessionID       string            `json:"session_id"`
	EnvironmentVars map[string]string `json:"environment_vars"`
}

// SessionReady signals the session has entered the Ready state.
type SessionReady struct {
	SessionID        string `json:"session_id"`
	ShellPrompt      string `json:"shell_prompt"`
	WorkingDirectory string `json:"working_directory"`
}

// Command requests execution of a shell command in the bound folder.
type Command struct {
	SessionID   string            `json:"session_id"`
	Command     string            `json:"command"`
	Args        []string          `json:"args"`
	Environment map[string]string `json:"environment,omitempty"`
}

// CommandOutput carries one line of subprocess output.
type CommandOutput struct {
	SessionID  string       `json:"session_id"`
	OutputType OutputStream `json:"output_type"`
	Data       []byte       `json:"data"`
}

// CommandComplete terminates a command's output stream.
type CommandComplete struct {
	SessionID       string `json:"session_id"`
	ExitCode        int    `json:"exit_code"`
	ExecutionTimeMs int64  `json:"execution_time_ms"`
}

// FileList requests a directory listing.
type FileList struct {
	SessionID  string `json:"session_id"`
	Path       string `json:"path"`
	ShowHidden bool   `json:"show_hidden"`
}

// FileEntry describes one listed file or directory.
type FileEntry struct {
	Name        string    `json:"name"`
	Path        string    `json:"path"`
	IsDirectory bool      `json:"is_directory"`
	Size        int64     `json:"size"`
	Modified    time.Time `json:"modified"`
	Permissions string    `json:"permissions,omitempty"`
}

// FileListResponse answers FileList.
type FileListResponse struct {
	Success      bool        `json:"success"`
	Files        []FileEntry `json:"files,omitempty"`
	ErrorMessage string      `json:"error_message,omitempty"`
}

// FileRead requests whole- or partial-file content, bounded by the folder's
// configured max file size.
type FileRead struct {
	SessionID string `json:"session_id"`
	FilePath  string `json:"file_path"`
	Offset    int64  `json:"offset,omitempty"`
	Length    int64  `json:"length,omitempty"`
}

// FileReadResponse answers FileRead.
type FileReadResponse struct {
	Success      bool   `json:"success"`
	Data         []byte `json:"data,omitempty"`
	TotalSize    int64  `json:"total_size"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// FileWrite requests writing (or appending) data to a file.
type FileWrite struct {
	SessionID string `json:"session_id"`
	FilePath  string `json:"file_path"`
	Data      []byte `json:"data"`
	Append    bool   `json:"append"`
}

// FileWriteResponse answers FileWrite.
type FileWriteResponse struct {
	Success      bool   `json:"success"`
	BytesWritten int64  `json:"bytes_written"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// Ping is a liveness probe, sent by either side.
type Ping struct{}

// Pong answers Ping.
type Pong struct{}

// Disconnect is terminal; no response follows.
type Disconnect struct {
	Reason string `json:"reason,omitempty"`
}

// Error is a protocol-level error, fatal unless documented otherwise.
type Error struct {
	ErrorType string `json:"error_type"`
	Message   string `json:"message"`
	Details   string `json:"details,omitempty"`
}

// Envelope is the self-describing wrapper written as a frame's payload.
type Envelope struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Encode marshals a concrete message into a framed payload: an Envelope
// carrying the message's type tag and its JSON-encoded body.
func Encode(msg any) ([]byte, error) {
	t, err := typeOf(msg)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal %s payload: %v", ErrProtocol, t, err)
	}

	env := Envelope{Type: t, Payload: body}
	out, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal envelope: %v", ErrProtocol, err)
	}
	return out, nil
}

// Decode unmarshals a frame payload into its concrete message type.
// Returns ErrProtocol on any malformed or unrecognized payload.
func Decode(data []byte) (any, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: unmarshal envelope: %v", ErrProtocol, err)
	}

	msg, err := zeroValueFor(env.Type)
	if err != nil {
		return nil, err
	}

	if len(env.Payload) > 0 {
		if err := json.Unmarshal(env.Payload, msg); err != nil {
			return nil, fmt.Errorf("%w: unmarshal %s payload: %v", ErrProtocol, env.Type, err)
		}
	}

	return msg, nil
}

func typeOf(msg any) (MessageType, error) {
	switch msg.(type) {
	case *Connect, Connect:
		return TypeConnect, nil
	case *ConnectResponse, ConnectResponse:
		return TypeConnectResponse, nil
	case *Authenticate, Authenticate:
		return TypeAuthenticate, nil
	case *AuthResponse, AuthResponse:
		return TypeAuthResponse, nil
	case *FolderBind, FolderBind:
		return TypeFolderBind, nil
	case *FolderBound, FolderBound:
		return TypeFolderBound, nil
	case *SessionStart, SessionStart:
		return TypeSessionStart, nil
	case *SessionReady, SessionReady:
		return TypeSessionReady, nil
	case *Command, Command:
		return TypeCommand, nil
	case *CommandOutput, CommandOutput:
		return TypeCommandOutput, nil
	case *CommandComplete, CommandComplete:
		return TypeCommandComplete, nil
	case *FileList, FileList:
		return TypeFileList, nil
	case *FileListResponse, FileListResponse:
		return TypeFileListResponse, nil
	case *FileRead, FileRead:
		return TypeFileRead, nil
	case *FileReadResponse, FileReadResponse:
		return TypeFileReadResponse, nil
	case *FileWrite, FileWrite:
		return TypeFileWrite, nil
	case *FileWriteResponse, FileWriteResponse:
		return TypeFileWriteResp, nil
	case *Ping, Ping:
		return TypePing, nil
	case *Pong, Pong:
		return TypePong, nil
	case *Disconnect, Disconnect:
		return TypeDisconnect, nil
	case *Error, Error:
		return TypeError, nil
	default:
		return "", fmt.Errorf("%w: unknown message type %T", ErrProtocol, msg)
	}
}

func zeroValueFor(t MessageType) (any, error) {
	switch t {
	case TypeConnect:
		return &Connect{}, nil
	case TypeConnectResponse:
		return &ConnectResponse{}, nil
	case TypeAuthenticate:
		return &Authenticate{}, nil
	case TypeAuthResponse:
		return &AuthResponse{}, nil
	case TypeFolderBind:
		return &FolderBind{}, nil
	case TypeFolderBound:
		return &FolderBound{}, nil
	case TypeSessionStart:
		return &SessionStart{}, nil
	case TypeSessionReady:
		return &SessionReady{}, nil
	case TypeCommand:
		return &Command{}, nil
	case TypeCommandOutput:
		return &CommandOutput{}, nil
	case TypeCommandComplete:
		return &CommandComplete{}, nil
	case TypeFileList:
		return &FileList{}, nil
	case TypeFileListResponse:
		return &FileListResponse{}, nil
	case TypeFileRead:
		return &FileRead{}, nil
	case TypeFileReadResponse:
		return &FileReadResponse{}, nil
	case TypeFileWrite:
		return &FileWrite{}, nil
	case TypeFileWriteResp:
		return &FileWriteResponse{}, nil
	case TypePing:
		return &Ping{}, nil
	case TypePong:
		return &Pong{}, nil
	case TypeDisconnect:
		return &Disconnect{}, nil
	case TypeError:
		return &Error{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown message type %q", ErrProtocol, t)
	}
}
