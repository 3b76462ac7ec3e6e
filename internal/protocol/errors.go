package protocol

import "errors"

// Protocol-level sentinel error kinds, not concrete types: callers wrap
// them with fmt.Errorf("...: %w", ErrX) to add context and still satisfy
// errors.Is.
var (
	// ErrProtocol covers bad magic on a fresh stream, oversize frames,
	// deserialization failure, or a message that is invalid for the
	// session's current phase. Fatal to the session.
	ErrProtocol = errors.New("protocol error")

	// ErrAuthenticationFailed means credentials were rejected. Non-fatal
	// up to the configured max failed attempts, fatal thereafter.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrFolderNotFound means a FolderBind targeted an unknown folder.
	// Fatal to the session.
	ErrFolderNotFound = errors.New("folder not found")

	// ErrPermissionDenied covers a command/path/permission-bit violation
	// during Ready. Non-fatal; reported in the operation's response.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrInvalidPath means a path could not be canonicalized or was
	// malformed. Non-fatal; reported.
	ErrInvalidPath = errors.New("invalid path")

	// ErrShellError covers subprocess spawn, wait, or I/O failure.
	ErrShellError = errors.New("shell error")

	// ErrNetworkError means a socket read/write failed. Fatal to the session.
	ErrNetworkError = errors.New("network error")

	// ErrConfigError is only observable at server startup/validation;
	// never surfaced on the wire.
	ErrConfigError = errors.New("config error")
)

// ErrorType maps an error kind to the wire-level error_type string carried
// by an Error message.
func ErrorType(err error) string {
	switch {
	case errors.Is(err, ErrProtocol):
		return "protocol_error"
	case errors.Is(err, ErrAuthenticationFailed):
		return "authentication_failed"
	case errors.Is(err, ErrFolderNotFound):
		return "folder_not_found"
	case errors.Is(err, ErrPermissionDenied):
		return "permission_denied"
	case errors.Is(err, ErrInvalidPath):
		return "invalid_path"
	case errors.Is(err, ErrShellError):
		return "shell_error"
	case errors.Is(err, ErrNetworkError):
		return "network_error"
	case errors.Is(err, ErrConfigError):
		return "config_error"
	default:
		return "unknown_error"
	}
}
