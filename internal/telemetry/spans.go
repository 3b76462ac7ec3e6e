package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys for FSH session and shell operations.
const (
	AttrSessionID = "fsh.session_id"
	AttrFolder    = "fsh.folder"
	AttrClientIP  = "fsh.client_ip"
	AttrCommand   = "fsh.command"
	AttrPath      = "fsh.path"
	AttrExitCode  = "fsh.exit_code"
	AttrAuthType  = "fsh.auth_type"
)

// Span names for FSH protocol operations.
const (
	SpanConnect      = "fsh.connect"
	SpanAuthenticate = "fsh.authenticate"
	SpanFolderBind   = "fsh.folder_bind"
	SpanCommand      = "fsh.command"
	SpanFileList     = "fsh.file_list"
	SpanFileRead     = "fsh.file_read"
	SpanFileWrite    = "fsh.file_write"
)

func SessionID(id string) attribute.KeyValue { return attribute.String(AttrSessionID, id) }
func Folder(name string) attribute.KeyValue   { return attribute.String(AttrFolder, name) }
func ClientIP(ip string) attribute.KeyValue   { return attribute.String(AttrClientIP, ip) }
func Command(cmd string) attribute.KeyValue   { return attribute.String(AttrCommand, cmd) }
func Path(path string) attribute.KeyValue     { return attribute.String(AttrPath, path) }
func ExitCode(code int) attribute.KeyValue    { return attribute.Int(AttrExitCode, code) }
func AuthType(kind string) attribute.KeyValue { return attribute.String(AttrAuthType, kind) }

// StartSessionSpan starts a span for a session-scoped operation, tagging
// it with the session ID and bound folder.
func StartSessionSpan(ctx context.Context, name, sessionID, folder string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := append([]attribute.KeyValue{SessionID(sessionID), Folder(folder)}, attrs...)
	return StartSpan(ctx, name, trace.WithAttributes(allAttrs...))
}
