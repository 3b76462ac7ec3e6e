package logger

// Structured field keys used consistently across the session, shell,
// and security packages so log lines stay greppable.
const (
	KeyTraceID   = "trace_id"
	KeySpanID    = "span_id"
	KeySessionID = "session_id"
	KeyFolder    = "folder"
	KeyPhase     = "phase"
	KeyClientIP  = "client_ip"
)
