package audit

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/NTD-LAB/FSH/internal/session"
	"github.com/NTD-LAB/FSH/internal/telemetry"
)

// OTLPSink forwards audit events as zero-duration OpenTelemetry spans
// instead of writing to a local database, selected by
// AuditConfig.Backend == "otlp" so a deployment can route audit events
// into the same collector as its traces rather than running a separate
// database.
type OTLPSink struct{}

// NewOTLPSink constructs an OTLPSink. Callers must have already called
// telemetry.Init so the global tracer provider is wired to an exporter.
func NewOTLPSink() *OTLPSink {
	return &OTLPSink{}
}

// Record implements session.Auditor.
func (s *OTLPSink) Record(event session.AuditEvent) {
	_, span := telemetry.StartSpan(context.Background(), "fsh.audit."+event.EventType,
		trace.WithAttributes(
			attribute.String("fsh.session_id", event.SessionID),
			attribute.String("fsh.source_ip", event.SourceIP),
			attribute.String("fsh.resource", event.Resource),
			attribute.String("fsh.details", event.Details),
		),
		trace.WithTimestamp(event.Timestamp),
	)
	span.End(trace.WithTimestamp(event.Timestamp))
}

var _ session.Auditor = (*OTLPSink)(nil)
