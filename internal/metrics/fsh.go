package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ServerMetrics collects gauges and counters for fshd's session registry
// and rate limiter. Every method is safe to call on a nil *ServerMetrics,
// so metrics collection can be disabled with no caller-side nil checks.
type ServerMetrics struct {
	activeSessions    prometheus.Gauge
	sessionsTotal     prometheus.Counter
	authFailuresTotal *prometheus.CounterVec
	commandsTotal     *prometheus.CounterVec
	suspiciousClients prometheus.Gauge
	blockedClients    prometheus.Gauge
}

// NewServerMetrics creates the Prometheus collectors for the session
// registry and rate limiter. Returns nil if InitRegistry has not been
// called, in which case every recording method becomes a no-op.
func NewServerMetrics() *ServerMetrics {
	if !IsEnabled() {
		return nil
	}

	reg := GetRegistry()
	return &ServerMetrics{
		activeSessions: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "fshd_active_sessions",
			Help: "Number of currently connected sessions.",
		}),
		sessionsTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "fshd_sessions_total",
			Help: "Total number of sessions accepted since startup.",
		}),
		authFailuresTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "fshd_auth_failures_total",
			Help: "Total number of failed authentication attempts, by auth type.",
		}, []string{"auth_type"}),
		commandsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "fshd_commands_total",
			Help: "Total number of shell commands executed, by command and exit status.",
		}, []string{"command", "status"}),
		suspiciousClients: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "fshd_ratelimit_suspicious_clients",
			Help: "Number of clients currently carrying a reduced rate-limit budget.",
		}),
		blockedClients: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "fshd_ratelimit_blocked_clients",
			Help: "Number of clients currently blocked for repeated failed authentication.",
		}),
	}
}

func (m *ServerMetrics) SessionOpened() {
	if m == nil {
		return
	}
	m.activeSessions.Inc()
	m.sessionsTotal.Inc()
}

func (m *ServerMetrics) SessionClosed() {
	if m == nil {
		return
	}
	m.activeSessions.Dec()
}

func (m *ServerMetrics) AuthFailure(authType string) {
	if m == nil {
		return
	}
	m.authFailuresTotal.WithLabelValues(authType).Inc()
}

func (m *ServerMetrics) CommandExecuted(command, status string) {
	if m == nil {
		return
	}
	m.commandsTotal.WithLabelValues(command, status).Inc()
}

func (m *ServerMetrics) SetSuspiciousClients(n int) {
	if m == nil {
		return
	}
	m.suspiciousClients.Set(float64(n))
}

func (m *ServerMetrics) SetBlockedClients(n int) {
	if m == nil {
		return
	}
	m.blockedClients.Set(float64(n))
}
