package audit

import (
	"fmt"

	"github.com/NTD-LAB/FSH/internal/config"
	"github.com/NTD-LAB/FSH/internal/session"
)

// New builds the configured audit sink. An empty or disabled cfg returns
// nil, which Session treats as "discard every event".
func New(cfg config.AuditConfig) (session.Auditor, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	switch cfg.Backend {
	case "", "sqlite", "postgres":
		return NewGORMStore(cfg)
	case "otlp":
		return NewOTLPSink(), nil
	default:
		return nil, fmt.Errorf("unsupported audit backend %q", cfg.Backend)
	}
}
