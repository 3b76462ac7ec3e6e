package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NTD-LAB/FSH/internal/config"
)

func TestNewDisabledReturnsNil(t *testing.T) {
	auditor, err := New(config.AuditConfig{Enabled: false})
	require.NoError(t, err)
	assert.Nil(t, auditor)
}

func TestNewSQLiteBackend(t *testing.T) {
	dir := t.TempDir()
	auditor, err := New(config.AuditConfig{Enabled: true, Backend: "sqlite", DSN: dir + "/audit.db"})
	require.NoError(t, err)
	require.NotNil(t, auditor)

	store, ok := auditor.(*GORMStore)
	require.True(t, ok)
	defer store.Close()
}

func TestNewOTLPBackend(t *testing.T) {
	auditor, err := New(config.AuditConfig{Enabled: true, Backend: "otlp"})
	require.NoError(t, err)
	_, ok := auditor.(*OTLPSink)
	assert.True(t, ok)
}

func TestNewRejectsUnknownBackend(t *testing.T) {
	_, err := New(config.AuditConfig{Enabled: true, Backend: "elastic"})
	assert.Error(t, err)
}
