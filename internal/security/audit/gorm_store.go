// Package audit implements FSH's structured audit trail: a
// durable sink for session.AuditEvent, backed by SQLite or PostgreSQL via
// GORM, or forwarded as OpenTelemetry spans.
package audit

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/NTD-LAB/FSH/internal/config"
	"github.com/NTD-LAB/FSH/internal/logger"
	"github.com/NTD-LAB/FSH/internal/session"
)

// GORMStore persists audit events to SQLite or PostgreSQL, implementing
// session.Auditor.
type GORMStore struct {
	mu sync.Mutex
	db *gorm.DB
}

// NewGORMStore opens (creating if needed) a SQLite or PostgreSQL-backed
// audit store, selected by cfg.Backend, and auto-migrates its schema.
func NewGORMStore(cfg config.AuditConfig) (*GORMStore, error) {
	var dialector gorm.Dialector
	autoMigrate := true

	switch cfg.Backend {
	case "", "sqlite":
		path := cfg.DSN
		if path == "" {
			path = "fshd-audit.db"
		}
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create audit database directory: %w", err)
			}
		}
		dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
		dialector = sqlite.Open(dsn)

	case "postgres":
		// PostgreSQL audit deployments run their schema through
		// golang-migrate's tracked migrations instead of GORM
		// AutoMigrate, since the database is commonly shared across
		// multiple fshd instances that must agree on schema version.
		if err := runPostgresMigrations(cfg.DSN); err != nil {
			return nil, err
		}
		autoMigrate = false
		dialector = postgres.Open(cfg.DSN)

	default:
		return nil, fmt.Errorf("unsupported audit backend %q", cfg.Backend)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open audit database: %w", err)
	}

	if autoMigrate {
		if err := db.AutoMigrate(AllModels()...); err != nil {
			return nil, fmt.Errorf("migrate audit schema: %w", err)
		}
	}

	return &GORMStore{db: db}, nil
}

// Record implements session.Auditor. Write failures are logged, not
// returned: a broken audit sink must never interrupt a client's session.
func (s *GORMStore) Record(event session.AuditEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := Event{
		EventType: event.EventType,
		SourceIP:  event.SourceIP,
		SessionID: event.SessionID,
		Resource:  event.Resource,
		Details:   event.Details,
		Timestamp: event.Timestamp,
	}
	if err := s.db.Create(&row).Error; err != nil {
		logger.Warn("audit write failed", "error", err)
	}
}

// Query returns the most recent audit events, newest first, bounded by
// limit, for the admin API's audit log endpoint.
func (s *GORMStore) Query(limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 100
	}
	var events []Event
	err := s.db.Order("id desc").Limit(limit).Find(&events).Error
	return events, err
}

// DeleteBefore removes every event with a timestamp earlier than cutoff,
// returning the number of rows deleted. Used by the archive package once a
// segment has been durably uploaded to S3.
func (s *GORMStore) DeleteBefore(cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := s.db.Where("timestamp < ?", cutoff).Delete(&Event{})
	return result.RowsAffected, result.Error
}

// DB returns the underlying GORM connection, for tests and migrations.
func (s *GORMStore) DB() *gorm.DB {
	return s.db
}

// Close releases the underlying database connection.
func (s *GORMStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
