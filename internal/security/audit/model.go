package audit

import "time"

// Event is the durable row shape for one audit event, grounded on
// session.AuditEvent and stored via GORM.
type Event struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	EventType string    `gorm:"index;size:64;not null" json:"event_type"`
	SourceIP  string    `gorm:"index;size:64" json:"source_ip"`
	SessionID string    `gorm:"index;size:64" json:"session_id"`
	Resource  string    `gorm:"size:1024" json:"resource"`
	Details   string    `gorm:"type:text" json:"details"`
	Timestamp time.Time `gorm:"index;not null" json:"timestamp"`
}

// TableName pins the table name regardless of GORM's default pluralization
// heuristics.
func (Event) TableName() string { return "audit_events" }

// AllModels returns every GORM model the audit store auto-migrates.
func AllModels() []any {
	return []any{&Event{}}
}
