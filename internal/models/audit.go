package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditStream is one calendar-day partition (UTC, YYYY-MM-DD) of the
// audit trail under a log group. Streams are created lazily on first
// append; the (log_group, name) pair is unique so a concurrent create
// surfaces as a duplicate-key error the sink tolerates.
type AuditStream struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	LogGroup  string    `gorm:"not null;uniqueIndex:idx_audit_group_stream" json:"log_group"`
	Name      string    `gorm:"not null;uniqueIndex:idx_audit_group_stream" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// AuditEntry is one appended line in a stream. The ID is a ULID, so
// entries order chronologically and serve as a keyset cursor.
type AuditEntry struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	StreamID  uuid.UUID `gorm:"type:uuid;not null;index" json:"stream_id"`
	Timestamp time.Time `gorm:"not null;index" json:"timestamp"`
	Message   string    `gorm:"type:text;not null" json:"message"`
}
