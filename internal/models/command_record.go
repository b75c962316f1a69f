package models

import (
	"time"

	"gorm.io/datatypes"
)

// CommandRecord is the durable outcome of one PLC command attempt.
// Records are append-only: created once per attempt, never updated or
// deleted by this service. The ID is a ULID so records sort
// chronologically without a central sequence.
type CommandRecord struct {
	ID        string         `gorm:"primaryKey" json:"id"`
	UserID    string         `gorm:"not null;index" json:"user_id"`
	Timestamp time.Time      `gorm:"not null" json:"timestamp"`
	Command   string         `gorm:"not null" json:"command"` // read or write
	Value     string         `gorm:"not null" json:"value"`
	Area      string         `json:"area,omitempty"`
	Address   string         `json:"address,omitempty"`
	Status    string         `gorm:"not null" json:"status"` // success or error
	Result    datatypes.JSON `gorm:"type:jsonb" json:"result"`
	Owner     string         `gorm:"not null;index" json:"owner"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}
