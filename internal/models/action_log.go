package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ActionType classifies an action log entry
type ActionType string

const (
	ActionReminderSent     ActionType = "REMINDER_SENT"
	ActionServiceScheduled ActionType = "SERVICE_SCHEDULED"
	ActionWarrantyViewed   ActionType = "WARRANTY_VIEWED"
	ActionEmailOpened      ActionType = "EMAIL_OPENED"
	ActionLinkClicked      ActionType = "LINK_CLICKED"
)

// Channel is the delivery channel an action went through
type Channel string

const (
	ChannelEmail    Channel = "EMAIL"
	ChannelWhatsApp Channel = "WHATSAPP"
	ChannelWeb      Channel = "WEB"
	ChannelSMS      Channel = "SMS"
	ChannelSystem   Channel = "SYSTEM"
)

// ActionLogEntry is an append-only record of an action taken for a unit.
// It is the audit trail and the deduplication ledger for reminders: the
// engine never updates or deletes rows here.
type ActionLogEntry struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UnitSerial string         `gorm:"size:50;not null;index" json:"unit_serial"`
	ActionType ActionType     `gorm:"size:30;not null;index" json:"action_type"`
	Channel    Channel        `gorm:"size:20;not null" json:"channel"`
	Metadata   datatypes.JSON `gorm:"type:jsonb;default:'{}'" json:"metadata"`
	CreatedAt  time.Time      `gorm:"not null;index" json:"created_at"`
}

// BeforeCreate hook assigns the entry id and timestamp
func (e *ActionLogEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	return nil
}

// TableName specifies the table name for the ActionLogEntry model
func (ActionLogEntry) TableName() string {
	return "action_log"
}
