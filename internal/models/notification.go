package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// NotificationType controls how a notification is rendered.
type NotificationType string

const (
	NotificationInfo    NotificationType = "info"
	NotificationSuccess NotificationType = "success"
	NotificationWarning NotificationType = "warning"
	NotificationError   NotificationType = "error"
)

// Valid reports whether t is a known notification type.
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationInfo, NotificationSuccess, NotificationWarning, NotificationError:
		return true
	}
	return false
}

// NotificationPriority is advisory only.
type NotificationPriority string

const (
	PriorityLow    NotificationPriority = "low"
	PriorityMedium NotificationPriority = "medium"
	PriorityHigh   NotificationPriority = "high"
)

// Valid reports whether p is a known priority.
func (p NotificationPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Notification is addressed to exactly one user. Role broadcasts are
// expanded into one row per recipient when they are sent. After creation
// only Read may change.
type Notification struct {
	ID              string               `gorm:"primaryKey;type:uuid" json:"id"`
	RecipientUserID string               `gorm:"type:uuid;not null;index:idx_notifications_recipient_read,priority:1" json:"recipient_user_id"`
	Title           string               `gorm:"type:varchar(255);not null" json:"title"`
	Message         string               `gorm:"type:text" json:"message"`
	Type            NotificationType     `gorm:"type:varchar(16);not null;default:'info'" json:"type"`
	Priority        NotificationPriority `gorm:"type:varchar(16);not null;default:'medium'" json:"priority"`
	Read            bool                 `gorm:"column:is_read;not null;default:false;index:idx_notifications_recipient_read,priority:2" json:"read"`
	ActionURL       string               `gorm:"type:text" json:"action_url,omitempty"`
	ActionLabel     string               `gorm:"type:varchar(64)" json:"action_label,omitempty"`
	Metadata        datatypes.JSON       `json:"metadata,omitempty"`
	CreatedAt       time.Time            `gorm:"index;not null" json:"created_at"`
}

// BeforeCreate assigns a UUID when the caller did not supply one.
func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}
