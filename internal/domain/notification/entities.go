package notification

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("notification not found")

// Notification is an in-app inbox entry; one is stored per delivered outbound message.
type Notification struct {
	ID             uint64    `gorm:"primaryKey;column:id" json:"-"`
	NotificationID string    `gorm:"size:32;not null;uniqueIndex:ux_notifications_notification_id" json:"notification_id"`
	RecipientID    string    `gorm:"size:32;not null;index:idx_notifications_recipient" json:"recipient_id"`
	TemplateKey    string    `gorm:"size:64;not null" json:"template_key"`
	Title          string    `gorm:"size:255;not null" json:"title"`
	Content        string    `gorm:"type:text" json:"content"`
	IsRead         bool      `gorm:"not null;default:false" json:"is_read"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Notification) TableName() string { return "notifications" }

type Recipient struct {
	AccountID string
	Email     string
	Name      string
}

// Outbound is one message handed to the dispatcher.
type Outbound struct {
	Recipient   Recipient
	TemplateKey string
	Data        map[string]any
}
