package message

import (
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("message not found")
	ErrInvalid  = errors.New("invalid message")
)

// Message is an internal note between a client and the manager.
type Message struct {
	ID            uint64    `gorm:"primaryKey;column:id" json:"-"`
	MessageID     string    `gorm:"size:32;not null;uniqueIndex:ux_messages_message_id" json:"message_id"`
	SenderID      string    `gorm:"size:32;not null;index:idx_messages_sender" json:"sender_id"`
	RecipientID   string    `gorm:"size:32;not null;index:idx_messages_recipient" json:"recipient_id"`
	LoanRequestID string    `gorm:"size:32" json:"loan_request_id,omitempty"`
	Subject       string    `gorm:"size:200;not null" json:"subject"`
	Content       string    `gorm:"type:text;not null" json:"content"`
	IsRead        bool      `gorm:"not null;default:false" json:"is_read"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Message) TableName() string { return "messages" }
