package inboxmock

import (
	"context"

	"ecobank-loans/internal/domain/message"
	"ecobank-loans/internal/domain/notification"
)

var (
	_ message.Repository      = (*Messages)(nil)
	_ notification.Repository = (*Notifications)(nil)
)

// Messages is a function-backed message.Repository.
type Messages struct {
	CreateFn         func(ctx context.Context, m *message.Message) error
	ListForAccountFn func(ctx context.Context, accountID string, limit int) ([]message.Message, error)
	MarkReadFn       func(ctx context.Context, recipientID, messageID string) error
}

func (m *Messages) Create(ctx context.Context, msg *message.Message) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, msg)
	}
	return nil
}

func (m *Messages) ListForAccount(ctx context.Context, accountID string, limit int) ([]message.Message, error) {
	if m.ListForAccountFn != nil {
		return m.ListForAccountFn(ctx, accountID, limit)
	}
	return nil, nil
}

func (m *Messages) MarkRead(ctx context.Context, recipientID, messageID string) error {
	if m.MarkReadFn != nil {
		return m.MarkReadFn(ctx, recipientID, messageID)
	}
	return message.ErrNotFound
}

// Notifications is a function-backed notification.Repository.
type Notifications struct {
	CreateFn          func(ctx context.Context, n *notification.Notification) error
	ListByRecipientFn func(ctx context.Context, recipientID string, limit int) ([]notification.Notification, error)
	MarkReadFn        func(ctx context.Context, recipientID, notificationID string) error
}

func (m *Notifications) Create(ctx context.Context, n *notification.Notification) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, n)
	}
	return nil
}

func (m *Notifications) ListByRecipient(ctx context.Context, recipientID string, limit int) ([]notification.Notification, error) {
	if m.ListByRecipientFn != nil {
		return m.ListByRecipientFn(ctx, recipientID, limit)
	}
	return nil, nil
}

func (m *Notifications) MarkRead(ctx context.Context, recipientID, notificationID string) error {
	if m.MarkReadFn != nil {
		return m.MarkReadFn(ctx, recipientID, notificationID)
	}
	return notification.ErrNotFound
}
