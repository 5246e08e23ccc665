package gormstore

import (
	"context"

	"ecobank-loans/internal/domain/message"
	"ecobank-loans/internal/domain/notification"

	"gorm.io/gorm"
)

const defaultListLimit = 50

func listLimit(n int) int {
	if n <= 0 || n > 500 {
		return defaultListLimit
	}
	return n
}

type NotificationRepository struct{ db *gorm.DB }

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *NotificationRepository) ListByRecipient(ctx context.Context, recipientID string, limit int) ([]notification.Notification, error) {
	var out []notification.Notification
	err := r.db.WithContext(ctx).
		Where("recipient_id = ?", recipientID).
		Order("created_at DESC, id DESC").
		Limit(listLimit(limit)).
		Find(&out).Error
	return out, err
}

func (r *NotificationRepository) MarkRead(ctx context.Context, recipientID, notificationID string) error {
	var n notification.Notification
	q := r.db.WithContext(ctx).Where("recipient_id = ? AND notification_id = ?", recipientID, notificationID)
	if err := q.First(&n).Error; err != nil {
		return notFound(err, notification.ErrNotFound)
	}
	if n.IsRead {
		return nil
	}
	return r.db.WithContext(ctx).Model(&n).Update("is_read", true).Error
}

type MessageRepository struct{ db *gorm.DB }

func NewMessageRepository(db *gorm.DB) *MessageRepository { return &MessageRepository{db: db} }

func (r *MessageRepository) Create(ctx context.Context, m *message.Message) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *MessageRepository) ListForAccount(ctx context.Context, accountID string, limit int) ([]message.Message, error) {
	var out []message.Message
	err := r.db.WithContext(ctx).
		Where("sender_id = ? OR recipient_id = ?", accountID, accountID).
		Order("created_at DESC, id DESC").
		Limit(listLimit(limit)).
		Find(&out).Error
	return out, err
}

func (r *MessageRepository) MarkRead(ctx context.Context, recipientID, messageID string) error {
	var m message.Message
	q := r.db.WithContext(ctx).Where("recipient_id = ? AND message_id = ?", recipientID, messageID)
	if err := q.First(&m).Error; err != nil {
		return notFound(err, message.ErrNotFound)
	}
	if m.IsRead {
		return nil
	}
	return r.db.WithContext(ctx).Model(&m).Update("is_read", true).Error
}
