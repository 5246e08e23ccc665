package inbox

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"ecobank-loans/internal/domain/account"
	"ecobank-loans/internal/domain/message"
	"ecobank-loans/internal/domain/notification"
	"ecobank-loans/pkg/id"

	"go.uber.org/zap"
)

const (
	maxSubject = 200
	maxContent = 5000
)

type SendInput struct {
	SenderID string
	// Empty means the manager.
	RecipientID   string
	LoanRequestID string
	Subject       string
	Content       string
}

// Usecase serves the internal messaging between clients and the manager and
// the read side of the notification inbox.
type Usecase struct {
	messages      message.Repository
	notifications notification.Repository
	accounts      account.Repository
	managerID     string

	notifier notification.Notifier
	log      *zap.Logger
	now      func() time.Time
}

type Option func(*Usecase)

func WithNotifier(n notification.Notifier) Option { return func(u *Usecase) { u.notifier = n } }
func WithLogger(l *zap.Logger) Option             { return func(u *Usecase) { u.log = l } }

func NewUsecase(messages message.Repository, notifications notification.Repository, accounts account.Repository, managerID string, opts ...Option) *Usecase {
	u := &Usecase{
		messages:      messages,
		notifications: notifications,
		accounts:      accounts,
		managerID:     managerID,
		log:           zap.NewNop(),
		now:           func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(u)
	}
	return u
}

// SendMessage stores a message. Clients can only write to the manager; the
// manager can write to any client, who then gets a new_message notification.
func (u *Usecase) SendMessage(ctx context.Context, in SendInput) (*message.Message, error) {
	subject := strings.TrimSpace(in.Subject)
	content := strings.TrimSpace(in.Content)
	if subject == "" || utf8.RuneCountInString(subject) > maxSubject {
		return nil, fmt.Errorf("%w: subject must be 1-%d characters", message.ErrInvalid, maxSubject)
	}
	if content == "" || utf8.RuneCountInString(content) > maxContent {
		return nil, fmt.Errorf("%w: content must be 1-%d characters", message.ErrInvalid, maxContent)
	}

	fromManager := in.SenderID == u.managerID
	recipientID := in.RecipientID
	if recipientID == "" {
		if fromManager {
			return nil, fmt.Errorf("%w: recipient required", message.ErrInvalid)
		}
		recipientID = u.managerID
	}
	if recipientID == in.SenderID {
		return nil, fmt.Errorf("%w: cannot message yourself", message.ErrInvalid)
	}
	if !fromManager && recipientID != u.managerID {
		return nil, account.ErrForbidden
	}

	sender, err := u.accounts.GetByAccountID(ctx, in.SenderID)
	if err != nil {
		return nil, err
	}
	recipient, err := u.accounts.GetByAccountID(ctx, recipientID)
	if err != nil {
		return nil, err
	}

	m := &message.Message{
		MessageID:     id.NewID32(),
		SenderID:      sender.AccountID,
		RecipientID:   recipient.AccountID,
		LoanRequestID: in.LoanRequestID,
		Subject:       subject,
		Content:       content,
	}
	if err := u.messages.Create(ctx, m); err != nil {
		return nil, err
	}
	u.log.Debug("message stored", zap.String("message_id", m.MessageID), zap.Bool("from_manager", fromManager))

	if fromManager && u.notifier != nil {
		u.notifier.Dispatch(ctx, notification.Outbound{
			Recipient:   notification.Recipient{AccountID: recipient.AccountID, Email: recipient.Email, Name: recipient.DisplayName()},
			TemplateKey: notification.TemplateNewMessage,
			Data: map[string]any{
				"RecipientName": recipient.DisplayName(),
				"SenderName":    sender.DisplayName(),
				"Subject":       subject,
				"Date":          u.now().Format("02/01/2006 15:04"),
			},
		})
	}
	return m, nil
}

func (u *Usecase) ListMessages(ctx context.Context, accountID string, limit int) ([]message.Message, error) {
	return u.messages.ListForAccount(ctx, accountID, limit)
}

func (u *Usecase) MarkMessageRead(ctx context.Context, accountID, messageID string) error {
	return u.messages.MarkRead(ctx, accountID, messageID)
}

func (u *Usecase) ListNotifications(ctx context.Context, accountID string, limit int) ([]notification.Notification, error) {
	return u.notifications.ListByRecipient(ctx, accountID, limit)
}

func (u *Usecase) MarkNotificationRead(ctx context.Context, accountID, notificationID string) error {
	return u.notifications.MarkRead(ctx, accountID, notificationID)
}
