package notify

import (
	"context"
	"errors"
	"fmt"

	"ecobank-loans/internal/domain/notification"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// Envelope is a rendered message ready for delivery.
type Envelope struct {
	ID          string
	Recipient   notification.Recipient
	TemplateKey string
	Subject     string
	Body        string
}

// Channel delivers an envelope over one medium. Errors are retried unless
// wrapped with Permanent.
type Channel interface {
	Name() string
	Deliver(ctx context.Context, e Envelope) error
}

type permanentError struct{ err error }

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

func isPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

type mailSender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// EmailChannel sends plain-text mail through an SMTP relay.
type EmailChannel struct {
	client mailSender
	from   string
}

type SMTPSettings struct {
	Host string
	Port int
	User string
	Pass string
	From string
	// mandatory | opportunistic | none
	TLS string
}

func NewEmailChannel(s SMTPSettings) (*EmailChannel, error) {
	opts := []mail.Option{mail.WithPort(s.Port), mail.WithTLSPolicy(tlsPolicy(s.TLS))}
	if s.User != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.User),
			mail.WithPassword(s.Pass))
	}
	c, err := mail.NewClient(s.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return &EmailChannel{client: c, from: s.From}, nil
}

func tlsPolicy(s string) mail.TLSPolicy {
	switch s {
	case "mandatory":
		return mail.TLSMandatory
	case "none":
		return mail.NoTLS
	default:
		return mail.TLSOpportunistic
	}
}

func (c *EmailChannel) Name() string { return "email" }

func (c *EmailChannel) Deliver(ctx context.Context, e Envelope) error {
	if e.Recipient.Email == "" {
		return nil
	}
	m := mail.NewMsg()
	if err := m.From(c.from); err != nil {
		return Permanent(fmt.Errorf("from address: %w", err))
	}
	to := e.Recipient.Email
	if e.Recipient.Name != "" {
		if err := m.AddToFormat(e.Recipient.Name, to); err != nil {
			return Permanent(fmt.Errorf("to address: %w", err))
		}
	} else if err := m.To(to); err != nil {
		return Permanent(fmt.Errorf("to address: %w", err))
	}
	m.Subject(e.Subject)
	m.SetBodyString(mail.TypeTextPlain, e.Body)
	return c.client.DialAndSendWithContext(ctx, m)
}

// LogChannel stands in for email when no SMTP relay is configured.
type LogChannel struct {
	log *zap.Logger
}

func NewLogChannel(l *zap.Logger) *LogChannel { return &LogChannel{log: l} }

func (c *LogChannel) Name() string { return "log" }

func (c *LogChannel) Deliver(_ context.Context, e Envelope) error {
	c.log.Info("notification",
		zap.String("message_id", e.ID),
		zap.String("template", e.TemplateKey),
		zap.String("recipient_id", e.Recipient.AccountID),
		zap.String("email", e.Recipient.Email),
		zap.String("subject", e.Subject))
	c.log.Debug("notification body", zap.String("message_id", e.ID), zap.String("body", e.Body))
	return nil
}

// InboxChannel stores the message as an in-app notification.
type InboxChannel struct {
	repo notification.Repository
}

func NewInboxChannel(repo notification.Repository) *InboxChannel { return &InboxChannel{repo: repo} }

func (c *InboxChannel) Name() string { return "inbox" }

func (c *InboxChannel) Deliver(ctx context.Context, e Envelope) error {
	if e.Recipient.AccountID == "" {
		return nil
	}
	return c.repo.Create(ctx, &notification.Notification{
		NotificationID: e.ID,
		RecipientID:    e.Recipient.AccountID,
		TemplateKey:    e.TemplateKey,
		Title:          e.Subject,
		Content:        e.Body,
	})
}
