// Package notify renders notification templates and delivers them out of band.
package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ecobank-loans/internal/domain/notification"
	"ecobank-loans/pkg/id"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

var _ notification.Notifier = (*Dispatcher)(nil)

type Config struct {
	Workers     int
	QueueSize   int
	MaxRetries  uint64
	RetryBase   time.Duration
	SendTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.Workers < 1 {
		c.Workers = 1
	}
	if c.QueueSize < 1 {
		c.QueueSize = 64
	}
	if c.RetryBase <= 0 {
		c.RetryBase = 500 * time.Millisecond
	}
	if c.SendTimeout <= 0 {
		c.SendTimeout = 10 * time.Second
	}
	return c
}

// DeadLetterSink receives deliveries that exhausted their retries.
type DeadLetterSink interface {
	Put(l Letter) error
}

// Dispatcher owns a bounded queue and the worker pool draining it. Callers
// only ever enqueue; a full or closed queue drops the message.
type Dispatcher struct {
	renderer *Renderer
	channels []Channel
	dead     DeadLetterSink
	log      *zap.Logger
	cfg      Config

	queue chan notification.Outbound
	mu    sync.RWMutex
	// guarded by mu
	closed    bool
	closeOnce sync.Once
	wg        sync.WaitGroup
}

type Option func(*Dispatcher)

func WithLogger(l *zap.Logger) Option          { return func(d *Dispatcher) { d.log = l } }
func WithDeadLetters(s DeadLetterSink) Option { return func(d *Dispatcher) { d.dead = s } }

func NewDispatcher(r *Renderer, channels []Channel, cfg Config, opts ...Option) *Dispatcher {
	cfg = cfg.withDefaults()
	d := &Dispatcher{
		renderer: r,
		channels: channels,
		log:      zap.NewNop(),
		cfg:      cfg,
		queue:    make(chan notification.Outbound, cfg.QueueSize),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Dispatch enqueues m without waiting for delivery.
func (d *Dispatcher) Dispatch(_ context.Context, m notification.Outbound) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.log.Warn("notification dropped: dispatcher closed",
			zap.String("template", m.TemplateKey),
			zap.String("recipient_id", m.Recipient.AccountID))
		return
	}
	select {
	case d.queue <- m:
	default:
		d.log.Warn("notification dropped: queue full",
			zap.String("template", m.TemplateKey),
			zap.String("recipient_id", m.Recipient.AccountID),
			zap.Int("queue_size", d.cfg.QueueSize))
	}
}

// Run starts the workers and blocks until ctx is done, then stops accepting
// messages and waits for the queue to drain.
func (d *Dispatcher) Run(ctx context.Context) error {
	// in-flight deliveries outlive ctx; SendTimeout bounds each attempt
	work := context.WithoutCancel(ctx)
	d.wg.Add(d.cfg.Workers)
	for i := 0; i < d.cfg.Workers; i++ {
		go d.worker(work)
	}
	d.log.Info("notification dispatcher started", zap.Int("workers", d.cfg.Workers), zap.Int("queue_size", d.cfg.QueueSize))

	<-ctx.Done()
	d.Close()
	d.wg.Wait()
	d.log.Info("notification dispatcher stopped")
	return nil
}

// Close stops accepting messages. Already queued ones are still delivered by
// running workers.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		d.mu.Lock()
		d.closed = true
		close(d.queue)
		d.mu.Unlock()
	})
}

func (d *Dispatcher) worker(ctx context.Context) {
	defer d.wg.Done()
	for m := range d.queue {
		d.handle(ctx, m)
	}
}

func (d *Dispatcher) handle(ctx context.Context, m notification.Outbound) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("notification worker panic",
				zap.Any("panic", r),
				zap.String("template", m.TemplateKey))
		}
	}()

	subject, body, err := d.renderer.Render(m.TemplateKey, m.Data)
	if err != nil {
		d.log.Error("notification render failed", zap.String("template", m.TemplateKey), zap.Error(err))
		return
	}
	env := Envelope{
		ID:          id.NewID32(),
		Recipient:   m.Recipient,
		TemplateKey: m.TemplateKey,
		Subject:     subject,
		Body:        body,
	}
	for _, ch := range d.channels {
		if err := d.deliver(ctx, ch, env); err != nil {
			d.log.Error("notification delivery failed",
				zap.String("channel", ch.Name()),
				zap.String("message_id", env.ID),
				zap.String("template", env.TemplateKey),
				zap.String("recipient_id", env.Recipient.AccountID),
				zap.Error(err))
			d.deadLetter(ch, env, err)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, ch Channel, env Envelope) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = Permanent(fmt.Errorf("channel %s panicked: %v", ch.Name(), r))
		}
	}()

	b := retry.WithMaxRetries(d.cfg.MaxRetries, retry.WithCappedDuration(30*time.Second, retry.NewExponential(d.cfg.RetryBase)))
	attempt := 0
	return retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		actx, cancel := context.WithTimeout(ctx, d.cfg.SendTimeout)
		defer cancel()

		err := ch.Deliver(actx, env)
		if err == nil || isPermanent(err) {
			return err
		}
		d.log.Warn("notification attempt failed",
			zap.String("channel", ch.Name()),
			zap.String("message_id", env.ID),
			zap.Int("attempt", attempt),
			zap.Error(err))
		return retry.RetryableError(err)
	})
}

func (d *Dispatcher) deadLetter(ch Channel, env Envelope, cause error) {
	if d.dead == nil {
		return
	}
	err := d.dead.Put(Letter{
		MessageID:   env.ID,
		Channel:     ch.Name(),
		TemplateKey: env.TemplateKey,
		RecipientID: env.Recipient.AccountID,
		Email:       env.Recipient.Email,
		Subject:     env.Subject,
		Body:        env.Body,
		Error:       cause.Error(),
		FailedAt:    time.Now().UTC(),
	})
	if err != nil {
		d.log.Error("dead letter write failed", zap.String("message_id", env.ID), zap.Error(err))
	}
}
