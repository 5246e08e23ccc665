package notifymock

import (
	"context"
	"sync"

	"ecobank-loans/internal/domain/notification"
)

var _ notification.Notifier = (*Recorder)(nil)

// Recorder keeps every dispatched message in order.
type Recorder struct {
	mu   sync.Mutex
	sent []notification.Outbound
}

func (r *Recorder) Dispatch(_ context.Context, m notification.Outbound) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, m)
}

func (r *Recorder) Sent() []notification.Outbound {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]notification.Outbound, len(r.sent))
	copy(out, r.sent)
	return out
}

// Keys returns the template keys in dispatch order.
func (r *Recorder) Keys() []string {
	var keys []string
	for _, m := range r.Sent() {
		keys = append(keys, m.TemplateKey)
	}
	return keys
}
