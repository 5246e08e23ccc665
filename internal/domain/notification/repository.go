package notification

import "context"

type Repository interface {
	Create(ctx context.Context, n *Notification) error
	// Newest first, at most limit rows.
	ListByRecipient(ctx context.Context, recipientID string, limit int) ([]Notification, error)
	// Scoped to the recipient; ErrNotFound otherwise.
	MarkRead(ctx context.Context, recipientID, notificationID string) error
}

// Notifier accepts outbound messages. Dispatch never blocks on delivery and
// never reports delivery failures to the caller.
type Notifier interface {
	Dispatch(ctx context.Context, m Outbound)
}
