package message

import "context"

type Repository interface {
	Create(ctx context.Context, m *Message) error
	// Sent and received, newest first.
	ListForAccount(ctx context.Context, accountID string, limit int) ([]Message, error)
	// Only the recipient may mark a message read.
	MarkRead(ctx context.Context, recipientID, messageID string) error
}
