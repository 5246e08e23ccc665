package loan

import "context"

type Repository interface {
	Create(ctx context.Context, l *LoanRequest) error
	GetByRequestID(ctx context.Context, requestID string) (*LoanRequest, error)
	// Locks the row where the store supports it; only meaningful inside a tx.
	GetByRequestIDForUpdate(ctx context.Context, requestID string) (*LoanRequest, error)
	// Most recent pending or validated request of the owner, ErrNotFound if none.
	GetInProgressByOwnerID(ctx context.Context, ownerID string) (*LoanRequest, error)
	ListByOwnerID(ctx context.Context, ownerID string) ([]LoanRequest, error)
	PaymentKeyExists(ctx context.Context, key string) (bool, error)
	// UpdateStatus persists the transition fields only if the stored status is still `from`.
	// Returns ErrInvalidTransition when another writer got there first.
	UpdateStatus(ctx context.Context, l *LoanRequest, from Status) error
}
