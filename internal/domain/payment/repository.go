package payment

import "context"

type Repository interface {
	// Create records one attempt; attempts are never updated.
	Create(ctx context.Context, p *Payment) error

	// All attempts for a loan request, oldest first
	ListByLoanRequestID(ctx context.Context, loanRequestID uint64) ([]Payment, error)

	GetByPaymentID(ctx context.Context, paymentID string) (*Payment, error)
}
