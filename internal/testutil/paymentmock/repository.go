package paymentmock

import (
	"context"

	domain "ecobank-loans/internal/domain/payment"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
type Repo struct {
	CreateFn              func(ctx context.Context, p *domain.Payment) error
	ListByLoanRequestIDFn func(ctx context.Context, loanRequestID uint64) ([]domain.Payment, error)
	GetByPaymentIDFn      func(ctx context.Context, paymentID string) (*domain.Payment, error)
}

func (m *Repo) Create(ctx context.Context, p *domain.Payment) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, p)
	}
	return nil
}

func (m *Repo) ListByLoanRequestID(ctx context.Context, loanRequestID uint64) ([]domain.Payment, error) {
	if m.ListByLoanRequestIDFn != nil {
		return m.ListByLoanRequestIDFn(ctx, loanRequestID)
	}
	return nil, nil
}

func (m *Repo) GetByPaymentID(ctx context.Context, paymentID string) (*domain.Payment, error) {
	if m.GetByPaymentIDFn != nil {
		return m.GetByPaymentIDFn(ctx, paymentID)
	}
	return nil, domain.ErrNotFound
}
