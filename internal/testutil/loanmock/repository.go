package loanmock

import (
	"context"

	domain "ecobank-loans/internal/domain/loan"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
// Getters without a func return domain.ErrNotFound; writers default to no-ops.
type Repo struct {
	CreateFn                  func(ctx context.Context, l *domain.LoanRequest) error
	GetByRequestIDFn          func(ctx context.Context, requestID string) (*domain.LoanRequest, error)
	GetByRequestIDForUpdateFn func(ctx context.Context, requestID string) (*domain.LoanRequest, error)
	GetInProgressByOwnerIDFn  func(ctx context.Context, ownerID string) (*domain.LoanRequest, error)
	ListByOwnerIDFn           func(ctx context.Context, ownerID string) ([]domain.LoanRequest, error)
	PaymentKeyExistsFn        func(ctx context.Context, key string) (bool, error)
	UpdateStatusFn            func(ctx context.Context, l *domain.LoanRequest, from domain.Status) error
}

func (m *Repo) Create(ctx context.Context, l *domain.LoanRequest) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, l)
	}
	return nil
}

func (m *Repo) GetByRequestID(ctx context.Context, requestID string) (*domain.LoanRequest, error) {
	if m.GetByRequestIDFn != nil {
		return m.GetByRequestIDFn(ctx, requestID)
	}
	return nil, domain.ErrNotFound
}

func (m *Repo) GetByRequestIDForUpdate(ctx context.Context, requestID string) (*domain.LoanRequest, error) {
	if m.GetByRequestIDForUpdateFn != nil {
		return m.GetByRequestIDForUpdateFn(ctx, requestID)
	}
	return nil, domain.ErrNotFound
}

func (m *Repo) GetInProgressByOwnerID(ctx context.Context, ownerID string) (*domain.LoanRequest, error) {
	if m.GetInProgressByOwnerIDFn != nil {
		return m.GetInProgressByOwnerIDFn(ctx, ownerID)
	}
	return nil, domain.ErrNotFound
}

func (m *Repo) ListByOwnerID(ctx context.Context, ownerID string) ([]domain.LoanRequest, error) {
	if m.ListByOwnerIDFn != nil {
		return m.ListByOwnerIDFn(ctx, ownerID)
	}
	return nil, nil
}

func (m *Repo) PaymentKeyExists(ctx context.Context, key string) (bool, error) {
	if m.PaymentKeyExistsFn != nil {
		return m.PaymentKeyExistsFn(ctx, key)
	}
	return false, nil
}

func (m *Repo) UpdateStatus(ctx context.Context, l *domain.LoanRequest, from domain.Status) error {
	if m.UpdateStatusFn != nil {
		return m.UpdateStatusFn(ctx, l, from)
	}
	return nil
}
