package uow

import (
	"context"

	"ecobank-loans/internal/domain/account"
	"ecobank-loans/internal/domain/loan"
	"ecobank-loans/internal/domain/payment"
)

// Repos bound to one transaction.
type Repos struct {
	Loans    loan.Repository
	Payments payment.Repository
	Accounts account.Repository
}

type UnitOfWork interface {
	// plain tx
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// lock the loan request first, then pass it in
	WithinLoanTx(ctx context.Context, requestID string, fn func(r Repos, l *loan.LoanRequest) error) error
}
