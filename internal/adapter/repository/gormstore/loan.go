package gormstore

import (
	"context"

	loanDomain "ecobank-loans/internal/domain/loan"

	"gorm.io/gorm"
)

type LoanRepository struct{ db *gorm.DB }

func NewLoanRepository(db *gorm.DB) *LoanRepository { return &LoanRepository{db: db} }

func (r *LoanRepository) Create(ctx context.Context, l *loanDomain.LoanRequest) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *LoanRepository) GetByRequestID(ctx context.Context, requestID string) (*loanDomain.LoanRequest, error) {
	var out loanDomain.LoanRequest
	err := r.db.WithContext(ctx).Where("request_id = ?", requestID).First(&out).Error
	if err != nil {
		return nil, notFound(err, loanDomain.ErrNotFound)
	}
	return &out, nil
}

func (r *LoanRepository) GetByRequestIDForUpdate(ctx context.Context, requestID string) (*loanDomain.LoanRequest, error) {
	var out loanDomain.LoanRequest
	err := forUpdate(r.db.WithContext(ctx)).Where("request_id = ?", requestID).First(&out).Error
	if err != nil {
		return nil, notFound(err, loanDomain.ErrNotFound)
	}
	return &out, nil
}

func (r *LoanRepository) GetInProgressByOwnerID(ctx context.Context, ownerID string) (*loanDomain.LoanRequest, error) {
	var out loanDomain.LoanRequest
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND status IN ?", ownerID,
			[]loanDomain.Status{loanDomain.StatusPending, loanDomain.StatusValidated}).
		Order("requested_at DESC, id DESC").
		First(&out).Error
	if err != nil {
		return nil, notFound(err, loanDomain.ErrNotFound)
	}
	return &out, nil
}

// ListByOwnerID returns newest first.
func (r *LoanRepository) ListByOwnerID(ctx context.Context, ownerID string) ([]loanDomain.LoanRequest, error) {
	var out []loanDomain.LoanRequest
	err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("id DESC").Find(&out).Error
	return out, err
}

func (r *LoanRepository) PaymentKeyExists(ctx context.Context, key string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&loanDomain.LoanRequest{}).Where("payment_key = ?", key).Count(&n).Error
	return n > 0, err
}

// UpdateStatus writes the transition columns guarded by the observed status.
func (r *LoanRepository) UpdateStatus(ctx context.Context, l *loanDomain.LoanRequest, from loanDomain.Status) error {
	res := r.db.WithContext(ctx).
		Model(&loanDomain.LoanRequest{}).
		Where("id = ? AND status = ?", l.ID, from).
		Updates(map[string]any{
			"status":       l.Status,
			"payment_key":  l.PaymentKey,
			"validated_at": l.ValidatedAt,
			"paid_at":      l.PaidAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return loanDomain.ErrInvalidTransition
	}
	return nil
}
