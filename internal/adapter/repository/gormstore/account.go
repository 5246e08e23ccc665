package gormstore

import (
	"context"

	accountDomain "ecobank-loans/internal/domain/account"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AccountRepository struct{ db *gorm.DB }

func NewAccountRepository(db *gorm.DB) *AccountRepository { return &AccountRepository{db: db} }

// Create inserts the account row only; profiles go through CreateProfile.
func (r *AccountRepository) Create(ctx context.Context, a *accountDomain.Account) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(a).Error
}

func (r *AccountRepository) CreateProfile(ctx context.Context, p *accountDomain.Profile) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *AccountRepository) SaveProfile(ctx context.Context, p *accountDomain.Profile) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *AccountRepository) GetByAccountID(ctx context.Context, accountID string) (*accountDomain.Account, error) {
	var out accountDomain.Account
	err := r.db.WithContext(ctx).Preload("Profile").Where("account_id = ?", accountID).First(&out).Error
	if err != nil {
		return nil, notFound(err, accountDomain.ErrNotFound)
	}
	return &out, nil
}

func (r *AccountRepository) GetByAccountIDForUpdate(ctx context.Context, accountID string) (*accountDomain.Account, error) {
	var out accountDomain.Account
	err := forUpdate(r.db.WithContext(ctx)).Preload("Profile").Where("account_id = ?", accountID).First(&out).Error
	if err != nil {
		return nil, notFound(err, accountDomain.ErrNotFound)
	}
	return &out, nil
}

func (r *AccountRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&accountDomain.Account{}).
		Where("username = ? OR email = ?", username, email).
		Count(&n).Error
	return n > 0, err
}
