package accountmock

import (
	"context"
	"io"

	domain "ecobank-loans/internal/domain/account"
)

var (
	_ domain.Repository    = (*Repo)(nil)
	_ domain.DocumentStore = (*Store)(nil)
)

// Repo is a function-backed mock that satisfies domain.Repository.
type Repo struct {
	CreateFn                  func(ctx context.Context, a *domain.Account) error
	CreateProfileFn           func(ctx context.Context, p *domain.Profile) error
	SaveProfileFn             func(ctx context.Context, p *domain.Profile) error
	GetByAccountIDFn          func(ctx context.Context, accountID string) (*domain.Account, error)
	GetByAccountIDForUpdateFn func(ctx context.Context, accountID string) (*domain.Account, error)
	ExistsFn                  func(ctx context.Context, username, email string) (bool, error)
}

func (m *Repo) Create(ctx context.Context, a *domain.Account) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, a)
	}
	return nil
}

func (m *Repo) CreateProfile(ctx context.Context, p *domain.Profile) error {
	if m.CreateProfileFn != nil {
		return m.CreateProfileFn(ctx, p)
	}
	return nil
}

func (m *Repo) SaveProfile(ctx context.Context, p *domain.Profile) error {
	if m.SaveProfileFn != nil {
		return m.SaveProfileFn(ctx, p)
	}
	return nil
}

func (m *Repo) GetByAccountID(ctx context.Context, accountID string) (*domain.Account, error) {
	if m.GetByAccountIDFn != nil {
		return m.GetByAccountIDFn(ctx, accountID)
	}
	return nil, domain.ErrNotFound
}

// Falls back to GetByAccountIDFn so tests only need to stub one lookup.
func (m *Repo) GetByAccountIDForUpdate(ctx context.Context, accountID string) (*domain.Account, error) {
	if m.GetByAccountIDForUpdateFn != nil {
		return m.GetByAccountIDForUpdateFn(ctx, accountID)
	}
	return m.GetByAccountID(ctx, accountID)
}

func (m *Repo) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	if m.ExistsFn != nil {
		return m.ExistsFn(ctx, username, email)
	}
	return false, nil
}

// Store is a function-backed DocumentStore.
type Store struct {
	PutFn func(ctx context.Context, prefix, filename, contentType string, r io.Reader, size int64) (string, error)
}

func (s *Store) Put(ctx context.Context, prefix, filename, contentType string, r io.Reader, size int64) (string, error) {
	if s.PutFn != nil {
		return s.PutFn(ctx, prefix, filename, contentType, r, size)
	}
	return prefix + "/" + filename, nil
}
