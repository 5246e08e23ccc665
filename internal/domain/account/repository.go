package account

import (
	"context"
	"io"
)

type Repository interface {
	Create(ctx context.Context, a *Account) error
	CreateProfile(ctx context.Context, p *Profile) error
	SaveProfile(ctx context.Context, p *Profile) error

	// Both getters preload the profile.
	GetByAccountID(ctx context.Context, accountID string) (*Account, error)
	GetByAccountIDForUpdate(ctx context.Context, accountID string) (*Account, error)

	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
}

// DocumentStore keeps uploaded KYC and project files out of the database.
type DocumentStore interface {
	// Put stores the object and returns the key to persist.
	Put(ctx context.Context, prefix, filename, contentType string, r io.Reader, size int64) (string, error)
}

// Authorizer answers who holds the manager role. The manager identity is
// configured at startup, never looked up.
type Authorizer interface {
	IsManager(accountID string) bool
}

// StaticManager authorizes exactly one configured account id.
type StaticManager string

func (m StaticManager) IsManager(accountID string) bool {
	return m != "" && accountID == string(m)
}
