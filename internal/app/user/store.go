package user

import (
	"context"
	"errors"
)

var (
	ErrNotFound         = errors.New("user not found")
	ErrUsernameTaken    = errors.New("username already taken")
	ErrFederatedIDTaken = errors.New("federated identity already linked")
	ErrNoCredential     = errors.New("user has neither a password nor a federated identity")
)

// Store persists users. Implementations must be safe for concurrent use.
type Store interface {
	// FindByUsername returns ErrNotFound when no user has that username.
	FindByUsername(ctx context.Context, username string) (*User, error)

	// FindByID returns ErrNotFound when id is unknown.
	FindByID(ctx context.Context, id string) (*User, error)

	// FindByFederatedID returns ErrNotFound when no user is linked to federatedID.
	FindByFederatedID(ctx context.Context, federatedID string) (*User, error)

	// Create assigns ID and timestamps and stores u. It never overwrites an
	// existing record: duplicates yield ErrUsernameTaken or ErrFederatedIDTaken.
	Create(ctx context.Context, u *User) (*User, error)

	// UpdateSecret replaces the secret of user id, leaving every other
	// column as it is. ErrNotFound when id is unknown.
	UpdateSecret(ctx context.Context, id, secret string) error

	// UpdatePasswordHash replaces the password hash of user id only.
	UpdatePasswordHash(ctx context.Context, id, hash string) error

	// FindAllWithSecret lists users whose Secret is non-empty, oldest first.
	FindAllWithSecret(ctx context.Context) ([]*User, error)

	Close() error
}
