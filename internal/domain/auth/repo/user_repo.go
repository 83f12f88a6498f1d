package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/iamabhishekbhol/JWT-Authentication/internal/domain/auth/model"
)

// UserRepo is the session store adapter. Any persistence technology may
// implement it; the service only relies on the contracts below.
type UserRepo interface {
	// CreateUser persists a new identity. Returns ErrAlreadyExists if the
	// username is taken; the check must be atomic with the insert.
	CreateUser(ctx context.Context, u model.User) (uuid.UUID, error)

	// GetUserByUsername returns ErrNotFound when no record matches.
	GetUserByUsername(ctx context.Context, username string) (model.User, error)

	// GetUserByRefreshToken finds the identity whose active set contains
	// the raw token string. Returns ErrNotFound when no identity holds it.
	GetUserByRefreshToken(ctx context.Context, token string) (model.User, error)

	// UpdateUserTokens writes back the full refresh-token set. The write
	// succeeds only if the stored record still carries u.Version, and
	// increments it; otherwise ErrVersionConflict is returned and nothing
	// changes. This is the serialization point for rotation.
	UpdateUserTokens(ctx context.Context, u model.User) error
}
