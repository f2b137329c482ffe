package repositories

import (
	"context"

	"github.com/cardbank/transfer_core/internal/core/domain"
)

// UserRepositoryFacade defines the minimal user persistence the core needs
// for ownership checks and account bookkeeping.
type UserRepositoryFacade interface {
	// SaveUser persists a new user. Fails with ErrDuplicate on username reuse.
	SaveUser(ctx context.Context, user domain.User) error

	// FindUserByID retrieves a user by primary key.
	FindUserByID(ctx context.Context, userID string) (*domain.User, error)

	// FindUserByUsername retrieves a user by unique username.
	FindUserByUsername(ctx context.Context, username string) (*domain.User, error)
}
