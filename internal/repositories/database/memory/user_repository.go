package memory

import (
	"context"
	"fmt"

	"github.com/cardbank/transfer_core/internal/apperrors"
	"github.com/cardbank/transfer_core/internal/core/domain"
	portsrepo "github.com/cardbank/transfer_core/internal/core/ports/repositories"
	"github.com/cardbank/transfer_core/internal/utils/mapping"
)

// UserRepository is the in-memory user store.
type UserRepository struct {
	store *Store
}

func NewUserRepository(store *Store) *UserRepository {
	return &UserRepository{store: store}
}

var _ portsrepo.UserRepositoryFacade = (*UserRepository)(nil)

func (r *UserRepository) SaveUser(ctx context.Context, user domain.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, taken := r.store.usersByName[user.Username]; taken {
		return fmt.Errorf("%w: username %s", apperrors.ErrDuplicate, user.Username)
	}
	if _, exists := r.store.usersByID[user.UserID]; exists {
		return fmt.Errorf("%w: user %s", apperrors.ErrDuplicate, user.UserID)
	}

	m := mapping.ToModelUser(user)
	r.store.usersByID[m.UserID] = m
	r.store.usersByName[m.Username] = m.UserID
	return nil
}

func (r *UserRepository) FindUserByID(ctx context.Context, userID string) (*domain.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	m, ok := r.store.usersByID[userID]
	if !ok || m.DeletedAt != nil {
		return nil, apperrors.ErrNotFound
	}
	user := mapping.ToDomainUser(m)
	return &user, nil
}

func (r *UserRepository) FindUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	userID, ok := r.store.usersByName[username]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	m := r.store.usersByID[userID]
	if m.DeletedAt != nil {
		return nil, apperrors.ErrNotFound
	}
	user := mapping.ToDomainUser(m)
	return &user, nil
}
