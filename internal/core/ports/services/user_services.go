package services

import (
	"context"

	"github.com/cardbank/transfer_core/internal/core/domain"
	"github.com/cardbank/transfer_core/internal/dto"
)

// UserSvcFacade is the minimal user surface the core needs for ownership
// resolution; profile management lives outside this module.
type UserSvcFacade interface {
	CreateUser(ctx context.Context, req dto.CreateUserRequest) (*domain.User, error)
	GetUserByID(ctx context.Context, userID string) (*domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
}
