package services

import (
	"context"

	"github.com/cardbank/transfer_core/internal/core/domain"
	"github.com/cardbank/transfer_core/internal/dto"
)

// AccountSvcFacade is the account lifecycle surface consumed by the calling layer.
type AccountSvcFacade interface {
	// CreateAccount opens a zero-balance account in the requested currency
	// with a freshly generated unique card number.
	CreateAccount(ctx context.Context, req dto.CreateAccountRequest, creatorUserID string) (*domain.Account, error)

	// CloseAccount deletes the account identified by card number, restricted
	// to the acting user's ownership. The balance must be exactly zero.
	CloseAccount(ctx context.Context, cardNumber string, actingUsername string) error

	// GetAccountByID retrieves a single account.
	GetAccountByID(ctx context.Context, accountID string) (*domain.Account, error)

	// GetAccountByCardNumber retrieves a single account by card number.
	GetAccountByCardNumber(ctx context.Context, cardNumber string) (*domain.Account, error)

	// ListAccountsByUser lists every account the user owns.
	ListAccountsByUser(ctx context.Context, userID string) ([]domain.Account, error)
}
