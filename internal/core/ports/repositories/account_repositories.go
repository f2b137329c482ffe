package repositories

import (
	"context"
	"time"

	"github.com/cardbank/transfer_core/internal/core/domain"
	"github.com/shopspring/decimal"
)

// AccountReader defines read operations for account data
type AccountReader interface {
	// FindAccountByID retrieves a specific account by its unique identifier.
	FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error)

	// FindAccountByCardNumber retrieves an account by its 16-digit card number.
	FindAccountByCardNumber(ctx context.Context, cardNumber string) (*domain.Account, error)

	// FindAccountByCardNumberAndOwner retrieves an account by card number,
	// restricted to accounts owned by the user with the given username.
	// Returns ErrNotFound when the card exists but belongs to someone else.
	FindAccountByCardNumberAndOwner(ctx context.Context, cardNumber string, username string) (*domain.Account, error)

	// ExistsByCardNumber reports whether any account uses the card number.
	ExistsByCardNumber(ctx context.Context, cardNumber string) (bool, error)

	// ExistsForUserAndCurrency reports whether the user already holds an
	// account denominated in the given currency.
	ExistsForUserAndCurrency(ctx context.Context, userID string, currency domain.CurrencyCode) (bool, error)

	// ListAccountsByUser retrieves all accounts owned by the user.
	ListAccountsByUser(ctx context.Context, userID string) ([]domain.Account, error)
}

// AccountWriter defines write operations for account data
type AccountWriter interface {
	// SaveAccount persists a new account. Fails with ErrDuplicateCardNumber
	// if the card number is taken and ErrAccountAlreadyExists if the owner
	// already holds an account in the currency.
	SaveAccount(ctx context.Context, account domain.Account) error

	// ApplyDelta atomically adds delta (positive or negative) to the account
	// balance. The mutation is rejected with ErrInsufficientBalance if the
	// resulting balance would go negative, and with ErrConcurrentModification
	// if expectedVersion no longer matches the stored version. This is the
	// optimistic-concurrency entry point for stores that cannot hold row
	// locks across the whole transfer; the pgsql store instead locks rows in
	// SaveTransfer and callers using it will not see version conflicts.
	ApplyDelta(ctx context.Context, accountID string, delta decimal.Decimal, expectedVersion int64, userID string, now time.Time) (*domain.Account, error)

	// DeleteAccount removes an account. Fails with ErrAccountBalanceNonZero
	// unless the balance is exactly zero.
	DeleteAccount(ctx context.Context, accountID string) error
}

// AccountRepositoryFacade combines all account-related repository interfaces
type AccountRepositoryFacade interface {
	AccountReader
	AccountWriter
}

// AccountCacheInvalidator is implemented by caching decorators so services
// can explicitly drop stale entries after a mutation.
type AccountCacheInvalidator interface {
	InvalidateAccount(accountID string, cardNumber string)
}
