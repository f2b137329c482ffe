package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/cardbank/transfer_core/internal/apperrors"
	"github.com/cardbank/transfer_core/internal/core/domain"
	portsrepo "github.com/cardbank/transfer_core/internal/core/ports/repositories"
	portssvc "github.com/cardbank/transfer_core/internal/core/ports/services"
	"github.com/cardbank/transfer_core/internal/dto"
	"github.com/cardbank/transfer_core/internal/platform/logging"
	"github.com/cardbank/transfer_core/internal/utils/cardnumber"
	"github.com/shopspring/decimal"
)

// accountService provides account lifecycle operations: creation with unique
// card assignment and closure guarded by a zero balance.
type accountService struct {
	accountRepo     portsrepo.AccountRepositoryFacade
	cacheInvalidate portsrepo.AccountCacheInvalidator // Optional; nil when no cache is wired
	cardMaxAttempts int
}

// NewAccountService creates a new account service. invalidator may be nil.
func NewAccountService(accountRepo portsrepo.AccountRepositoryFacade, invalidator portsrepo.AccountCacheInvalidator, cardMaxAttempts int) portssvc.AccountSvcFacade {
	if cardMaxAttempts <= 0 {
		cardMaxAttempts = cardnumber.DefaultMaxAttempts
	}
	return &accountService{
		accountRepo:     accountRepo,
		cacheInvalidate: invalidator,
		cardMaxAttempts: cardMaxAttempts,
	}
}

var _ portssvc.AccountSvcFacade = (*accountService)(nil)

// CreateAccount opens a zero-balance account for the user in the requested
// currency. A (user, currency) pair maps to at most one account.
func (s *accountService) CreateAccount(ctx context.Context, req dto.CreateAccountRequest, creatorUserID string) (*domain.Account, error) {
	logger := logging.GetLoggerFromCtx(ctx)

	if !req.CurrencyCode.IsSupported() {
		return nil, fmt.Errorf("%w: unsupported currency %q", apperrors.ErrValidation, req.CurrencyCode)
	}
	if req.UserID == "" {
		return nil, fmt.Errorf("%w: userID is required", apperrors.ErrValidation)
	}

	exists, err := s.accountRepo.ExistsForUserAndCurrency(ctx, req.UserID, req.CurrencyCode)
	if err != nil {
		logger.Error("Failed to check for existing currency account", slog.String("error", err.Error()), slog.String("user_id", req.UserID))
		return nil, fmt.Errorf("failed to check existing accounts: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("%w: user %s already holds a %s account", apperrors.ErrAccountAlreadyExists, req.UserID, req.CurrencyCode)
	}

	// The predicate is read-only, so the uniqueness retry loop holds no locks.
	card, err := cardnumber.GenerateUnique(ctx, s.accountRepo.ExistsByCardNumber, s.cardMaxAttempts)
	if err != nil {
		if errors.Is(err, apperrors.ErrExhaustedAttempts) {
			logger.Warn("Card number generation exhausted attempts", slog.String("user_id", req.UserID), slog.Int("max_attempts", s.cardMaxAttempts))
		}
		return nil, err
	}

	now := time.Now().UTC()
	account := domain.Account{
		AccountID:      uuid.NewString(),
		OwnerUserID:    req.UserID,
		CardNumber:     card,
		CurrencyCode:   req.CurrencyCode,
		Balance:        decimal.Zero,
		ExpirationDate: now.AddDate(domain.CardExpiryYears, 0, 0),
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	if err := s.accountRepo.SaveAccount(ctx, account); err != nil {
		// ErrDuplicateCardNumber here means the generator raced another
		// creation; the storage constraint is the final arbiter.
		if !errors.Is(err, apperrors.ErrDuplicateCardNumber) && !errors.Is(err, apperrors.ErrAccountAlreadyExists) {
			logger.Error("Failed to save account in repository", slog.String("error", err.Error()), slog.String("account_id", account.AccountID))
		}
		return nil, err
	}

	logger.Info("Account created successfully", slog.String("account_id", account.AccountID), slog.String("currency", string(account.CurrencyCode)))
	return &account, nil
}

// CloseAccount deletes the account identified by card number, restricted to
// the acting user's ownership and a balance of exactly zero.
func (s *accountService) CloseAccount(ctx context.Context, cardNumber string, actingUsername string) error {
	logger := logging.GetLoggerFromCtx(ctx)

	account, err := s.accountRepo.FindAccountByCardNumberAndOwner(ctx, cardNumber, actingUsername)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			// Not owned and non-existent look identical to the caller.
			return apperrors.ErrNotFound
		}
		logger.Error("Failed to resolve account for closure", slog.String("error", err.Error()))
		return fmt.Errorf("failed to resolve account for closure: %w", err)
	}

	if !account.Balance.IsZero() {
		return fmt.Errorf("%w: balance is %s", apperrors.ErrAccountBalanceNonZero, account.Balance.String())
	}

	if err := s.accountRepo.DeleteAccount(ctx, account.AccountID); err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) && !errors.Is(err, apperrors.ErrAccountBalanceNonZero) {
			logger.Error("Failed to delete account in repository", slog.String("error", err.Error()), slog.String("account_id", account.AccountID))
		}
		return err
	}

	if s.cacheInvalidate != nil {
		s.cacheInvalidate.InvalidateAccount(account.AccountID, account.CardNumber)
	}

	logger.Info("Account closed successfully", slog.String("account_id", account.AccountID))
	return nil
}

// GetAccountByID retrieves a single account.
func (s *accountService) GetAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	logger := logging.GetLoggerFromCtx(ctx)
	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			logger.Error("Failed to find account by ID in repository", slog.String("error", err.Error()), slog.String("account_id", accountID))
		}
		return nil, err
	}
	return account, nil
}

// GetAccountByCardNumber retrieves a single account by card number.
func (s *accountService) GetAccountByCardNumber(ctx context.Context, cardNumber string) (*domain.Account, error) {
	logger := logging.GetLoggerFromCtx(ctx)
	account, err := s.accountRepo.FindAccountByCardNumber(ctx, cardNumber)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			logger.Error("Failed to find account by card number in repository", slog.String("error", err.Error()))
		}
		return nil, err
	}
	return account, nil
}

// ListAccountsByUser lists every account the user owns.
func (s *accountService) ListAccountsByUser(ctx context.Context, userID string) ([]domain.Account, error) {
	logger := logging.GetLoggerFromCtx(ctx)
	accounts, err := s.accountRepo.ListAccountsByUser(ctx, userID)
	if err != nil {
		logger.Error("Failed to list accounts from repository", slog.String("error", err.Error()), slog.String("user_id", userID))
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	if accounts == nil {
		return []domain.Account{}, nil
	}
	return accounts, nil
}
