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
	"github.com/shopspring/decimal"
)

// DefaultTransferMaxRetries bounds internal retries on optimistic-concurrency
// conflicts. All other failures are terminal on the first occurrence.
const DefaultTransferMaxRetries = 3

// transferService validates a transfer intent against two accounts and
// executes the balance-conserving debit/credit plus ledger append as one
// atomic unit via the transfer repository.
type transferService struct {
	accountRepo     portsrepo.AccountRepositoryFacade
	transferRepo    portsrepo.TransferRepositoryFacade
	userRepo        portsrepo.UserRepositoryFacade
	cacheInvalidate portsrepo.AccountCacheInvalidator // Optional; nil when no cache is wired
	maxRetries      int
}

// NewTransferService creates a new transfer engine. invalidator may be nil.
func NewTransferService(accountRepo portsrepo.AccountRepositoryFacade, transferRepo portsrepo.TransferRepositoryFacade, userRepo portsrepo.UserRepositoryFacade, invalidator portsrepo.AccountCacheInvalidator, maxRetries int) portssvc.TransferSvcFacade {
	if maxRetries <= 0 {
		maxRetries = DefaultTransferMaxRetries
	}
	return &transferService{
		accountRepo:     accountRepo,
		transferRepo:    transferRepo,
		userRepo:        userRepo,
		cacheInvalidate: invalidator,
		maxRetries:      maxRetries,
	}
}

var _ portssvc.TransferSvcFacade = (*transferService)(nil)

// TransferByAccountID executes a transfer addressed by internal account IDs.
// This variant does not re-check sender ownership: it is reserved for callers
// (admin surfaces) that have already authorized the acting user. Every other
// validation is identical to the card-number variant.
func (s *transferService) TransferByAccountID(ctx context.Context, req dto.TransferByIDRequest, actingUserID string) (*domain.Transaction, error) {
	logger := logging.GetLoggerFromCtx(ctx)

	var committed *domain.Transaction
	err := s.withConflictRetry(ctx, func() error {
		sender, err := s.accountRepo.FindAccountByID(ctx, req.SenderAccountID)
		if err != nil {
			return resolveErr(err, apperrors.ErrSenderNotFound)
		}
		receiver, err := s.accountRepo.FindAccountByID(ctx, req.ReceiverAccountID)
		if err != nil {
			return resolveErr(err, apperrors.ErrReceiverNotFound)
		}

		committed, err = s.execute(ctx, sender, receiver, req.Amount, actingUserID)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Transfer committed",
		slog.String("transaction_id", committed.TransactionID),
		slog.String("sender_account_id", committed.SenderAccountID),
		slog.String("receiver_account_id", committed.ReceiverAccountID),
		slog.String("amount", committed.Amount.String()),
	)
	return committed, nil
}

// TransferByCardNumber executes a transfer addressed by card numbers. The
// acting user must own the sender account.
func (s *transferService) TransferByCardNumber(ctx context.Context, req dto.TransferByCardRequest, actingUsername string) (*domain.Transaction, error) {
	logger := logging.GetLoggerFromCtx(ctx)

	var committed *domain.Transaction
	err := s.withConflictRetry(ctx, func() error {
		sender, err := s.accountRepo.FindAccountByCardNumber(ctx, req.SenderCardNumber)
		if err != nil {
			return resolveErr(err, apperrors.ErrSenderNotFound)
		}
		receiver, err := s.accountRepo.FindAccountByCardNumber(ctx, req.ReceiverCardNumber)
		if err != nil {
			return resolveErr(err, apperrors.ErrReceiverNotFound)
		}

		actingUser, err := s.userRepo.FindUserByUsername(ctx, actingUsername)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return apperrors.ErrUnauthorizedTransfer
			}
			return fmt.Errorf("failed to resolve acting user: %w", err)
		}
		if sender.OwnerUserID != actingUser.UserID {
			logger.Warn("Rejected transfer from a foreign account",
				slog.String("acting_user_id", actingUser.UserID),
				slog.String("sender_account_id", sender.AccountID),
			)
			return apperrors.ErrUnauthorizedTransfer
		}

		committed, err = s.execute(ctx, sender, receiver, req.Amount, actingUser.UserID)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Transfer committed",
		slog.String("transaction_id", committed.TransactionID),
		slog.String("sender_account_id", committed.SenderAccountID),
		slog.String("receiver_account_id", committed.ReceiverAccountID),
		slog.String("amount", committed.Amount.String()),
	)
	return committed, nil
}

// execute runs the shared validation sequence (fixed order, first failing
// check wins) and commits the atomic mutation plus ledger entry.
func (s *transferService) execute(ctx context.Context, sender, receiver *domain.Account, amount decimal.Decimal, actingUserID string) (*domain.Transaction, error) {
	if sender.AccountID == receiver.AccountID {
		return nil, apperrors.ErrSameAccountTransfer
	}
	if sender.CurrencyCode != receiver.CurrencyCode {
		return nil, fmt.Errorf("%w: %s vs %s", apperrors.ErrCurrencyMismatch, sender.CurrencyCode, receiver.CurrencyCode)
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: got %s", apperrors.ErrInvalidTransferAmount, amount.String())
	}
	if sender.Balance.LessThan(amount) {
		return nil, fmt.Errorf("%w: balance %s, requested %s", apperrors.ErrInsufficientBalance, sender.Balance.String(), amount.String())
	}

	now := time.Now().UTC()
	txn := domain.Transaction{
		TransactionID:     uuid.NewString(),
		SenderAccountID:   sender.AccountID,
		ReceiverAccountID: receiver.AccountID,
		Amount:            amount,
		CurrencyCode:      sender.CurrencyCode, // Snapshot; unchanged by the transfer
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actingUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: actingUserID,
		},
	}

	// SaveTransfer re-checks funds under lock and fills BalanceAfter; a
	// concurrent transfer that drained the sender surfaces here.
	committed, err := s.transferRepo.SaveTransfer(ctx, txn)
	if err != nil {
		return nil, err
	}

	if s.cacheInvalidate != nil {
		s.cacheInvalidate.InvalidateAccount(sender.AccountID, sender.CardNumber)
		s.cacheInvalidate.InvalidateAccount(receiver.AccountID, receiver.CardNumber)
	}

	return committed, nil
}

// withConflictRetry re-runs the whole resolve-validate-commit sequence on
// ErrConcurrentModification, since balances may have changed underneath us.
func (s *transferService) withConflictRetry(ctx context.Context, attempt func() error) error {
	logger := logging.GetLoggerFromCtx(ctx)

	var err error
	for try := 0; try < s.maxRetries; try++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		err = attempt()
		if err == nil || !errors.Is(err, apperrors.ErrConcurrentModification) {
			return err
		}
		logger.Debug("Retrying transfer after concurrent modification", slog.Int("attempt", try+1))
	}
	return fmt.Errorf("transfer failed after %d attempts: %w", s.maxRetries, err)
}

// resolveErr maps a repository NotFound onto the side-specific sentinel while
// passing infrastructure errors through untouched.
func resolveErr(err error, notFound error) error {
	if errors.Is(err, apperrors.ErrNotFound) {
		return notFound
	}
	return fmt.Errorf("failed to resolve account: %w", err)
}
