package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cardbank/transfer_core/internal/apperrors"
	"github.com/cardbank/transfer_core/internal/core/domain"
	portsrepo "github.com/cardbank/transfer_core/internal/core/ports/repositories"
	portssvc "github.com/cardbank/transfer_core/internal/core/ports/services"
	"github.com/cardbank/transfer_core/internal/dto"
	"github.com/cardbank/transfer_core/internal/platform/logging"
)

const defaultHistoryLimit = 20

// ledgerService exposes read access to the append-only transfer ledger.
// Writes happen only inside the transfer engine's atomic commit.
type ledgerService struct {
	transferRepo portsrepo.TransferRepositoryFacade
}

// NewLedgerService creates a new ledger read service.
func NewLedgerService(transferRepo portsrepo.TransferRepositoryFacade) portssvc.LedgerSvcFacade {
	return &ledgerService{transferRepo: transferRepo}
}

var _ portssvc.LedgerSvcFacade = (*ledgerService)(nil)

// HistoryForUser returns ledger entries touching any of the user's accounts,
// newest first, with token pagination.
func (s *ledgerService) HistoryForUser(ctx context.Context, userID string, params dto.ListTransactionsParams) (*dto.ListTransactionsResponse, error) {
	logger := logging.GetLoggerFromCtx(ctx)

	limit := params.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	transactions, nextToken, err := s.transferRepo.ListTransactionsByUser(ctx, userID, limit, params.NextToken)
	if err != nil {
		logger.Error("Failed to list user transactions from repository", slog.String("error", err.Error()), slog.String("user_id", userID))
		return nil, fmt.Errorf("failed to retrieve transactions: %w", err)
	}

	resp := &dto.ListTransactionsResponse{
		Transactions: dto.ToTransactionResponses(transactions),
		NextToken:    nextToken,
	}

	logger.Debug("Ledger history retrieved for user", slog.String("user_id", userID), slog.Int("count", len(transactions)))
	return resp, nil
}

// HistoryForAccount returns ledger entries touching one account, newest first.
func (s *ledgerService) HistoryForAccount(ctx context.Context, accountID string, params dto.ListTransactionsParams) (*dto.ListTransactionsResponse, error) {
	logger := logging.GetLoggerFromCtx(ctx)

	limit := params.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	transactions, nextToken, err := s.transferRepo.ListTransactionsByAccount(ctx, accountID, limit, params.NextToken)
	if err != nil {
		logger.Error("Failed to list account transactions from repository", slog.String("error", err.Error()), slog.String("account_id", accountID))
		return nil, fmt.Errorf("failed to retrieve transactions: %w", err)
	}

	return &dto.ListTransactionsResponse{
		Transactions: dto.ToTransactionResponses(transactions),
		NextToken:    nextToken,
	}, nil
}

// GetTransactionByID retrieves a single ledger entry.
func (s *ledgerService) GetTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	logger := logging.GetLoggerFromCtx(ctx)
	txn, err := s.transferRepo.FindTransactionByID(ctx, transactionID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			logger.Error("Failed to find transaction by ID", slog.String("error", err.Error()), slog.String("transaction_id", transactionID))
		}
		return nil, err
	}
	return txn, nil
}
