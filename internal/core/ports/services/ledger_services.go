package services

import (
	"context"

	"github.com/cardbank/transfer_core/internal/core/domain"
	"github.com/cardbank/transfer_core/internal/dto"
)

// LedgerSvcFacade exposes read access to the append-only transfer ledger.
type LedgerSvcFacade interface {
	// HistoryForUser returns ledger entries where any of the user's accounts
	// is sender or receiver, newest first. Reads are idempotent: two calls
	// with no intervening transfer return identical pages.
	HistoryForUser(ctx context.Context, userID string, params dto.ListTransactionsParams) (*dto.ListTransactionsResponse, error)

	// HistoryForAccount returns ledger entries touching one account, newest first.
	HistoryForAccount(ctx context.Context, accountID string, params dto.ListTransactionsParams) (*dto.ListTransactionsResponse, error)

	// GetTransactionByID retrieves a single ledger entry.
	GetTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error)
}
