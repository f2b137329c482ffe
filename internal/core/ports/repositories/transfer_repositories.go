package repositories

import (
	"context"

	"github.com/cardbank/transfer_core/internal/core/domain"
)

// TransferWriter defines the single mutation point of the ledger.
type TransferWriter interface {
	// SaveTransfer applies the debit and credit for the given ledger entry
	// and appends the entry, all as one atomic unit: a concurrent observer
	// never sees the sender debited without the receiver credited. Sufficient
	// funds are re-checked under lock; the returned copy carries the final
	// BalanceAfter snapshot. Sender and receiver must be distinct accounts;
	// implementations reject sender == receiver with ErrSameAccountTransfer.
	// Implementations must acquire per-account locks in ascending account-id
	// order to avoid deadlock between opposing transfers. Lock-based
	// implementations (pgsql, memory) never return ErrConcurrentModification
	// from this call; an implementation built on ApplyDelta version CAS may,
	// and the transfer engine re-runs its whole sequence on that error.
	SaveTransfer(ctx context.Context, txn domain.Transaction) (*domain.Transaction, error)
}

// TransferReader defines read operations over the append-only ledger.
type TransferReader interface {
	// FindTransactionByID retrieves a single ledger entry.
	FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error)

	// ListTransactionsByUser retrieves entries where any of the user's
	// accounts is sender or receiver, newest first, with token pagination.
	ListTransactionsByUser(ctx context.Context, userID string, limit int, nextToken *string) ([]domain.Transaction, *string, error)

	// ListTransactionsByAccount retrieves entries touching the account,
	// newest first, with token pagination.
	ListTransactionsByAccount(ctx context.Context, accountID string, limit int, nextToken *string) ([]domain.Transaction, *string, error)
}

// TransferRepositoryFacade combines ledger read and write interfaces.
type TransferRepositoryFacade interface {
	TransferWriter
	TransferReader
}
