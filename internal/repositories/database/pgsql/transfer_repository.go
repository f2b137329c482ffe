package pgsql

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/cardbank/transfer_core/internal/apperrors"
	"github.com/cardbank/transfer_core/internal/core/domain"
	portsrepo "github.com/cardbank/transfer_core/internal/core/ports/repositories"
	"github.com/cardbank/transfer_core/internal/models"
	"github.com/cardbank/transfer_core/internal/utils/mapping"
	"github.com/cardbank/transfer_core/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const transactionColumns = `transaction_id, sender_account_id, receiver_account_id, amount, currency_code, balance_after, created_at, created_by, last_updated_at, last_updated_by`

type PgxTransferRepository struct {
	BaseRepository
	accountRepo *PgxAccountRepository
}

// newPgxTransferRepository creates a new repository for the transfer ledger.
func newPgxTransferRepository(pool *pgxpool.Pool, accountRepo *PgxAccountRepository) portsrepo.TransferRepositoryFacade {
	return &PgxTransferRepository{
		BaseRepository: BaseRepository{Pool: pool},
		accountRepo:    accountRepo,
	}
}

// Ensure PgxTransferRepository implements portsrepo.TransferRepositoryFacade
var _ portsrepo.TransferRepositoryFacade = (*PgxTransferRepository)(nil)

// SaveTransfer applies the debit, the credit, and the ledger append inside a
// single database transaction. Both account rows are locked (in ascending
// account-id order) before funds are re-checked, so two concurrent transfers
// cannot both read a stale balance and both succeed. A context timeout or
// I/O failure rolls back the whole unit.
func (r *PgxTransferRepository) SaveTransfer(ctx context.Context, txn domain.Transaction) (*domain.Transaction, error) {
	if txn.SenderAccountID == txn.ReceiverAccountID {
		return nil, apperrors.ErrSameAccountTransfer
	}

	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Rollback(ctx, tx) // No-op once committed

	locked, err := r.accountRepo.findAccountsForUpdate(ctx, tx, []string{txn.SenderAccountID, txn.ReceiverAccountID})
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			// An account was deleted between validation and lock acquisition.
			return nil, err
		}
		return nil, apperrors.NewAppError(500, "failed to lock accounts for transfer", err)
	}

	sender := locked[txn.SenderAccountID]
	if sender.Balance.LessThan(txn.Amount) {
		return nil, fmt.Errorf("%w: balance %s, requested %s", apperrors.ErrInsufficientBalance, sender.Balance.String(), txn.Amount.String())
	}

	balanceChanges := map[string]decimal.Decimal{
		txn.SenderAccountID:   txn.Amount.Neg(),
		txn.ReceiverAccountID: txn.Amount,
	}
	if err := r.accountRepo.updateBalancesInTx(ctx, tx, balanceChanges, txn.CreatedBy, txn.CreatedAt); err != nil {
		return nil, apperrors.NewAppError(500, "failed to update account balances", err)
	}

	// The sender snapshot after the debit, captured for the audit trail.
	txn.BalanceAfter = sender.Balance.Sub(txn.Amount)

	modelTxn := mapping.ToModelTransaction(txn)
	insertQuery := `
		INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	_, err = tx.Exec(ctx, insertQuery,
		modelTxn.TransactionID,
		modelTxn.SenderAccountID,
		modelTxn.ReceiverAccountID,
		modelTxn.Amount,
		modelTxn.CurrencyCode,
		modelTxn.BalanceAfter,
		modelTxn.CreatedAt,
		modelTxn.CreatedBy,
		modelTxn.LastUpdatedAt,
		modelTxn.LastUpdatedBy,
	)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to insert transaction "+modelTxn.TransactionID, err)
	}

	if err := r.Commit(ctx, tx); err != nil {
		return nil, err
	}

	return &txn, nil
}

// FindTransactionByID retrieves a single ledger entry.
func (r *PgxTransferRepository) FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE transaction_id = $1;`

	var m models.Transaction
	err := r.Pool.QueryRow(ctx, query, transactionID).Scan(
		&m.TransactionID,
		&m.SenderAccountID,
		&m.ReceiverAccountID,
		&m.Amount,
		&m.CurrencyCode,
		&m.BalanceAfter,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find transaction "+transactionID, err)
	}

	txn := mapping.ToDomainTransaction(m)
	return &txn, nil
}

// ListTransactionsByUser retrieves ledger entries where any of the user's
// accounts is sender or receiver, newest first, with token pagination.
func (r *PgxTransferRepository) ListTransactionsByUser(ctx context.Context, userID string, limit int, nextToken *string) ([]domain.Transaction, *string, error) {
	filter := `
		WHERE t.sender_account_id IN (SELECT account_id FROM accounts WHERE owner_user_id = $1)
		   OR t.receiver_account_id IN (SELECT account_id FROM accounts WHERE owner_user_id = $1)
	`
	return r.listTransactions(ctx, filter, []interface{}{userID}, limit, nextToken)
}

// ListTransactionsByAccount retrieves ledger entries touching one account,
// newest first, with token pagination.
func (r *PgxTransferRepository) ListTransactionsByAccount(ctx context.Context, accountID string, limit int, nextToken *string) ([]domain.Transaction, *string, error) {
	filter := `WHERE (t.sender_account_id = $1 OR t.receiver_account_id = $1)`
	return r.listTransactions(ctx, filter, []interface{}{accountID}, limit, nextToken)
}

// listTransactions runs a cursor-paginated ledger query. Ordering must be
// stable: created_at DESC with transaction_id DESC as the tie-breaker.
func (r *PgxTransferRepository) listTransactions(ctx context.Context, filterClause string, args []interface{}, limit int, nextToken *string) ([]domain.Transaction, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	// Fetch one extra item to determine if there's a next page.
	fetchLimit := limit + 1

	baseQuery := `SELECT ` + transactionColumnsAliased + ` FROM transactions t ` + filterClause
	orderByClause := `ORDER BY t.created_at DESC, t.transaction_id DESC`

	if nextToken != nil && *nextToken != "" {
		lastCreatedAt, lastTransactionID, decodeErr := pagination.DecodeToken(*nextToken)
		if decodeErr != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", decodeErr)
		}
		// Tuple comparison is concise and efficient in Postgres.
		cursorClause := ` AND (t.created_at, t.transaction_id) < ($` + strconv.Itoa(len(args)+1) + `, $` + strconv.Itoa(len(args)+2) + `)`
		args = append(args, lastCreatedAt, lastTransactionID)
		baseQuery += cursorClause
	}

	query := baseQuery + " " + orderByClause + " LIMIT $" + strconv.Itoa(len(args)+1) + ";"
	args = append(args, fetchLimit)

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to query transactions", err)
	}
	defer rows.Close()

	results := make([]models.Transaction, 0, fetchLimit)
	for rows.Next() {
		var m models.Transaction
		err := rows.Scan(
			&m.TransactionID,
			&m.SenderAccountID,
			&m.ReceiverAccountID,
			&m.Amount,
			&m.CurrencyCode,
			&m.BalanceAfter,
			&m.CreatedAt,
			&m.CreatedBy,
			&m.LastUpdatedAt,
			&m.LastUpdatedBy,
		)
		if err != nil {
			return nil, nil, apperrors.NewAppError(500, "failed to scan transaction row", err)
		}
		results = append(results, m)
	}

	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.NewAppError(500, "error iterating transaction rows", err)
	}

	var nextTokenVal *string
	if len(results) > limit {
		last := results[limit-1] // The actual last item of the current page
		token := pagination.EncodeToken(last.CreatedAt, last.TransactionID)
		nextTokenVal = &token
		results = results[:limit]
	}

	return mapping.ToDomainTransactionSlice(results), nextTokenVal, nil
}

const transactionColumnsAliased = `t.transaction_id, t.sender_account_id, t.receiver_account_id, t.amount, t.currency_code, t.balance_after, t.created_at, t.created_by, t.last_updated_at, t.last_updated_by`
