package pgsql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cardbank/transfer_core/internal/apperrors"
	"github.com/cardbank/transfer_core/internal/core/domain"
	portsrepo "github.com/cardbank/transfer_core/internal/core/ports/repositories"
	"github.com/cardbank/transfer_core/internal/models"
	"github.com/cardbank/transfer_core/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const accountColumns = `account_id, owner_user_id, card_number, currency_code, balance, expiration_date, version, created_at, created_by, last_updated_at, last_updated_by`

type PgxAccountRepository struct {
	BaseRepository
}

// newPgxAccountRepository creates a new repository for account data.
func newPgxAccountRepository(pool *pgxpool.Pool) *PgxAccountRepository {
	return &PgxAccountRepository{BaseRepository: BaseRepository{Pool: pool}}
}

// Ensure PgxAccountRepository implements portsrepo.AccountRepositoryFacade
var _ portsrepo.AccountRepositoryFacade = (*PgxAccountRepository)(nil)

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var m models.Account
	err := row.Scan(
		&m.AccountID,
		&m.OwnerUserID,
		&m.CardNumber,
		&m.CurrencyCode,
		&m.Balance,
		&m.ExpirationDate,
		&m.Version,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	acc := mapping.ToDomainAccount(m)
	return &acc, nil
}

// SaveAccount inserts a new account. Unique violations are mapped onto the
// domain errors so the generator race and the duplicate-currency check stay
// enforced even if the service-level pre-checks were raced.
func (r *PgxAccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	modelAcc := mapping.ToModelAccount(account)

	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`
	_, err := r.Pool.Exec(ctx, query,
		modelAcc.AccountID,
		modelAcc.OwnerUserID,
		modelAcc.CardNumber,
		modelAcc.CurrencyCode,
		modelAcc.Balance,
		modelAcc.ExpirationDate,
		modelAcc.Version,
		modelAcc.CreatedAt,
		modelAcc.CreatedBy,
		modelAcc.LastUpdatedAt,
		modelAcc.LastUpdatedBy,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // Unique violation
			switch {
			case strings.Contains(pgErr.ConstraintName, "card_number"):
				return fmt.Errorf("%w: %s", apperrors.ErrDuplicateCardNumber, modelAcc.CardNumber)
			case strings.Contains(pgErr.ConstraintName, "owner_currency"):
				return fmt.Errorf("%w: user %s, currency %s", apperrors.ErrAccountAlreadyExists, modelAcc.OwnerUserID, modelAcc.CurrencyCode)
			default:
				return fmt.Errorf("%w: account %s", apperrors.ErrDuplicate, modelAcc.AccountID)
			}
		}
		return fmt.Errorf("failed to save account %s: %w", modelAcc.AccountID, err)
	}
	return nil
}

// FindAccountByID retrieves an account by its ID.
func (r *PgxAccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_id = $1;`
	acc, err := scanAccount(r.Pool.QueryRow(ctx, query, accountID))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find account by ID %s: %w", accountID, err)
	}
	return acc, nil
}

// FindAccountByCardNumber retrieves an account by its card number.
func (r *PgxAccountRepository) FindAccountByCardNumber(ctx context.Context, cardNumber string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE card_number = $1;`
	acc, err := scanAccount(r.Pool.QueryRow(ctx, query, cardNumber))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find account by card number: %w", err)
	}
	return acc, nil
}

// FindAccountByCardNumberAndOwner retrieves an account by card number,
// restricted to the owning user. Foreign and missing cards look identical.
func (r *PgxAccountRepository) FindAccountByCardNumberAndOwner(ctx context.Context, cardNumber string, username string) (*domain.Account, error) {
	query := `
		SELECT a.account_id, a.owner_user_id, a.card_number, a.currency_code, a.balance, a.expiration_date, a.version, a.created_at, a.created_by, a.last_updated_at, a.last_updated_by
		FROM accounts a
		JOIN users u ON a.owner_user_id = u.user_id
		WHERE a.card_number = $1 AND u.username = $2 AND u.deleted_at IS NULL;
	`
	acc, err := scanAccount(r.Pool.QueryRow(ctx, query, cardNumber, username))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find account by card number and owner: %w", err)
	}
	return acc, nil
}

// ExistsByCardNumber reports whether any account uses the card number.
func (r *PgxAccountRepository) ExistsByCardNumber(ctx context.Context, cardNumber string) (bool, error) {
	var exists bool
	err := r.Pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE card_number = $1);`, cardNumber).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check card number existence: %w", err)
	}
	return exists, nil
}

// ExistsForUserAndCurrency reports whether the user already holds an account
// in the given currency.
func (r *PgxAccountRepository) ExistsForUserAndCurrency(ctx context.Context, userID string, currency domain.CurrencyCode) (bool, error) {
	var exists bool
	err := r.Pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE owner_user_id = $1 AND currency_code = $2);`, userID, string(currency)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check currency account existence for user %s: %w", userID, err)
	}
	return exists, nil
}

// ListAccountsByUser retrieves all accounts owned by the user.
func (r *PgxAccountRepository) ListAccountsByUser(ctx context.Context, userID string) ([]domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE owner_user_id = $1 ORDER BY created_at;`

	rows, err := r.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts for user %s: %w", userID, err)
	}
	defer rows.Close()

	accounts := []models.Account{}
	for rows.Next() {
		var m models.Account
		err := rows.Scan(
			&m.AccountID,
			&m.OwnerUserID,
			&m.CardNumber,
			&m.CurrencyCode,
			&m.Balance,
			&m.ExpirationDate,
			&m.Version,
			&m.CreatedAt,
			&m.CreatedBy,
			&m.LastUpdatedAt,
			&m.LastUpdatedBy,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account row for user %s: %w", userID, err)
		}
		accounts = append(accounts, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating account rows for user %s: %w", userID, err)
	}

	return mapping.ToDomainAccountSlice(accounts), nil
}

// ApplyDelta atomically adds delta to the balance with a version CAS. The
// guarded UPDATE enforces non-negativity in the same statement, so there is
// no read-modify-write window.
func (r *PgxAccountRepository) ApplyDelta(ctx context.Context, accountID string, delta decimal.Decimal, expectedVersion int64, userID string, now time.Time) (*domain.Account, error) {
	query := `
		UPDATE accounts
		SET balance = balance + $2, version = version + 1, last_updated_at = $4, last_updated_by = $5
		WHERE account_id = $1 AND version = $3 AND balance + $2 >= 0
		RETURNING ` + accountColumns + `;
	`
	acc, err := scanAccount(r.Pool.QueryRow(ctx, query, accountID, delta, expectedVersion, now, userID))
	if err == nil {
		return acc, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to apply balance delta to account %s: %w", accountID, err)
	}

	// The UPDATE matched nothing: distinguish the three causes.
	current, findErr := r.FindAccountByID(ctx, accountID)
	if findErr != nil {
		return nil, findErr
	}
	if current.Version != expectedVersion {
		return nil, apperrors.ErrConcurrentModification
	}
	return nil, fmt.Errorf("%w: balance %s, delta %s", apperrors.ErrInsufficientBalance, current.Balance.String(), delta.String())
}

// DeleteAccount removes an account, guarded by a zero balance in the same
// statement so a racing credit cannot be lost.
func (r *PgxAccountRepository) DeleteAccount(ctx context.Context, accountID string) error {
	cmdTag, err := r.Pool.Exec(ctx, `DELETE FROM accounts WHERE account_id = $1 AND balance = 0;`, accountID)
	if err != nil {
		return fmt.Errorf("failed to delete account %s: %w", accountID, err)
	}

	if cmdTag.RowsAffected() == 0 {
		_, findErr := r.FindAccountByID(ctx, accountID)
		if errors.Is(findErr, apperrors.ErrNotFound) {
			return apperrors.ErrNotFound
		} else if findErr != nil {
			return fmt.Errorf("failed to check account status after delete attempt for %s: %w", accountID, findErr)
		}
		return apperrors.ErrAccountBalanceNonZero
	}

	return nil
}

// findAccountsForUpdate retrieves and locks accounts inside a transaction,
// in ascending account-id order to keep lock acquisition deadlock-free.
func (r *PgxAccountRepository) findAccountsForUpdate(ctx context.Context, tx pgx.Tx, accountIDs []string) (map[string]domain.Account, error) {
	if len(accountIDs) == 0 {
		return map[string]domain.Account{}, nil
	}

	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE account_id = ANY($1)
		ORDER BY account_id
		FOR UPDATE;
	`

	rows, err := tx.Query(ctx, query, accountIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts for update: %w", err)
	}
	defer rows.Close()

	accountsMap := make(map[string]domain.Account)
	for rows.Next() {
		var m models.Account
		err := rows.Scan(
			&m.AccountID,
			&m.OwnerUserID,
			&m.CardNumber,
			&m.CurrencyCode,
			&m.Balance,
			&m.ExpirationDate,
			&m.Version,
			&m.CreatedAt,
			&m.CreatedBy,
			&m.LastUpdatedAt,
			&m.LastUpdatedBy,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan locked account row: %w", err)
		}
		accountsMap[m.AccountID] = mapping.ToDomainAccount(m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating locked account rows: %w", err)
	}

	if len(accountsMap) != len(accountIDs) {
		missing := []string{}
		for _, id := range accountIDs {
			if _, found := accountsMap[id]; !found {
				missing = append(missing, id)
			}
		}
		return nil, fmt.Errorf("%w: could not find or lock accounts: %v", apperrors.ErrNotFound, missing)
	}

	return accountsMap, nil
}

// updateBalancesInTx applies balance deltas to already-locked accounts.
func (r *PgxAccountRepository) updateBalancesInTx(ctx context.Context, tx pgx.Tx, balanceChanges map[string]decimal.Decimal, userID string, now time.Time) error {
	if len(balanceChanges) == 0 {
		return nil
	}

	query := `
		UPDATE accounts
		SET balance = balance + $2, version = version + 1, last_updated_at = $3, last_updated_by = $4
		WHERE account_id = $1;
	`

	batch := &pgx.Batch{}
	accountIDs := make([]string, 0, len(balanceChanges))
	for accountID, delta := range balanceChanges {
		batch.Queue(query, accountID, delta, now, userID)
		accountIDs = append(accountIDs, accountID)
	}

	br := tx.SendBatch(ctx, batch)
	var batchErr error
	for i := 0; i < batch.Len(); i++ {
		ct, err := br.Exec()
		if err != nil {
			if batchErr == nil {
				batchErr = fmt.Errorf("failed to update balance for account %s: %w", accountIDs[i], err)
			}
		} else if ct.RowsAffected() == 0 {
			if batchErr == nil {
				batchErr = fmt.Errorf("%w: account %s not found during balance update", apperrors.ErrNotFound, accountIDs[i])
			}
		}
	}

	if err := br.Close(); err != nil && batchErr == nil {
		batchErr = fmt.Errorf("failed to close balance update batch: %w", err)
	}

	return batchErr
}
