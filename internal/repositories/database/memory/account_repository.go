package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/cardbank/transfer_core/internal/apperrors"
	"github.com/cardbank/transfer_core/internal/core/domain"
	portsrepo "github.com/cardbank/transfer_core/internal/core/ports/repositories"
	"github.com/cardbank/transfer_core/internal/utils/mapping"
	"github.com/shopspring/decimal"
)

// AccountRepository is the in-memory account store. Balance mutations use
// compare-and-swap on the account version: a stale expectedVersion fails
// with ErrConcurrentModification and the caller decides whether to retry.
type AccountRepository struct {
	store *Store
}

func NewAccountRepository(store *Store) *AccountRepository {
	return &AccountRepository{store: store}
}

var _ portsrepo.AccountRepositoryFacade = (*AccountRepository)(nil)

func (r *AccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, taken := r.store.accountsByCard[account.CardNumber]; taken {
		return fmt.Errorf("%w: %s", apperrors.ErrDuplicateCardNumber, account.CardNumber)
	}
	for _, existing := range r.store.accountsByID {
		if existing.OwnerUserID == account.OwnerUserID && existing.CurrencyCode == string(account.CurrencyCode) {
			return fmt.Errorf("%w: user %s, currency %s", apperrors.ErrAccountAlreadyExists, account.OwnerUserID, account.CurrencyCode)
		}
	}
	if _, exists := r.store.accountsByID[account.AccountID]; exists {
		return fmt.Errorf("%w: account %s", apperrors.ErrDuplicate, account.AccountID)
	}

	m := mapping.ToModelAccount(account)
	if m.Version == 0 {
		m.Version = 1
	}
	r.store.accountsByID[m.AccountID] = m
	r.store.accountsByCard[m.CardNumber] = m.AccountID
	return nil
}

func (r *AccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return r.findByIDLocked(accountID)
}

// findByIDLocked requires the store mutex to be held.
func (r *AccountRepository) findByIDLocked(accountID string) (*domain.Account, error) {
	m, ok := r.store.accountsByID[accountID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	acc := mapping.ToDomainAccount(m)
	return &acc, nil
}

func (r *AccountRepository) FindAccountByCardNumber(ctx context.Context, cardNumber string) (*domain.Account, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	accountID, ok := r.store.accountsByCard[cardNumber]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return r.findByIDLocked(accountID)
}

func (r *AccountRepository) FindAccountByCardNumberAndOwner(ctx context.Context, cardNumber string, username string) (*domain.Account, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	accountID, ok := r.store.accountsByCard[cardNumber]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	m := r.store.accountsByID[accountID]

	owner, ok := r.store.usersByID[m.OwnerUserID]
	if !ok || owner.DeletedAt != nil || owner.Username != username {
		return nil, apperrors.ErrNotFound
	}

	acc := mapping.ToDomainAccount(m)
	return &acc, nil
}

func (r *AccountRepository) ExistsByCardNumber(ctx context.Context, cardNumber string) (bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	_, ok := r.store.accountsByCard[cardNumber]
	return ok, nil
}

func (r *AccountRepository) ExistsForUserAndCurrency(ctx context.Context, userID string, currency domain.CurrencyCode) (bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, m := range r.store.accountsByID {
		if m.OwnerUserID == userID && m.CurrencyCode == string(currency) {
			return true, nil
		}
	}
	return false, nil
}

func (r *AccountRepository) ListAccountsByUser(ctx context.Context, userID string) ([]domain.Account, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	accounts := make([]domain.Account, 0)
	for _, m := range r.store.accountsByID {
		if m.OwnerUserID == userID {
			accounts = append(accounts, mapping.ToDomainAccount(m))
		}
	}
	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].CreatedAt.Before(accounts[j].CreatedAt)
	})
	return accounts, nil
}

func (r *AccountRepository) ApplyDelta(ctx context.Context, accountID string, delta decimal.Decimal, expectedVersion int64, userID string, now time.Time) (*domain.Account, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	m, ok := r.store.accountsByID[accountID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	if m.Version != expectedVersion {
		return nil, fmt.Errorf("%w: account %s, expected version %d, found %d",
			apperrors.ErrConcurrentModification, accountID, expectedVersion, m.Version)
	}

	newBalance := m.Balance.Add(delta)
	if newBalance.IsNegative() {
		return nil, fmt.Errorf("%w: balance %s, delta %s", apperrors.ErrInsufficientBalance, m.Balance.String(), delta.String())
	}

	m.Balance = newBalance
	m.Version++
	m.LastUpdatedAt = now
	m.LastUpdatedBy = userID
	r.store.accountsByID[accountID] = m

	acc := mapping.ToDomainAccount(m)
	return &acc, nil
}

func (r *AccountRepository) DeleteAccount(ctx context.Context, accountID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	m, ok := r.store.accountsByID[accountID]
	if !ok {
		return apperrors.ErrNotFound
	}
	if !m.Balance.IsZero() {
		return fmt.Errorf("%w: balance %s", apperrors.ErrAccountBalanceNonZero, m.Balance.String())
	}

	delete(r.store.accountsByID, accountID)
	delete(r.store.accountsByCard, m.CardNumber)
	return nil
}
