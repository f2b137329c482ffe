// Package cache provides a read-through LRU decorator for the account
// repository. Point lookups by account id and card number dominate the
// transfer path, so those are the only cached reads; everything touching
// ownership or listing goes straight to the backing store.
package cache

import (
	"context"
	"time"

	"github.com/cardbank/transfer_core/internal/core/domain"
	portsrepo "github.com/cardbank/transfer_core/internal/core/ports/repositories"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/shopspring/decimal"
)

const DefaultAccountCacheSize = 1024

// CachedAccountRepository wraps an AccountRepositoryFacade with an LRU of
// recently read accounts. Mutations evict eagerly; services additionally
// call InvalidateAccount after transfers so both parties drop out.
type CachedAccountRepository struct {
	inner portsrepo.AccountRepositoryFacade

	byID   *lru.Cache[string, domain.Account]
	byCard *lru.Cache[string, string] // card number -> account id
}

// NewCachedAccountRepository decorates inner with an LRU of the given size.
// A non-positive size falls back to DefaultAccountCacheSize.
func NewCachedAccountRepository(inner portsrepo.AccountRepositoryFacade, size int) (*CachedAccountRepository, error) {
	if size <= 0 {
		size = DefaultAccountCacheSize
	}
	byID, err := lru.New[string, domain.Account](size)
	if err != nil {
		return nil, err
	}
	byCard, err := lru.New[string, string](size)
	if err != nil {
		return nil, err
	}
	return &CachedAccountRepository{inner: inner, byID: byID, byCard: byCard}, nil
}

var (
	_ portsrepo.AccountRepositoryFacade = (*CachedAccountRepository)(nil)
	_ portsrepo.AccountCacheInvalidator = (*CachedAccountRepository)(nil)
)

// InvalidateAccount drops the cached entries for one account. Either key
// may be empty when the caller only knows one of them.
func (r *CachedAccountRepository) InvalidateAccount(accountID string, cardNumber string) {
	if accountID != "" {
		r.byID.Remove(accountID)
	}
	if cardNumber != "" {
		r.byCard.Remove(cardNumber)
	}
}

func (r *CachedAccountRepository) cachePut(acc domain.Account) {
	r.byID.Add(acc.AccountID, acc)
	r.byCard.Add(acc.CardNumber, acc.AccountID)
}

func (r *CachedAccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	if acc, ok := r.byID.Get(accountID); ok {
		copied := acc
		return &copied, nil
	}

	acc, err := r.inner.FindAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	r.cachePut(*acc)
	return acc, nil
}

func (r *CachedAccountRepository) FindAccountByCardNumber(ctx context.Context, cardNumber string) (*domain.Account, error) {
	if accountID, ok := r.byCard.Get(cardNumber); ok {
		if acc, ok := r.byID.Get(accountID); ok {
			copied := acc
			return &copied, nil
		}
	}

	acc, err := r.inner.FindAccountByCardNumber(ctx, cardNumber)
	if err != nil {
		return nil, err
	}
	r.cachePut(*acc)
	return acc, nil
}

// FindAccountByCardNumberAndOwner always hits the backing store: the result
// depends on the owner row as well, and a stale hit here could leak an
// account across an ownership change.
func (r *CachedAccountRepository) FindAccountByCardNumberAndOwner(ctx context.Context, cardNumber string, username string) (*domain.Account, error) {
	return r.inner.FindAccountByCardNumberAndOwner(ctx, cardNumber, username)
}

// ExistsByCardNumber must see the live uniqueness state, never the cache.
func (r *CachedAccountRepository) ExistsByCardNumber(ctx context.Context, cardNumber string) (bool, error) {
	return r.inner.ExistsByCardNumber(ctx, cardNumber)
}

func (r *CachedAccountRepository) ExistsForUserAndCurrency(ctx context.Context, userID string, currency domain.CurrencyCode) (bool, error) {
	return r.inner.ExistsForUserAndCurrency(ctx, userID, currency)
}

func (r *CachedAccountRepository) ListAccountsByUser(ctx context.Context, userID string) ([]domain.Account, error) {
	return r.inner.ListAccountsByUser(ctx, userID)
}

func (r *CachedAccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	if err := r.inner.SaveAccount(ctx, account); err != nil {
		return err
	}
	r.InvalidateAccount(account.AccountID, account.CardNumber)
	return nil
}

func (r *CachedAccountRepository) ApplyDelta(ctx context.Context, accountID string, delta decimal.Decimal, expectedVersion int64, userID string, now time.Time) (*domain.Account, error) {
	acc, err := r.inner.ApplyDelta(ctx, accountID, delta, expectedVersion, userID, now)
	if err != nil {
		r.byID.Remove(accountID)
		return nil, err
	}
	r.cachePut(*acc)
	return acc, nil
}

func (r *CachedAccountRepository) DeleteAccount(ctx context.Context, accountID string) error {
	if acc, ok := r.byID.Get(accountID); ok {
		r.byCard.Remove(acc.CardNumber)
	}
	r.byID.Remove(accountID)
	return r.inner.DeleteAccount(ctx, accountID)
}
