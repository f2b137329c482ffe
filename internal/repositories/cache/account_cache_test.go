package cache

import (
	"context"
	"testing"
	"time"

	"github.com/cardbank/transfer_core/internal/core/domain"
	"github.com/cardbank/transfer_core/internal/repositories/database/memory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type AccountCacheSuite struct {
	suite.Suite
	backing *memory.AccountRepository
	cached  *CachedAccountRepository
	ctx     context.Context
	now     time.Time
}

func (s *AccountCacheSuite) SetupTest() {
	s.backing = memory.NewAccountRepository(memory.NewStore())
	cached, err := NewCachedAccountRepository(s.backing, 8)
	s.Require().NoError(err)
	s.cached = cached
	s.ctx = context.Background()
	s.now = time.Now().UTC()
}

func (s *AccountCacheSuite) seedAccount(cardNumber string, balance string) domain.Account {
	acc := domain.Account{
		AccountID:      uuid.NewString(),
		OwnerUserID:    uuid.NewString(),
		CardNumber:     cardNumber,
		CurrencyCode:   domain.USD,
		Balance:        decimal.RequireFromString(balance),
		ExpirationDate: s.now.AddDate(domain.CardExpiryYears, 0, 0),
		Version:        1,
	}
	acc.CreatedAt = s.now
	acc.CreatedBy = acc.OwnerUserID
	acc.LastUpdatedAt = s.now
	acc.LastUpdatedBy = acc.OwnerUserID
	s.Require().NoError(s.cached.SaveAccount(s.ctx, acc))
	return acc
}

func (s *AccountCacheSuite) TestReadThroughByIDAndCard() {
	acc := s.seedAccount("4000100020003000", "50")

	byID, err := s.cached.FindAccountByID(s.ctx, acc.AccountID)
	s.Require().NoError(err)
	s.Equal(acc.AccountID, byID.AccountID)

	byCard, err := s.cached.FindAccountByCardNumber(s.ctx, acc.CardNumber)
	s.Require().NoError(err)
	s.Equal(acc.AccountID, byCard.AccountID)
}

func (s *AccountCacheSuite) TestCachedReadSurvivesBackingDelete() {
	acc := s.seedAccount("4000100020003000", "0")

	_, err := s.cached.FindAccountByID(s.ctx, acc.AccountID)
	s.Require().NoError(err)

	// Remove from the backing store directly; the cache still serves the
	// old entry until it is invalidated.
	s.Require().NoError(s.backing.DeleteAccount(s.ctx, acc.AccountID))

	stale, err := s.cached.FindAccountByID(s.ctx, acc.AccountID)
	s.Require().NoError(err)
	s.Equal(acc.AccountID, stale.AccountID)

	s.cached.InvalidateAccount(acc.AccountID, acc.CardNumber)

	_, err = s.cached.FindAccountByID(s.ctx, acc.AccountID)
	s.Error(err)
}

func (s *AccountCacheSuite) TestApplyDeltaRefreshesCache() {
	acc := s.seedAccount("4000100020003000", "100")

	_, err := s.cached.FindAccountByID(s.ctx, acc.AccountID)
	s.Require().NoError(err)

	updated, err := s.cached.ApplyDelta(s.ctx, acc.AccountID, decimal.RequireFromString("-30"), 1, acc.OwnerUserID, s.now)
	s.Require().NoError(err)
	s.Equal("70", updated.Balance.String())

	cachedRead, err := s.cached.FindAccountByID(s.ctx, acc.AccountID)
	s.Require().NoError(err)
	s.Equal("70", cachedRead.Balance.String())
	s.Equal(int64(2), cachedRead.Version)
}

func (s *AccountCacheSuite) TestDeleteEvictsBothKeys() {
	acc := s.seedAccount("4000100020003000", "0")

	_, err := s.cached.FindAccountByCardNumber(s.ctx, acc.CardNumber)
	s.Require().NoError(err)

	s.Require().NoError(s.cached.DeleteAccount(s.ctx, acc.AccountID))

	_, err = s.cached.FindAccountByID(s.ctx, acc.AccountID)
	s.Error(err)
	_, err = s.cached.FindAccountByCardNumber(s.ctx, acc.CardNumber)
	s.Error(err)
}

func (s *AccountCacheSuite) TestExistsAlwaysHitsBackingStore() {
	acc := s.seedAccount("4000100020003000", "0")

	_, err := s.cached.FindAccountByCardNumber(s.ctx, acc.CardNumber)
	s.Require().NoError(err)

	s.Require().NoError(s.backing.DeleteAccount(s.ctx, acc.AccountID))

	exists, err := s.cached.ExistsByCardNumber(s.ctx, acc.CardNumber)
	s.Require().NoError(err)
	s.False(exists)
}

func TestAccountCacheSuite(t *testing.T) {
	suite.Run(t, new(AccountCacheSuite))
}
