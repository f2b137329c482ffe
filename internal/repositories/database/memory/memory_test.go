package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/cardbank/transfer_core/internal/apperrors"
	"github.com/cardbank/transfer_core/internal/core/domain"
	portsrepo "github.com/cardbank/transfer_core/internal/core/ports/repositories"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"golang.org/x/sync/errgroup"
)

type MemoryRepositorySuite struct {
	suite.Suite
	repos portsrepo.RepositoryProvider
	ctx   context.Context
	now   time.Time
}

func (s *MemoryRepositorySuite) SetupTest() {
	s.repos = NewRepositoryProvider()
	s.ctx = context.Background()
	s.now = time.Now().UTC()
}

func (s *MemoryRepositorySuite) newAccount(userID string, cardNumber string, balance string) domain.Account {
	acc := domain.Account{
		AccountID:      uuid.NewString(),
		OwnerUserID:    userID,
		CardNumber:     cardNumber,
		CurrencyCode:   domain.USD,
		Balance:        decimal.RequireFromString(balance),
		ExpirationDate: s.now.AddDate(domain.CardExpiryYears, 0, 0),
		Version:        1,
	}
	acc.CreatedAt = s.now
	acc.CreatedBy = userID
	acc.LastUpdatedAt = s.now
	acc.LastUpdatedBy = userID
	s.Require().NoError(s.repos.AccountRepo.SaveAccount(s.ctx, acc))
	return acc
}

func (s *MemoryRepositorySuite) newTransfer(senderID, receiverID string, amount string, at time.Time) domain.Transaction {
	txn := domain.Transaction{
		TransactionID:     uuid.NewString(),
		SenderAccountID:   senderID,
		ReceiverAccountID: receiverID,
		Amount:            decimal.RequireFromString(amount),
		CurrencyCode:      domain.USD,
	}
	txn.CreatedAt = at
	txn.CreatedBy = "tester"
	txn.LastUpdatedAt = at
	txn.LastUpdatedBy = "tester"
	return txn
}

func (s *MemoryRepositorySuite) TestSaveAccountRejectsDuplicateCardNumber() {
	s.newAccount("user-1", "4000100020003000", "0")

	dup := domain.Account{
		AccountID:      uuid.NewString(),
		OwnerUserID:    "user-2",
		CardNumber:     "4000100020003000",
		CurrencyCode:   domain.USD,
		Balance:        decimal.Zero,
		ExpirationDate: s.now.AddDate(domain.CardExpiryYears, 0, 0),
	}
	err := s.repos.AccountRepo.SaveAccount(s.ctx, dup)
	s.ErrorIs(err, apperrors.ErrDuplicateCardNumber)
}

func (s *MemoryRepositorySuite) TestSaveAccountRejectsSecondAccountInSameCurrency() {
	s.newAccount("user-1", "4000100020003000", "0")

	second := domain.Account{
		AccountID:      uuid.NewString(),
		OwnerUserID:    "user-1",
		CardNumber:     "4000100020003001",
		CurrencyCode:   domain.USD,
		Balance:        decimal.Zero,
		ExpirationDate: s.now.AddDate(domain.CardExpiryYears, 0, 0),
	}
	err := s.repos.AccountRepo.SaveAccount(s.ctx, second)
	s.ErrorIs(err, apperrors.ErrAccountAlreadyExists)
}

func (s *MemoryRepositorySuite) TestApplyDeltaBumpsVersion() {
	acc := s.newAccount("user-1", "4000100020003000", "100")

	updated, err := s.repos.AccountRepo.ApplyDelta(s.ctx, acc.AccountID, decimal.RequireFromString("25"), 1, "user-1", s.now)
	s.Require().NoError(err)
	s.Equal("125", updated.Balance.String())
	s.Equal(int64(2), updated.Version)
}

func (s *MemoryRepositorySuite) TestApplyDeltaStaleVersionFails() {
	acc := s.newAccount("user-1", "4000100020003000", "100")

	_, err := s.repos.AccountRepo.ApplyDelta(s.ctx, acc.AccountID, decimal.RequireFromString("10"), 1, "user-1", s.now)
	s.Require().NoError(err)

	_, err = s.repos.AccountRepo.ApplyDelta(s.ctx, acc.AccountID, decimal.RequireFromString("10"), 1, "user-1", s.now)
	s.ErrorIs(err, apperrors.ErrConcurrentModification)
}

func (s *MemoryRepositorySuite) TestApplyDeltaRejectsOverdraft() {
	acc := s.newAccount("user-1", "4000100020003000", "30")

	_, err := s.repos.AccountRepo.ApplyDelta(s.ctx, acc.AccountID, decimal.RequireFromString("-50"), 1, "user-1", s.now)
	s.ErrorIs(err, apperrors.ErrInsufficientBalance)
}

func (s *MemoryRepositorySuite) TestDeleteAccountRequiresZeroBalance() {
	funded := s.newAccount("user-1", "4000100020003000", "10")
	empty := s.newAccount("user-2", "4000100020003001", "0")

	s.ErrorIs(s.repos.AccountRepo.DeleteAccount(s.ctx, funded.AccountID), apperrors.ErrAccountBalanceNonZero)
	s.NoError(s.repos.AccountRepo.DeleteAccount(s.ctx, empty.AccountID))

	_, err := s.repos.AccountRepo.FindAccountByID(s.ctx, empty.AccountID)
	s.ErrorIs(err, apperrors.ErrNotFound)

	exists, err := s.repos.AccountRepo.ExistsByCardNumber(s.ctx, empty.CardNumber)
	s.Require().NoError(err)
	s.False(exists)
}

func (s *MemoryRepositorySuite) TestSaveTransferDebitsCreditsAndAppends() {
	sender := s.newAccount("user-1", "4000100020003000", "100")
	receiver := s.newAccount("user-2", "4000100020003001", "5")

	saved, err := s.repos.TransferRepo.SaveTransfer(s.ctx, s.newTransfer(sender.AccountID, receiver.AccountID, "40", s.now))
	s.Require().NoError(err)
	s.Equal("60", saved.BalanceAfter.String())

	senderAfter, err := s.repos.AccountRepo.FindAccountByID(s.ctx, sender.AccountID)
	s.Require().NoError(err)
	s.Equal("60", senderAfter.Balance.String())

	receiverAfter, err := s.repos.AccountRepo.FindAccountByID(s.ctx, receiver.AccountID)
	s.Require().NoError(err)
	s.Equal("45", receiverAfter.Balance.String())

	found, err := s.repos.TransferRepo.FindTransactionByID(s.ctx, saved.TransactionID)
	s.Require().NoError(err)
	s.Equal(saved.TransactionID, found.TransactionID)
}

func (s *MemoryRepositorySuite) TestSaveTransferRejectsSameAccount() {
	acc := s.newAccount("user-1", "4000100020003000", "100")

	_, err := s.repos.TransferRepo.SaveTransfer(s.ctx, s.newTransfer(acc.AccountID, acc.AccountID, "60", s.now))
	s.ErrorIs(err, apperrors.ErrSameAccountTransfer)

	after, findErr := s.repos.AccountRepo.FindAccountByID(s.ctx, acc.AccountID)
	s.Require().NoError(findErr)
	s.Equal("100", after.Balance.String())

	history, _, listErr := s.repos.TransferRepo.ListTransactionsByAccount(s.ctx, acc.AccountID, 10, nil)
	s.Require().NoError(listErr)
	s.Empty(history)
}

func (s *MemoryRepositorySuite) TestSaveTransferRechecksFundsUnderLock() {
	sender := s.newAccount("user-1", "4000100020003000", "100")
	receiver := s.newAccount("user-2", "4000100020003001", "0")

	// Two transfers of 60 each against a balance of 100: only one can land.
	g := new(errgroup.Group)
	for i := 0; i < 2; i++ {
		g.Go(func() error {
			_, err := s.repos.TransferRepo.SaveTransfer(s.ctx, s.newTransfer(sender.AccountID, receiver.AccountID, "60", s.now))
			return err
		})
	}
	err := g.Wait()
	s.ErrorIs(err, apperrors.ErrInsufficientBalance)

	senderAfter, findErr := s.repos.AccountRepo.FindAccountByID(s.ctx, sender.AccountID)
	s.Require().NoError(findErr)
	s.Equal("40", senderAfter.Balance.String())

	receiverAfter, findErr := s.repos.AccountRepo.FindAccountByID(s.ctx, receiver.AccountID)
	s.Require().NoError(findErr)
	s.Equal("60", receiverAfter.Balance.String())
}

func (s *MemoryRepositorySuite) TestConcurrentTransfersConserveTotalBalance() {
	a := s.newAccount("user-1", "4000100020003000", "1000")
	b := s.newAccount("user-2", "4000100020003001", "1000")

	g := new(errgroup.Group)
	for i := 0; i < 50; i++ {
		i := i
		g.Go(func() error {
			from, to := a.AccountID, b.AccountID
			if i%2 == 0 {
				from, to = to, from
			}
			_, err := s.repos.TransferRepo.SaveTransfer(s.ctx, s.newTransfer(from, to, "7", s.now))
			return err
		})
	}
	s.Require().NoError(g.Wait())

	aAfter, err := s.repos.AccountRepo.FindAccountByID(s.ctx, a.AccountID)
	s.Require().NoError(err)
	bAfter, err := s.repos.AccountRepo.FindAccountByID(s.ctx, b.AccountID)
	s.Require().NoError(err)

	total := aAfter.Balance.Add(bAfter.Balance)
	s.Equal("2000", total.String())

	history, _, err := s.repos.TransferRepo.ListTransactionsByAccount(s.ctx, a.AccountID, 100, nil)
	s.Require().NoError(err)
	s.Len(history, 50)
}

func (s *MemoryRepositorySuite) TestListTransactionsNewestFirstWithPagination() {
	sender := s.newAccount("user-1", "4000100020003000", "1000")
	receiver := s.newAccount("user-2", "4000100020003001", "0")

	for i := 0; i < 5; i++ {
		at := s.now.Add(time.Duration(i) * time.Second)
		_, err := s.repos.TransferRepo.SaveTransfer(s.ctx, s.newTransfer(sender.AccountID, receiver.AccountID, "1", at))
		s.Require().NoError(err)
	}

	page1, token, err := s.repos.TransferRepo.ListTransactionsByUser(s.ctx, "user-1", 3, nil)
	s.Require().NoError(err)
	s.Require().Len(page1, 3)
	s.Require().NotNil(token)
	for i := 1; i < len(page1); i++ {
		s.False(page1[i].CreatedAt.After(page1[i-1].CreatedAt))
	}

	page2, token2, err := s.repos.TransferRepo.ListTransactionsByUser(s.ctx, "user-1", 3, token)
	s.Require().NoError(err)
	s.Len(page2, 2)
	s.Nil(token2)

	seen := map[string]bool{}
	for _, txn := range append(page1, page2...) {
		s.False(seen[txn.TransactionID], fmt.Sprintf("transaction %s returned twice", txn.TransactionID))
		seen[txn.TransactionID] = true
	}
}

func (s *MemoryRepositorySuite) TestUserRepositoryRoundTrip() {
	user := domain.User{
		UserID:   uuid.NewString(),
		Username: "alice",
		Name:     "Alice",
	}
	user.CreatedAt = s.now
	user.CreatedBy = user.UserID
	user.LastUpdatedAt = s.now
	user.LastUpdatedBy = user.UserID

	s.Require().NoError(s.repos.UserRepo.SaveUser(s.ctx, user))

	byName, err := s.repos.UserRepo.FindUserByUsername(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(user.UserID, byName.UserID)

	err = s.repos.UserRepo.SaveUser(s.ctx, domain.User{UserID: uuid.NewString(), Username: "alice"})
	s.ErrorIs(err, apperrors.ErrDuplicate)
}

func TestMemoryRepositorySuite(t *testing.T) {
	suite.Run(t, new(MemoryRepositorySuite))
}
