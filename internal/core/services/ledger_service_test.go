package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/cardbank/transfer_core/internal/apperrors"
	"github.com/cardbank/transfer_core/internal/core/domain"
	portssvc "github.com/cardbank/transfer_core/internal/core/ports/services"
	"github.com/cardbank/transfer_core/internal/core/services"
	"github.com/cardbank/transfer_core/internal/dto"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type LedgerServiceTestSuite struct {
	suite.Suite
	mockTransferRepo *MockTransferRepository
	service          portssvc.LedgerSvcFacade
	ctx              context.Context
}

func (suite *LedgerServiceTestSuite) SetupTest() {
	suite.mockTransferRepo = new(MockTransferRepository)
	suite.service = services.NewLedgerService(suite.mockTransferRepo)
	suite.ctx = context.Background()
}

func (suite *LedgerServiceTestSuite) sampleHistory(n int) []domain.Transaction {
	base := time.Now().UTC()
	txns := make([]domain.Transaction, n)
	for i := range txns {
		txns[i] = domain.Transaction{
			TransactionID:     uuid.NewString(),
			SenderAccountID:   "acc-1",
			ReceiverAccountID: "acc-2",
			Amount:            decimal.RequireFromString("10"),
			CurrencyCode:      domain.USD,
			BalanceAfter:      decimal.RequireFromString("90"),
		}
		// Newest first, as the repository contract guarantees.
		txns[i].CreatedAt = base.Add(-time.Duration(i) * time.Minute)
	}
	return txns
}

func (suite *LedgerServiceTestSuite) TestHistoryForUser_AppliesDefaultLimit() {
	userID := uuid.NewString()
	history := suite.sampleHistory(3)

	suite.mockTransferRepo.On("ListTransactionsByUser", suite.ctx, userID, 20, (*string)(nil)).Return(history, nil, nil).Once()

	resp, err := suite.service.HistoryForUser(suite.ctx, userID, dto.ListTransactionsParams{})

	suite.Require().NoError(err)
	suite.Len(resp.Transactions, 3)
	suite.Nil(resp.NextToken)
	for i := 1; i < len(resp.Transactions); i++ {
		suite.False(resp.Transactions[i].Timestamp.After(resp.Transactions[i-1].Timestamp))
	}
	suite.mockTransferRepo.AssertExpectations(suite.T())
}

func (suite *LedgerServiceTestSuite) TestHistoryForUser_PassesTokenThrough() {
	userID := uuid.NewString()
	token := "opaque-cursor"
	nextToken := "next-cursor"

	suite.mockTransferRepo.On("ListTransactionsByUser", suite.ctx, userID, 5, &token).Return(suite.sampleHistory(5), &nextToken, nil).Once()

	resp, err := suite.service.HistoryForUser(suite.ctx, userID, dto.ListTransactionsParams{Limit: 5, NextToken: &token})

	suite.Require().NoError(err)
	suite.Require().NotNil(resp.NextToken)
	suite.Equal(nextToken, *resp.NextToken)
}

func (suite *LedgerServiceTestSuite) TestHistoryForUser_EmptyHistory() {
	userID := uuid.NewString()

	suite.mockTransferRepo.On("ListTransactionsByUser", suite.ctx, userID, 20, (*string)(nil)).Return([]domain.Transaction{}, nil, nil).Once()

	resp, err := suite.service.HistoryForUser(suite.ctx, userID, dto.ListTransactionsParams{})

	suite.Require().NoError(err)
	suite.NotNil(resp.Transactions)
	suite.Empty(resp.Transactions)
}

func (suite *LedgerServiceTestSuite) TestHistoryForAccount_Success() {
	accountID := uuid.NewString()
	history := suite.sampleHistory(2)

	suite.mockTransferRepo.On("ListTransactionsByAccount", suite.ctx, accountID, 10, (*string)(nil)).Return(history, nil, nil).Once()

	resp, err := suite.service.HistoryForAccount(suite.ctx, accountID, dto.ListTransactionsParams{Limit: 10})

	suite.Require().NoError(err)
	suite.Len(resp.Transactions, 2)
	suite.Equal(history[0].TransactionID, resp.Transactions[0].TransactionID)
}

func (suite *LedgerServiceTestSuite) TestGetTransactionByID_NotFound() {
	txnID := uuid.NewString()
	suite.mockTransferRepo.On("FindTransactionByID", suite.ctx, txnID).Return(nil, apperrors.ErrNotFound).Once()

	_, err := suite.service.GetTransactionByID(suite.ctx, txnID)

	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func TestLedgerServiceTestSuite(t *testing.T) {
	suite.Run(t, new(LedgerServiceTestSuite))
}
