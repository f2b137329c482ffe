package dto

import (
	"time"

	"github.com/cardbank/transfer_core/internal/core/domain"
	"github.com/shopspring/decimal"
)

// TransferByIDRequest moves money between accounts addressed by internal IDs.
type TransferByIDRequest struct {
	SenderAccountID   string          `json:"senderAccountID" binding:"required"`
	ReceiverAccountID string          `json:"receiverAccountID" binding:"required"`
	Amount            decimal.Decimal `json:"amount" binding:"required"`
}

// TransferByCardRequest moves money between accounts addressed by card number.
type TransferByCardRequest struct {
	SenderCardNumber   string          `json:"senderCardNumber" binding:"required"`
	ReceiverCardNumber string          `json:"receiverCardNumber" binding:"required"`
	Amount             decimal.Decimal `json:"amount" binding:"required"`
}

// TransactionResponse defines the data returned for a ledger entry.
type TransactionResponse struct {
	TransactionID     string              `json:"transactionID"`
	SenderAccountID   string              `json:"senderAccountID"`
	ReceiverAccountID string              `json:"receiverAccountID"`
	Amount            decimal.Decimal     `json:"amount"`
	CurrencyCode      domain.CurrencyCode `json:"currencyCode"`
	BalanceAfter      decimal.Decimal     `json:"balanceAfter"`
	Timestamp         time.Time           `json:"timestamp"`
}

// ToTransactionResponse converts a domain.Transaction to a TransactionResponse DTO
func ToTransactionResponse(txn *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		TransactionID:     txn.TransactionID,
		SenderAccountID:   txn.SenderAccountID,
		ReceiverAccountID: txn.ReceiverAccountID,
		Amount:            txn.Amount,
		CurrencyCode:      txn.CurrencyCode,
		BalanceAfter:      txn.BalanceAfter,
		Timestamp:         txn.CreatedAt,
	}
}

// ToTransactionResponses converts a slice of domain.Transaction to DTOs
func ToTransactionResponses(txns []domain.Transaction) []TransactionResponse {
	res := make([]TransactionResponse, len(txns))
	for i := range txns {
		res[i] = ToTransactionResponse(&txns[i])
	}
	return res
}

// ListTransactionsParams holds pagination parameters for ledger history reads.
type ListTransactionsParams struct {
	Limit     int     `form:"limit"`
	NextToken *string `form:"nextToken"`
}

// ListTransactionsResponse is one page of ledger history, newest first.
type ListTransactionsResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	NextToken    *string               `json:"nextToken,omitempty"`
}
