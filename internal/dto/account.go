package dto

import (
	"time"

	"github.com/cardbank/transfer_core/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateAccountRequest defines the data needed to open a new card account.
type CreateAccountRequest struct {
	UserID       string              `json:"userID" binding:"required"`
	CurrencyCode domain.CurrencyCode `json:"currencyCode" binding:"required"`
}

// AccountResponse defines the data returned for an account.
// Mirrors domain.Account.
type AccountResponse struct {
	AccountID      string              `json:"accountID"`
	OwnerUserID    string              `json:"ownerUserID"`
	CardNumber     string              `json:"cardNumber"`
	CurrencyCode   domain.CurrencyCode `json:"currencyCode"`
	Balance        decimal.Decimal     `json:"balance"`
	ExpirationDate time.Time           `json:"expirationDate"`
	CreatedAt      time.Time           `json:"createdAt"`
}

// ToAccountResponse converts a domain.Account to AccountResponse DTO
func ToAccountResponse(acc *domain.Account) AccountResponse {
	return AccountResponse{
		AccountID:      acc.AccountID,
		OwnerUserID:    acc.OwnerUserID,
		CardNumber:     acc.CardNumber,
		CurrencyCode:   acc.CurrencyCode,
		Balance:        acc.Balance,
		ExpirationDate: acc.ExpirationDate,
		CreatedAt:      acc.CreatedAt,
	}
}

// ToListAccountResponse converts a slice of domain.Account to AccountResponse DTOs
func ToListAccountResponse(accounts []domain.Account) []AccountResponse {
	res := make([]AccountResponse, len(accounts))
	for i, acc := range accounts {
		res[i] = ToAccountResponse(&acc)
	}
	return res
}
