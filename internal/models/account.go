package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is the storage representation of a card account.
// balance carries a CHECK (balance >= 0) constraint; card_number and
// (owner_user_id, currency_code) carry UNIQUE constraints.
type Account struct {
	AccountID      string          `db:"account_id"`
	OwnerUserID    string          `db:"owner_user_id"`
	CardNumber     string          `db:"card_number"`
	CurrencyCode   string          `db:"currency_code"`
	Balance        decimal.Decimal `db:"balance"`
	ExpirationDate time.Time       `db:"expiration_date"`
	Version        int64           `db:"version"` // Bumped on every balance mutation
	AuditFields
}
