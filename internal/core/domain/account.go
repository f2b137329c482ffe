package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CardExpiryYears is how long after creation a card number stays valid.
const CardExpiryYears = 5

// Account represents a currency-denominated balance owned by a single user.
// This is the primary representation used by services.
//
// Balance is the only mutable field and is only ever changed through the
// transfer engine; everything else is immutable once assigned at creation.
type Account struct {
	AccountID      string          `json:"accountID"`      // Primary Key (UUID)
	OwnerUserID    string          `json:"ownerUserID"`    // FK -> users.user_id (NON-NULL, immutable)
	CardNumber     string          `json:"cardNumber"`     // 16-digit string, globally unique
	CurrencyCode   CurrencyCode    `json:"currencyCode"`   // Closed enumeration, immutable
	Balance        decimal.Decimal `json:"balance"`        // Never negative
	ExpirationDate time.Time       `json:"expirationDate"` // Creation date + CardExpiryYears
	Version        int64           `json:"-"`              // Optimistic concurrency counter
	AuditFields
}

// IsExpired reports whether the account's card has passed its expiration date.
func (a Account) IsExpired(now time.Time) bool {
	return now.After(a.ExpirationDate)
}
