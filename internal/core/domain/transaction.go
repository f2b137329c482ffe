package domain

import "github.com/shopspring/decimal"

// Transaction is an immutable ledger entry recording one completed transfer.
// CurrencyCode and BalanceAfter are snapshots captured at commit time for
// audit history; they are never recomputed from the accounts.
type Transaction struct {
	TransactionID     string          `json:"transactionID"`     // Primary Key (UUID)
	SenderAccountID   string          `json:"senderAccountID"`   // Weak reference -> Account.accountID
	ReceiverAccountID string          `json:"receiverAccountID"` // Weak reference -> Account.accountID
	Amount            decimal.Decimal `json:"amount"`            // Positive value moved
	CurrencyCode      CurrencyCode    `json:"currencyCode"`      // Sender currency at commit time
	BalanceAfter      decimal.Decimal `json:"balanceAfter"`      // Sender balance after the debit
	AuditFields                       // CreatedAt is the commit timestamp
}
