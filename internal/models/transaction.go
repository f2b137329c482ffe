package models

import "github.com/shopspring/decimal"

// Transaction is the storage representation of a ledger entry.
// Rows are insert-only; there is no update path.
type Transaction struct {
	TransactionID     string          `db:"transaction_id"`
	SenderAccountID   string          `db:"sender_account_id"`
	ReceiverAccountID string          `db:"receiver_account_id"`
	Amount            decimal.Decimal `db:"amount"`
	CurrencyCode      string          `db:"currency_code"`
	BalanceAfter      decimal.Decimal `db:"balance_after"`
	AuditFields
}
