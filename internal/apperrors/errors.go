package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrInternal indicates an unexpected infrastructure failure. The underlying
// storage error is wrapped, never surfaced to callers directly.
var ErrInternal = errors.New("internal error")

// Transfer validation errors, in the fixed order the engine checks them.
var (
	ErrSenderNotFound        = errors.New("sender account not found")
	ErrReceiverNotFound      = errors.New("receiver account not found")
	ErrUnauthorizedTransfer  = errors.New("acting user does not own the sender account")
	ErrSameAccountTransfer   = errors.New("sender and receiver are the same account")
	ErrCurrencyMismatch      = errors.New("sender and receiver account currencies differ")
	ErrInvalidTransferAmount = errors.New("transfer amount must be positive")
	ErrInsufficientBalance   = errors.New("sender balance is less than the transfer amount")
)

// Account lifecycle errors.
var (
	ErrAccountAlreadyExists  = errors.New("user already has an account in this currency")
	ErrAccountBalanceNonZero = errors.New("account balance must be zero to close the account")
	ErrDuplicateCardNumber   = errors.New("card number already exists")
	ErrExhaustedAttempts     = errors.New("card number generation exhausted all attempts")
)

// ErrConcurrentModification indicates an optimistic-concurrency conflict on a
// balance update. This is the only error class the core retries internally.
var ErrConcurrentModification = errors.New("account was concurrently modified")

// AppError wraps an infrastructure failure with a stable code for the calling layer.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates an AppError wrapping the given cause.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// NewNotFoundError creates an AppError that also matches apperrors.ErrNotFound.
func NewNotFoundError(message string) *AppError {
	return &AppError{Code: 404, Message: message, Err: ErrNotFound}
}
