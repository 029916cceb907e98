// internal/util/errors.go
package util

import "errors"

// Common application-specific errors.
var (
	ErrNotFound               = errors.New("resource not found")
	ErrValidation             = errors.New("invalid input provided")
	ErrInsufficientFunds      = errors.New("insufficient funds")
	ErrUserNotFound           = errors.New("user not found")
	ErrWalletNotFound         = errors.New("wallet not found")
	ErrBudgetNotFound         = errors.New("no active budget")
	ErrBankAccountNotFound    = errors.New("no active bank account")
	ErrDuplicateEntry         = errors.New("duplicate entry") // e.g. registering an already-known chat handle
	ErrInvalidStateTransition = errors.New("transaction is already in a terminal state")
	ErrProviderUnavailable    = errors.New("payment provider unavailable")
	ErrConstraintViolation    = errors.New("ledger constraint violation")
	ErrCurrencyMismatch       = errors.New("currency mismatch")
)

// IsError reports whether err matches the target sentinel error.
func IsError(err, target error) bool {
	return errors.Is(err, target)
}
