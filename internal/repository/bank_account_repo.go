// internal/repository/bank_account_repo.go
package repository

import (
	"context"

	"dailychow-wallet/internal/domain"
)

// BankAccountRepository defines the interface for bank account data operations.
type BankAccountRepository interface {
	// CreateBankAccount inserts a new bank account row. The partial unique
	// index on (user_id) WHERE is_active rejects a second active row.
	CreateBankAccount(ctx context.Context, q DBExecutor, account *domain.BankAccount) error
	// GetActiveBankAccount retrieves the user's single active bank account.
	GetActiveBankAccount(ctx context.Context, q DBExecutor, userID int64) (*domain.BankAccount, error)
	// DeactivateBankAccounts clears the active flag on the user's accounts.
	// Always paired with CreateBankAccount inside one transaction.
	DeactivateBankAccounts(ctx context.Context, q DBExecutor, userID int64) error
}
