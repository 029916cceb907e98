// internal/repository/postgres/bank_account_pg.go
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"dailychow-wallet/internal/domain"
	"dailychow-wallet/internal/repository"
	"dailychow-wallet/internal/util"

	"github.com/jmoiron/sqlx"
)

// BankAccountRepository implements repository.BankAccountRepository for PostgreSQL.
type BankAccountRepository struct {
	// Methods receive a DBExecutor directly, so no *sqlx.DB is held here.
}

// NewBankAccountRepository creates a new BankAccountRepository.
func NewBankAccountRepository(db *sqlx.DB) repository.BankAccountRepository {
	return &BankAccountRepository{}
}

// CreateBankAccount inserts a new bank account row using the provided DBExecutor.
func (r *BankAccountRepository) CreateBankAccount(ctx context.Context, q repository.DBExecutor, account *domain.BankAccount) error {
	query := `INSERT INTO bank_accounts (user_id, account_number, bank_code, bank_name, account_name, recipient_code, is_verified, is_active, created_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`
	err := q.QueryRowContext(ctx, query,
		account.UserID, account.AccountNumber, account.BankCode, account.BankName,
		account.AccountName, account.RecipientCode, account.IsVerified, account.IsActive, account.CreatedAt,
	).Scan(&account.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return util.ErrConstraintViolation
		}
		return fmt.Errorf("failed to create bank account: %w", err)
	}
	return nil
}

// GetActiveBankAccount retrieves the user's single active bank account using the provided DBExecutor.
func (r *BankAccountRepository) GetActiveBankAccount(ctx context.Context, q repository.DBExecutor, userID int64) (*domain.BankAccount, error) {
	var account domain.BankAccount
	query := `SELECT id, user_id, account_number, bank_code, bank_name, account_name, recipient_code, is_verified, is_active, created_at
		FROM bank_accounts WHERE user_id = $1 AND is_active`
	err := q.GetContext(ctx, &account, query, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get active bank account for user %d: %w", userID, err)
	}
	return &account, nil
}

// DeactivateBankAccounts clears the active flag on the user's accounts using the provided DBExecutor.
func (r *BankAccountRepository) DeactivateBankAccounts(ctx context.Context, q repository.DBExecutor, userID int64) error {
	query := `UPDATE bank_accounts SET is_active = FALSE WHERE user_id = $1 AND is_active`
	if _, err := q.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to deactivate bank accounts for user %d: %w", userID, err)
	}
	return nil
}
