// internal/domain/bank_account.go
package domain

import "time"

// BankAccount is a payout destination for the daily allowance transfer.
// A user keeps a history of accounts; at most one row is active at any
// instant, and only verified accounts receive transfers. RecipientCode is
// the provider-side handle created during verification.
type BankAccount struct {
	ID            int64     `db:"id" json:"id"`
	UserID        int64     `db:"user_id" json:"user_id"`
	AccountNumber string    `db:"account_number" json:"account_number"`
	BankCode      string    `db:"bank_code" json:"bank_code"`
	BankName      *string   `db:"bank_name" json:"bank_name"`
	AccountName   string    `db:"account_name" json:"account_name"`
	RecipientCode *string   `db:"recipient_code" json:"-"`
	IsVerified    bool      `db:"is_verified" json:"is_verified"`
	IsActive      bool      `db:"is_active" json:"is_active"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// NewBankAccount creates a new active, unverified BankAccount.
func NewBankAccount(userID int64, accountNumber, bankCode, accountName string) *BankAccount {
	return &BankAccount{
		UserID:        userID,
		AccountNumber: accountNumber,
		BankCode:      bankCode,
		AccountName:   accountName,
		IsActive:      true,
		CreatedAt:     time.Now().UTC(),
	}
}
