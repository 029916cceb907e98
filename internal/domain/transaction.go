// internal/domain/transaction.go
package domain

import (
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/shopspring/decimal"
)

// TransactionType defines the type of a financial transaction.
type TransactionType string

const (
	TransactionTypeCredit   TransactionType = "CREDIT"   // wallet top-up through a payment provider
	TransactionTypeDebit    TransactionType = "DEBIT"    // spend from the wallet
	TransactionTypeTransfer TransactionType = "TRANSFER" // payout to the user's bank account
)

// TransactionStatus defines the status of a financial transaction.
// PENDING is the only non-terminal state; a transaction moves to COMPLETED
// or FAILED exactly once and never leaves a terminal state.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
	TransactionStatusFailed    TransactionStatus = "FAILED"
)

// ProviderPaystack identifies the payment provider used for charges and
// bank transfers.
const ProviderPaystack = "paystack"

// Transaction represents one ledger entry. Reference is the provider-scoped
// external reference; it is unique when present and drives webhook
// deduplication.
type Transaction struct {
	ID          int64             `db:"id" json:"id"`
	UserID      int64             `db:"user_id" json:"user_id"`
	Type        TransactionType   `db:"type" json:"type"`
	Amount      decimal.Decimal   `db:"amount" json:"amount"`
	Currency    string            `db:"currency" json:"currency"`
	Reference   *string           `db:"reference" json:"reference"`
	Provider    *string           `db:"provider" json:"provider"`
	Status      TransactionStatus `db:"status" json:"status"`
	Description *string           `db:"description" json:"description"`
	Metadata    types.JSONText    `db:"metadata" json:"metadata,omitempty"`
	CreatedAt   time.Time         `db:"created_at" json:"created_at"`
	CompletedAt *time.Time        `db:"completed_at" json:"completed_at"`
}

// NewTransaction creates a new pending Transaction.
func NewTransaction(userID int64, txType TransactionType, amount decimal.Decimal, currency string, description *string) *Transaction {
	return &Transaction{
		UserID:      userID,
		Type:        txType,
		Amount:      amount,
		Currency:    currency,
		Status:      TransactionStatusPending,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}
}

// WithReference tags the transaction with a provider-scoped external
// reference so webhook deliveries can be deduplicated against it.
func (t *Transaction) WithReference(provider, reference string) *Transaction {
	t.Provider = &provider
	t.Reference = &reference
	return t
}

// IsTerminal reports whether the transaction has reached a final state.
func (t *Transaction) IsTerminal() bool {
	return t.Status == TransactionStatusCompleted || t.Status == TransactionStatusFailed
}

// BalanceDelta is the transaction's contribution to the wallet balance once
// completed: credits add, debits and transfers subtract.
func (t *Transaction) BalanceDelta() decimal.Decimal {
	if t.Type == TransactionTypeCredit {
		return t.Amount
	}
	return t.Amount.Neg()
}
