// internal/repository/transaction_repo.go
package repository

import (
	"context"
	"time"

	"dailychow-wallet/internal/domain"

	"github.com/jmoiron/sqlx/types"
	"github.com/shopspring/decimal"
)

// TransactionRepository defines the interface for transaction data operations.
type TransactionRepository interface {
	// CreateTransaction inserts a new transaction record. Inserting a second
	// row with the same (provider, reference) pair fails with
	// util.ErrDuplicateEntry; callers resolve the race by re-reading.
	CreateTransaction(ctx context.Context, q DBExecutor, transaction *domain.Transaction) error
	// GetTransactionByReference retrieves a transaction by its
	// provider-scoped external reference.
	GetTransactionByReference(ctx context.Context, q DBExecutor, provider, reference string) (*domain.Transaction, error)
	// GetTransactionByReferenceForUpdate is GetTransactionByReference with a
	// row lock, so concurrent webhook deliveries for the same reference
	// serialize onto one outcome. Must be called inside a transaction.
	GetTransactionByReferenceForUpdate(ctx context.Context, q DBExecutor, provider, reference string) (*domain.Transaction, error)
	// FinalizeTransaction moves a pending transaction to a terminal status,
	// attaching the provider's settlement metadata when present (nil keeps
	// whatever the row already holds). It fails with
	// util.ErrInvalidStateTransition if the row is no longer pending.
	FinalizeTransaction(ctx context.Context, q DBExecutor, id int64, status domain.TransactionStatus, completedAt time.Time, metadata types.JSONText) error
	// GetTransactionsByUserID retrieves paginated transaction history plus
	// the total count.
	GetTransactionsByUserID(ctx context.Context, q DBExecutor, userID int64, limit, offset int) ([]domain.Transaction, int64, error)
	// SumCompletedDebits totals completed DEBIT transactions for one user on
	// one calendar day.
	SumCompletedDebits(ctx context.Context, q DBExecutor, userID int64, day time.Time) (decimal.Decimal, error)
}
