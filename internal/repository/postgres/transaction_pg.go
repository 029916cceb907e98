// internal/repository/postgres/transaction_pg.go
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"dailychow-wallet/internal/domain"
	"dailychow-wallet/internal/repository"
	"dailychow-wallet/internal/util"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/shopspring/decimal"
)

// TransactionRepository implements repository.TransactionRepository for PostgreSQL.
type TransactionRepository struct {
	// Methods receive a DBExecutor directly, so no *sqlx.DB is held here.
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(db *sqlx.DB) repository.TransactionRepository {
	return &TransactionRepository{}
}

const transactionColumns = `id, user_id, type, amount, currency, reference, provider, status, description, metadata, created_at, completed_at`

// CreateTransaction inserts a new transaction record using the provided
// DBExecutor. The partial unique index on (provider, reference) turns a
// duplicate external reference into util.ErrDuplicateEntry.
func (r *TransactionRepository) CreateTransaction(ctx context.Context, q repository.DBExecutor, transaction *domain.Transaction) error {
	query := `INSERT INTO transactions (user_id, type, amount, currency, reference, provider, status, description, metadata, created_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`

	err := q.QueryRowContext(ctx, query,
		transaction.UserID,
		transaction.Type,
		transaction.Amount,
		transaction.Currency,
		transaction.Reference,
		transaction.Provider,
		transaction.Status,
		transaction.Description,
		transaction.Metadata,
		transaction.CreatedAt,
	).Scan(&transaction.ID)

	if err != nil {
		if isUniqueViolation(err) {
			return util.ErrDuplicateEntry
		}
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// GetTransactionByReference retrieves a transaction by its provider-scoped
// external reference.
func (r *TransactionRepository) GetTransactionByReference(ctx context.Context, q repository.DBExecutor, provider, reference string) (*domain.Transaction, error) {
	return r.getTransactionByReference(ctx, q, provider, reference, false)
}

// GetTransactionByReferenceForUpdate retrieves a transaction by reference
// with FOR UPDATE, so duplicate webhook deliveries serialize on the row.
func (r *TransactionRepository) GetTransactionByReferenceForUpdate(ctx context.Context, q repository.DBExecutor, provider, reference string) (*domain.Transaction, error) {
	return r.getTransactionByReference(ctx, q, provider, reference, true)
}

func (r *TransactionRepository) getTransactionByReference(ctx context.Context, q repository.DBExecutor, provider, reference string, forUpdate bool) (*domain.Transaction, error) {
	var transaction domain.Transaction
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE provider = $1 AND reference = $2`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	err := q.GetContext(ctx, &transaction, query, provider, reference)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get transaction by reference %s/%s: %w", provider, reference, err)
	}
	return &transaction, nil
}

// FinalizeTransaction moves a pending transaction to a terminal status. The
// WHERE status = PENDING guard makes the transition happen at most once; a
// zero row count means the transaction was already terminal. A nil metadata
// leaves the stored blob untouched.
func (r *TransactionRepository) FinalizeTransaction(ctx context.Context, q repository.DBExecutor, id int64, status domain.TransactionStatus, completedAt time.Time, metadata types.JSONText) error {
	// An empty JSONText values as {} rather than NULL, so map it to nil
	// explicitly to keep the COALESCE no-op.
	var meta any
	if len(metadata) > 0 {
		meta = metadata
	}
	query := `UPDATE transactions
		SET status = $1, completed_at = $2, metadata = COALESCE($3, metadata)
		WHERE id = $4 AND status = $5`
	result, err := q.ExecContext(ctx, query, status, completedAt, meta, id, domain.TransactionStatusPending)
	if err != nil {
		return fmt.Errorf("failed to finalize transaction %d: %w", id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected after finalizing transaction %d: %w", id, err)
	}
	if rowsAffected == 0 {
		return util.ErrInvalidStateTransition
	}
	return nil
}

// GetTransactionsByUserID retrieves a paginated list of transactions for a
// user. It performs two queries: one for the data and one for the total count.
func (r *TransactionRepository) GetTransactionsByUserID(ctx context.Context, q repository.DBExecutor, userID int64, limit, offset int) ([]domain.Transaction, int64, error) {
	transactions := []domain.Transaction{}

	query := `SELECT ` + transactionColumns + `
		FROM transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`
	err := q.SelectContext(ctx, &transactions, query, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch transactions for user %d: %w", userID, err)
	}

	var totalCount int64
	countQuery := `SELECT COUNT(*) FROM transactions WHERE user_id = $1`
	err = q.GetContext(ctx, &totalCount, countQuery, userID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get total transaction count for user %d: %w", userID, err)
	}

	return transactions, totalCount, nil
}

// SumCompletedDebits totals completed DEBIT transactions for one user on one
// calendar day (UTC day boundaries).
func (r *TransactionRepository) SumCompletedDebits(ctx context.Context, q repository.DBExecutor, userID int64, day time.Time) (decimal.Decimal, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24 * time.Hour)

	var total decimal.Decimal
	query := `SELECT COALESCE(SUM(amount), 0)
		FROM transactions
		WHERE user_id = $1 AND type = $2 AND status = $3
		  AND created_at >= $4 AND created_at < $5`
	err := q.GetContext(ctx, &total, query, userID, domain.TransactionTypeDebit, domain.TransactionStatusCompleted, dayStart, dayEnd)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum completed debits for user %d: %w", userID, err)
	}
	return total, nil
}
