// internal/repository/postgres/budget_pg.go
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

// BudgetRepository implements repository.BudgetRepository for PostgreSQL.
type BudgetRepository struct {
	// Methods receive a DBExecutor directly, so no *sqlx.DB is held here.
}

// NewBudgetRepository creates a new BudgetRepository.
func NewBudgetRepository(db *sqlx.DB) repository.BudgetRepository {
	return &BudgetRepository{}
}

// CreateBudget inserts a new budget row using the provided DBExecutor. The
// partial unique index rejects a second active row per user; surfacing that
// as util.ErrConstraintViolation because it means the deactivate step was
// skipped or raced.
func (r *BudgetRepository) CreateBudget(ctx context.Context, q repository.DBExecutor, budget *domain.Budget) error {
	query := `INSERT INTO user_budgets (user_id, monthly_amount, daily_allowance, currency, is_active, created_at)
              VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	err := q.QueryRowContext(ctx, query,
		budget.UserID, budget.MonthlyAmount, budget.DailyAllowance, budget.Currency, budget.IsActive, budget.CreatedAt,
	).Scan(&budget.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return util.ErrConstraintViolation
		}
		return fmt.Errorf("failed to create budget: %w", err)
	}
	return nil
}

// GetActiveBudget retrieves the user's single active budget using the provided DBExecutor.
func (r *BudgetRepository) GetActiveBudget(ctx context.Context, q repository.DBExecutor, userID int64) (*domain.Budget, error) {
	var budget domain.Budget
	query := `SELECT id, user_id, monthly_amount, daily_allowance, currency, is_active, created_at
		FROM user_budgets WHERE user_id = $1 AND is_active`
	err := q.GetContext(ctx, &budget, query, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get active budget for user %d: %w", userID, err)
	}
	return &budget, nil
}

// DeactivateBudgets clears the active flag on the user's budgets using the provided DBExecutor.
func (r *BudgetRepository) DeactivateBudgets(ctx context.Context, q repository.DBExecutor, userID int64) error {
	query := `UPDATE user_budgets SET is_active = FALSE WHERE user_id = $1 AND is_active`
	if _, err := q.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to deactivate budgets for user %d: %w", userID, err)
	}
	return nil
}

// ListAllowanceCandidates returns users due for today's allowance transfer.
func (r *BudgetRepository) ListAllowanceCandidates(ctx context.Context, q repository.DBExecutor) ([]domain.AllowanceCandidate, error) {
	candidates := []domain.AllowanceCandidate{}
	query := `SELECT u.id AS user_id, b.daily_allowance
		FROM users u
		JOIN user_budgets b ON b.user_id = u.id AND b.is_active
		JOIN wallets w ON w.user_id = u.id
		JOIN bank_accounts a ON a.user_id = u.id AND a.is_active AND a.is_verified
		WHERE u.is_active AND b.daily_allowance > 0 AND w.balance >= b.daily_allowance
		ORDER BY u.id`
	if err := q.SelectContext(ctx, &candidates, query); err != nil {
		return nil, fmt.Errorf("failed to list allowance candidates: %w", err)
	}
	return candidates, nil
}
