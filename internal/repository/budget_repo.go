// internal/repository/budget_repo.go
package repository

import (
	"context"

	"dailychow-wallet/internal/domain"
)

// BudgetRepository defines the interface for budget data operations.
type BudgetRepository interface {
	// CreateBudget inserts a new budget row. The partial unique index on
	// (user_id) WHERE is_active rejects a second active row.
	CreateBudget(ctx context.Context, q DBExecutor, budget *domain.Budget) error
	// GetActiveBudget retrieves the user's single active budget.
	GetActiveBudget(ctx context.Context, q DBExecutor, userID int64) (*domain.Budget, error)
	// DeactivateBudgets clears the active flag on the user's budgets. Always
	// paired with CreateBudget inside one transaction so there is never a
	// window with zero or two active rows.
	DeactivateBudgets(ctx context.Context, q DBExecutor, userID int64) error
	// ListAllowanceCandidates returns users due for the daily allowance
	// transfer: active user, active budget with a positive allowance, wallet
	// balance covering it, and a verified active bank account.
	ListAllowanceCandidates(ctx context.Context, q DBExecutor) ([]domain.AllowanceCandidate, error)
}
