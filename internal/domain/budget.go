// internal/domain/budget.go
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Budget represents one monthly food budget for a user. A user keeps a
// history of budgets; at most one row is active at any instant.
type Budget struct {
	ID             int64           `db:"id" json:"id"`
	UserID         int64           `db:"user_id" json:"user_id"`
	MonthlyAmount  decimal.Decimal `db:"monthly_amount" json:"monthly_amount"`
	DailyAllowance decimal.Decimal `db:"daily_allowance" json:"daily_allowance"`
	Currency       string          `db:"currency" json:"currency"`
	IsActive       bool            `db:"is_active" json:"is_active"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
}

// NewBudget creates a new active Budget. The daily allowance is derived from
// the monthly amount and the calendar month containing `at`.
func NewBudget(userID int64, monthlyAmount decimal.Decimal, currency string, at time.Time) *Budget {
	return &Budget{
		UserID:         userID,
		MonthlyAmount:  monthlyAmount,
		DailyAllowance: DailyAllowance(monthlyAmount, at),
		Currency:       currency,
		IsActive:       true,
		CreatedAt:      at.UTC(),
	}
}

// DailyAllowance splits a monthly amount evenly over the calendar month
// containing `at`, rounded to the currency's minor unit.
func DailyAllowance(monthlyAmount decimal.Decimal, at time.Time) decimal.Decimal {
	days := DaysInMonth(at)
	return monthlyAmount.Div(decimal.NewFromInt(int64(days))).Round(2)
}

// DaysInMonth returns the number of days in the calendar month containing t.
func DaysInMonth(t time.Time) int {
	y, m, _ := t.Date()
	// Day 0 of the next month is the last day of this month.
	return time.Date(y, m+1, 0, 0, 0, 0, 0, t.Location()).Day()
}

// DailyStatus summarizes one day of spending against the active budget.
// Remaining may go negative; that is a warning for the user, not an error.
type DailyStatus struct {
	Date      string          `json:"date"`
	Allowance decimal.Decimal `json:"allowance"`
	Spent     decimal.Decimal `json:"spent"`
	Remaining decimal.Decimal `json:"remaining"`
	Currency  string          `json:"currency"`
	OverSpent bool            `json:"over_spent"`
}

// AllowanceCandidate is a user due for today's scheduled allowance transfer.
type AllowanceCandidate struct {
	UserID         int64           `db:"user_id"`
	DailyAllowance decimal.Decimal `db:"daily_allowance"`
}
