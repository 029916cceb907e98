// internal/domain/budget_test.go
package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestDaysInMonth(t *testing.T) {
	tests := []struct {
		name string
		date time.Time
		want int
	}{
		{"ThirtyDayMonth", time.Date(2026, time.April, 15, 0, 0, 0, 0, time.UTC), 30},
		{"ThirtyOneDayMonth", time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC), 31},
		{"FebruaryNonLeap", time.Date(2026, time.February, 28, 0, 0, 0, 0, time.UTC), 28},
		{"FebruaryLeap", time.Date(2028, time.February, 1, 0, 0, 0, 0, time.UTC), 29},
		{"EndOfDecember", time.Date(2026, time.December, 31, 23, 59, 0, 0, time.UTC), 31},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DaysInMonth(tt.date))
		})
	}
}

func TestDailyAllowance(t *testing.T) {
	tests := []struct {
		name    string
		monthly decimal.Decimal
		date    time.Time
		want    decimal.Decimal
	}{
		{
			"EvenSplit",
			decimal.NewFromInt(30000),
			time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC), // 30 days
			decimal.NewFromInt(1000),
		},
		{
			"RoundedToMinorUnit",
			decimal.NewFromInt(10000),
			time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC), // 31 days
			decimal.NewFromFloat(322.58),
		},
		{
			"LeapFebruary",
			decimal.NewFromInt(29000),
			time.Date(2028, time.February, 10, 0, 0, 0, 0, time.UTC), // 29 days
			decimal.NewFromInt(1000),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DailyAllowance(tt.monthly, tt.date)
			assert.True(t, got.Equal(tt.want), "got %s, want %s", got, tt.want)
		})
	}
}

func TestNewBudget(t *testing.T) {
	at := time.Date(2026, time.April, 5, 12, 0, 0, 0, time.UTC)
	budget := NewBudget(7, decimal.NewFromInt(15000), "NGN", at)

	assert.Equal(t, int64(7), budget.UserID)
	assert.True(t, budget.IsActive)
	assert.True(t, budget.DailyAllowance.Equal(decimal.NewFromInt(500)))
	assert.Equal(t, "NGN", budget.Currency)
}
