// internal/scheduler/scheduler.go
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"dailychow-wallet/internal/service"
	"dailychow-wallet/internal/util"
)

// AllowanceScheduler moves each user's daily allowance from their wallet to
// their bank account once per calendar day. Ticks are idempotent: the
// transfer reference is derived from the user and the date, so re-running a
// day's job after a crash or restart never double-pays.
type AllowanceScheduler struct {
	wallets      service.WalletService
	budgets      service.BudgetService
	providerName string // payout provider the transfer references are scoped to
	logger       *slog.Logger
	hour         int              // hour of day (UTC) the daily job fires
	now          func() time.Time // injected for tests
}

// NewAllowanceScheduler creates a scheduler that fires daily at the given UTC hour.
func NewAllowanceScheduler(wallets service.WalletService, budgets service.BudgetService, providerName string, hour int, logger *slog.Logger) *AllowanceScheduler {
	return &AllowanceScheduler{
		wallets:      wallets,
		budgets:      budgets,
		providerName: providerName,
		logger:       logger,
		hour:         hour,
		now:          time.Now,
	}
}

// AllowanceReference is the deterministic transfer reference for one user
// and one calendar day. One reference per (user, day) is what makes the
// daily job safe to re-run.
func AllowanceReference(userID int64, date time.Time) string {
	return fmt.Sprintf("allowance_%d_%s", userID, date.UTC().Format("2006-01-02"))
}

// DailyAllowanceTick disburses one user's allowance for one date. If a
// transaction already carries the day's reference the tick is a no-op.
func (s *AllowanceScheduler) DailyAllowanceTick(ctx context.Context, userID int64, date time.Time) error {
	reference := AllowanceReference(userID, date)

	existing, err := s.wallets.FindTransactionByReference(ctx, s.providerName, reference)
	if err != nil && !errors.Is(err, util.ErrNotFound) {
		return fmt.Errorf("allowance tick: failed to check reference %s: %w", reference, err)
	}
	if existing != nil {
		s.logger.Debug("Allowance already disbursed", "user_id", userID, "reference", reference)
		return nil
	}

	budget, err := s.budgets.GetActiveBudget(ctx, userID)
	if err != nil {
		if errors.Is(err, util.ErrBudgetNotFound) {
			s.logger.Debug("No active budget, skipping allowance", "user_id", userID)
			return nil
		}
		return fmt.Errorf("allowance tick: %w", err)
	}

	reason := fmt.Sprintf("Daily food allowance for %s", date.UTC().Format("2006-01-02"))
	if _, err := s.wallets.Transfer(ctx, userID, budget.DailyAllowance, reason, reference); err != nil {
		return fmt.Errorf("allowance tick: transfer failed for user %d: %w", userID, err)
	}

	s.logger.Info("Allowance disbursed", "user_id", userID, "amount", budget.DailyAllowance, "reference", reference)
	return nil
}

// RunDailyJob ticks every eligible user for today's date. One user's failure
// is logged and does not stop the rest of the batch.
func (s *AllowanceScheduler) RunDailyJob(ctx context.Context) error {
	date := s.now().UTC()

	candidates, err := s.budgets.ListAllowanceCandidates(ctx)
	if err != nil {
		return fmt.Errorf("daily job: failed to list candidates: %w", err)
	}

	s.logger.Info("Running daily allowance job", "date", date.Format("2006-01-02"), "candidates", len(candidates))

	var failed int
	for _, candidate := range candidates {
		if err := s.DailyAllowanceTick(ctx, candidate.UserID, date); err != nil {
			failed++
			s.logger.Error("Allowance tick failed", "user_id", candidate.UserID, "error", err)
		}
	}

	if failed > 0 {
		s.logger.Warn("Daily allowance job finished with failures", "failed", failed, "total", len(candidates))
	}
	return nil
}

// Run blocks until the context is cancelled, firing RunDailyJob once per day
// at the configured hour.
func (s *AllowanceScheduler) Run(ctx context.Context) {
	for {
		next := s.nextRun(s.now().UTC())
		timer := time.NewTimer(time.Until(next))
		s.logger.Info("Allowance scheduler sleeping", "next_run", next)

		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("Allowance scheduler stopped")
			return
		case <-timer.C:
			if err := s.RunDailyJob(ctx); err != nil {
				s.logger.Error("Daily allowance job failed", "error", err)
			}
		}
	}
}

// nextRun returns the next occurrence of the configured hour after now.
func (s *AllowanceScheduler) nextRun(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), s.hour, 0, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
