// internal/scheduler/scheduler_test.go
package scheduler

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"dailychow-wallet/internal/domain"
	"dailychow-wallet/internal/service"
	"dailychow-wallet/internal/util"

	"github.com/jmoiron/sqlx/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockWalletService is a mock implementation of service.WalletService.
type MockWalletService struct {
	mock.Mock
}

func (m *MockWalletService) RegisterUser(ctx context.Context, chatID int64, username string) (*domain.User, error) {
	args := m.Called(ctx, chatID, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockWalletService) Debit(ctx context.Context, userID int64, amount decimal.Decimal, reason string) (*service.DebitResult, error) {
	args := m.Called(ctx, userID, amount, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DebitResult), args.Error(1)
}

func (m *MockWalletService) TopUp(ctx context.Context, userID int64, amount decimal.Decimal) (*service.TopUpResult, error) {
	args := m.Called(ctx, userID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.TopUpResult), args.Error(1)
}

func (m *MockWalletService) VerifyTopUp(ctx context.Context, userID int64, reference string) (*domain.Transaction, error) {
	args := m.Called(ctx, userID, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockWalletService) HandleProviderWebhook(ctx context.Context, providerName, reference, status string, amount decimal.Decimal, metadata types.JSONText) (*domain.Transaction, error) {
	args := m.Called(ctx, providerName, reference, status, amount, metadata)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockWalletService) Transfer(ctx context.Context, userID int64, amount decimal.Decimal, reason, reference string) (*domain.Transaction, error) {
	args := m.Called(ctx, userID, amount, reason, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockWalletService) GetBalance(ctx context.Context, userID int64) (*domain.Wallet, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Wallet), args.Error(1)
}

func (m *MockWalletService) GetTransactionHistory(ctx context.Context, userID int64, limit, offset int) ([]domain.Transaction, int64, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]domain.Transaction), args.Get(1).(int64), args.Error(2)
}

func (m *MockWalletService) FindTransactionByReference(ctx context.Context, providerName, reference string) (*domain.Transaction, error) {
	args := m.Called(ctx, providerName, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

// MockBudgetService is a mock implementation of service.BudgetService.
type MockBudgetService struct {
	mock.Mock
}

func (m *MockBudgetService) SetBudget(ctx context.Context, userID int64, monthlyAmount decimal.Decimal, currency string) (*domain.Budget, error) {
	args := m.Called(ctx, userID, monthlyAmount, currency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Budget), args.Error(1)
}

func (m *MockBudgetService) GetActiveBudget(ctx context.Context, userID int64) (*domain.Budget, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Budget), args.Error(1)
}

func (m *MockBudgetService) GetDailyStatus(ctx context.Context, userID int64, date time.Time) (*domain.DailyStatus, error) {
	args := m.Called(ctx, userID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DailyStatus), args.Error(1)
}

func (m *MockBudgetService) SetBankAccount(ctx context.Context, userID int64, accountNumber, bankCode, accountName string) (*domain.BankAccount, error) {
	args := m.Called(ctx, userID, accountNumber, bankCode, accountName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BankAccount), args.Error(1)
}

func (m *MockBudgetService) ListAllowanceCandidates(ctx context.Context) ([]domain.AllowanceCandidate, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.AllowanceCandidate), args.Error(1)
}

func newTestScheduler(wallets *MockWalletService, budgets *MockBudgetService) *AllowanceScheduler {
	return NewAllowanceScheduler(wallets, budgets, "paystack", 6, slog.New(slog.DiscardHandler))
}

func TestAllowanceReference(t *testing.T) {
	date := time.Date(2026, time.August, 26, 14, 30, 0, 0, time.UTC)
	assert.Equal(t, "allowance_7_2026-08-26", AllowanceReference(7, date))

	// Same day, different wall-clock time: same reference.
	later := date.Add(8 * time.Hour)
	assert.Equal(t, AllowanceReference(7, date), AllowanceReference(7, later))
}

func TestDailyAllowanceTick(t *testing.T) {
	userID := int64(7)
	date := time.Date(2026, time.August, 26, 6, 0, 0, 0, time.UTC)
	reference := AllowanceReference(userID, date)
	allowance := decimal.NewFromFloat(1000.00)

	t.Run("DisbursesOncePerDay", func(t *testing.T) {
		ctx := context.Background()
		wallets := new(MockWalletService)
		budgets := new(MockBudgetService)
		s := newTestScheduler(wallets, budgets)

		budget := &domain.Budget{UserID: userID, DailyAllowance: allowance, IsActive: true}
		transfer := &domain.Transaction{ID: 1, UserID: userID, Type: domain.TransactionTypeTransfer, Amount: allowance}

		wallets.On("FindTransactionByReference", ctx, "paystack", reference).Return(nil, util.ErrNotFound).Once()
		budgets.On("GetActiveBudget", ctx, userID).Return(budget, nil).Once()
		wallets.On("Transfer", ctx, userID, allowance, mock.AnythingOfType("string"), reference).Return(transfer, nil).Once()

		err := s.DailyAllowanceTick(ctx, userID, date)
		assert.NoError(t, err)

		// Second tick for the same date observes the reference and does nothing.
		wallets.On("FindTransactionByReference", ctx, "paystack", reference).Return(transfer, nil).Once()

		err = s.DailyAllowanceTick(ctx, userID, date)
		assert.NoError(t, err)

		wallets.AssertNumberOfCalls(t, "Transfer", 1)
		mock.AssertExpectationsForObjects(t, wallets, budgets)
	})

	t.Run("SkipsUserWithoutBudget", func(t *testing.T) {
		ctx := context.Background()
		wallets := new(MockWalletService)
		budgets := new(MockBudgetService)
		s := newTestScheduler(wallets, budgets)

		wallets.On("FindTransactionByReference", ctx, "paystack", reference).Return(nil, util.ErrNotFound).Once()
		budgets.On("GetActiveBudget", ctx, userID).Return(nil, util.ErrBudgetNotFound).Once()

		err := s.DailyAllowanceTick(ctx, userID, date)

		assert.NoError(t, err)
		wallets.AssertNotCalled(t, "Transfer", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("PropagatesTransferFailure", func(t *testing.T) {
		ctx := context.Background()
		wallets := new(MockWalletService)
		budgets := new(MockBudgetService)
		s := newTestScheduler(wallets, budgets)

		budget := &domain.Budget{UserID: userID, DailyAllowance: allowance, IsActive: true}
		wallets.On("FindTransactionByReference", ctx, "paystack", reference).Return(nil, util.ErrNotFound).Once()
		budgets.On("GetActiveBudget", ctx, userID).Return(budget, nil).Once()
		wallets.On("Transfer", ctx, userID, allowance, mock.AnythingOfType("string"), reference).Return(nil, util.ErrInsufficientFunds).Once()

		err := s.DailyAllowanceTick(ctx, userID, date)

		assert.ErrorIs(t, err, util.ErrInsufficientFunds)
	})
}

func TestRunDailyJob(t *testing.T) {
	t.Run("OneFailureDoesNotStopTheBatch", func(t *testing.T) {
		ctx := context.Background()
		wallets := new(MockWalletService)
		budgets := new(MockBudgetService)
		s := newTestScheduler(wallets, budgets)
		s.now = func() time.Time { return time.Date(2026, time.August, 26, 6, 0, 0, 0, time.UTC) }
		date := s.now()

		allowance := decimal.NewFromFloat(500.00)
		candidates := []domain.AllowanceCandidate{
			{UserID: 1, DailyAllowance: allowance},
			{UserID: 2, DailyAllowance: allowance},
		}
		budget := &domain.Budget{DailyAllowance: allowance, IsActive: true}
		transfer := &domain.Transaction{ID: 9, Type: domain.TransactionTypeTransfer, Amount: allowance}

		budgets.On("ListAllowanceCandidates", ctx).Return(candidates, nil).Once()

		wallets.On("FindTransactionByReference", ctx, "paystack", AllowanceReference(1, date)).Return(nil, util.ErrNotFound).Once()
		budgets.On("GetActiveBudget", ctx, int64(1)).Return(budget, nil).Once()
		wallets.On("Transfer", ctx, int64(1), allowance, mock.AnythingOfType("string"), AllowanceReference(1, date)).
			Return(nil, util.ErrProviderUnavailable).Once()

		wallets.On("FindTransactionByReference", ctx, "paystack", AllowanceReference(2, date)).Return(nil, util.ErrNotFound).Once()
		budgets.On("GetActiveBudget", ctx, int64(2)).Return(budget, nil).Once()
		wallets.On("Transfer", ctx, int64(2), allowance, mock.AnythingOfType("string"), AllowanceReference(2, date)).
			Return(transfer, nil).Once()

		err := s.RunDailyJob(ctx)

		assert.NoError(t, err)
		mock.AssertExpectationsForObjects(t, wallets, budgets)
	})
}

func TestNextRun(t *testing.T) {
	s := newTestScheduler(new(MockWalletService), new(MockBudgetService))

	t.Run("BeforeTheHourFiresToday", func(t *testing.T) {
		now := time.Date(2026, time.August, 26, 3, 15, 0, 0, time.UTC)
		assert.Equal(t, time.Date(2026, time.August, 26, 6, 0, 0, 0, time.UTC), s.nextRun(now))
	})

	t.Run("AfterTheHourFiresTomorrow", func(t *testing.T) {
		now := time.Date(2026, time.August, 26, 9, 0, 0, 0, time.UTC)
		assert.Equal(t, time.Date(2026, time.August, 27, 6, 0, 0, 0, time.UTC), s.nextRun(now))
	})

	t.Run("ExactlyAtTheHourFiresTomorrow", func(t *testing.T) {
		now := time.Date(2026, time.August, 26, 6, 0, 0, 0, time.UTC)
		assert.Equal(t, time.Date(2026, time.August, 27, 6, 0, 0, 0, time.UTC), s.nextRun(now))
	})
}
