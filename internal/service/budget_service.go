// internal/service/budget_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode"

	"dailychow-wallet/internal/domain"
	"dailychow-wallet/internal/repository"
	"dailychow-wallet/internal/util"
	"dailychow-wallet/pkg/db"

	"github.com/shopspring/decimal"
)

// BudgetService defines the interface for budget and bank-account business logic.
type BudgetService interface {
	SetBudget(ctx context.Context, userID int64, monthlyAmount decimal.Decimal, currency string) (*domain.Budget, error)
	GetActiveBudget(ctx context.Context, userID int64) (*domain.Budget, error)
	GetDailyStatus(ctx context.Context, userID int64, date time.Time) (*domain.DailyStatus, error)
	SetBankAccount(ctx context.Context, userID int64, accountNumber, bankCode, accountName string) (*domain.BankAccount, error)
	ListAllowanceCandidates(ctx context.Context) ([]domain.AllowanceCandidate, error)
}

// budgetService implements the BudgetService interface.
type budgetService struct {
	dbBeginner      db.DBTxBeginner
	dbExecutor      repository.DBExecutor
	userRepo        repository.UserRepository
	walletRepo      repository.WalletRepository
	budgetRepo      repository.BudgetRepository
	bankAccountRepo repository.BankAccountRepository
	transactionRepo repository.TransactionRepository
	auditRepo       repository.AuditRepository
	transfers       TransferProvider
	beginTx         db.BeginTxFunc
	commitTx        db.CommitTxFunc
	rollbackTx      db.RollbackTxFunc
	logger          *slog.Logger
	now             func() time.Time // injected so allowance math is testable
}

// NewBudgetService creates a new instance of BudgetService.
func NewBudgetService(
	dbBeginner db.DBTxBeginner,
	dbExecutor repository.DBExecutor,
	userRepo repository.UserRepository,
	walletRepo repository.WalletRepository,
	budgetRepo repository.BudgetRepository,
	bankAccountRepo repository.BankAccountRepository,
	transactionRepo repository.TransactionRepository,
	auditRepo repository.AuditRepository,
	transfers TransferProvider,
	beginTx db.BeginTxFunc,
	commitTx db.CommitTxFunc,
	rollbackTx db.RollbackTxFunc,
	logger *slog.Logger,
) BudgetService {
	return &budgetService{
		dbBeginner:      dbBeginner,
		dbExecutor:      dbExecutor,
		userRepo:        userRepo,
		walletRepo:      walletRepo,
		budgetRepo:      budgetRepo,
		bankAccountRepo: bankAccountRepo,
		transactionRepo: transactionRepo,
		auditRepo:       auditRepo,
		transfers:       transfers,
		beginTx:         beginTx,
		commitTx:        commitTx,
		rollbackTx:      rollbackTx,
		logger:          logger,
		now:             time.Now,
	}
}

func (s *budgetService) begin(ctx context.Context) (db.TxController, repository.DBExecutor, error) {
	txController, err := s.beginTx(ctx, s.dbBeginner)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		s.rollbackTx(txController)
		return nil, nil, fmt.Errorf("transaction controller does not implement DBExecutor")
	}
	return txController, txExecutor, nil
}

func (s *budgetService) audit(ctx context.Context, q repository.DBExecutor, userID int64, action, entityType string, entityID int64, oldValue, newValue any) error {
	entry, err := domain.NewAuditLog(userID, action, entityType, entityID, oldValue, newValue)
	if err != nil {
		return err
	}
	return s.auditRepo.RecordChange(ctx, q, entry)
}

// SetBudget replaces the user's active budget. Deactivation of the previous
// budget and activation of the new one are one unit of work, so there is
// never an instant with zero or two active rows.
func (s *budgetService) SetBudget(ctx context.Context, userID int64, monthlyAmount decimal.Decimal, currency string) (*domain.Budget, error) {
	if monthlyAmount.LessThanOrEqual(decimal.Zero) {
		return nil, util.ErrValidation
	}
	if currency == "" {
		currency = domain.DefaultCurrency
	}
	if !isCurrencyCode(currency) {
		return nil, util.ErrValidation
	}

	if _, err := s.userRepo.GetUserByID(ctx, s.dbExecutor, userID); err != nil {
		if errors.Is(err, util.ErrNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, fmt.Errorf("set budget: failed to load user: %w", err)
	}

	// A budget must be denominated in the wallet's currency. Users without a
	// wallet yet get one in the default currency on their first spend.
	wallet, err := s.walletRepo.GetWalletByUserID(ctx, s.dbExecutor, userID)
	switch {
	case err == nil:
		if wallet.Currency != currency {
			return nil, util.ErrCurrencyMismatch
		}
	case errors.Is(err, util.ErrNotFound):
		if currency != domain.DefaultCurrency {
			return nil, util.ErrCurrencyMismatch
		}
	default:
		return nil, fmt.Errorf("set budget: failed to load wallet: %w", err)
	}

	txController, txExecutor, err := s.begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("set budget: %w", err)
	}
	defer s.rollbackTx(txController)

	oldBudget, err := s.budgetRepo.GetActiveBudget(ctx, txExecutor, userID)
	if err != nil && !errors.Is(err, util.ErrNotFound) {
		return nil, fmt.Errorf("set budget: failed to load current budget: %w", err)
	}

	if err := s.budgetRepo.DeactivateBudgets(ctx, txExecutor, userID); err != nil {
		return nil, fmt.Errorf("set budget: %w", err)
	}

	budget := domain.NewBudget(userID, monthlyAmount, currency, s.now().UTC())
	if err := s.budgetRepo.CreateBudget(ctx, txExecutor, budget); err != nil {
		return nil, fmt.Errorf("set budget: %w", err)
	}

	var oldValue any
	if oldBudget != nil {
		oldValue = oldBudget
	}
	if err := s.audit(ctx, txExecutor, userID, "budget.set", "budget", budget.ID, oldValue, budget); err != nil {
		return nil, fmt.Errorf("set budget: failed to record audit entry: %w", err)
	}

	if err := s.commitTx(txController); err != nil {
		return nil, fmt.Errorf("set budget: failed to commit transaction: %w", err)
	}

	s.logger.Info("Budget set", "user_id", userID, "monthly_amount", monthlyAmount, "daily_allowance", budget.DailyAllowance)
	return budget, nil
}

// GetActiveBudget returns the user's single active budget.
func (s *budgetService) GetActiveBudget(ctx context.Context, userID int64) (*domain.Budget, error) {
	budget, err := s.budgetRepo.GetActiveBudget(ctx, s.dbExecutor, userID)
	if err != nil {
		if errors.Is(err, util.ErrNotFound) {
			return nil, util.ErrBudgetNotFound
		}
		return nil, fmt.Errorf("get budget: %w", err)
	}
	return budget, nil
}

// GetDailyStatus reports allowance, spend and remainder for one calendar
// day. A negative remainder is surfaced as a warning flag, not an error.
func (s *budgetService) GetDailyStatus(ctx context.Context, userID int64, date time.Time) (*domain.DailyStatus, error) {
	budget, err := s.GetActiveBudget(ctx, userID)
	if err != nil {
		return nil, err
	}

	spent, err := s.transactionRepo.SumCompletedDebits(ctx, s.dbExecutor, userID, date)
	if err != nil {
		return nil, fmt.Errorf("daily status: %w", err)
	}

	remaining := budget.DailyAllowance.Sub(spent)
	return &domain.DailyStatus{
		Date:      date.UTC().Format("2006-01-02"),
		Allowance: budget.DailyAllowance,
		Spent:     spent,
		Remaining: remaining,
		Currency:  budget.Currency,
		OverSpent: remaining.IsNegative(),
	}, nil
}

// SetBankAccount verifies a payout destination with the provider and makes
// it the user's active account. The provider calls (account resolution and
// recipient creation) happen before the database unit of work that swaps
// the active row, never inside it.
func (s *budgetService) SetBankAccount(ctx context.Context, userID int64, accountNumber, bankCode, accountName string) (*domain.BankAccount, error) {
	if !isAccountNumber(accountNumber) || bankCode == "" {
		return nil, util.ErrValidation
	}

	if _, err := s.userRepo.GetUserByID(ctx, s.dbExecutor, userID); err != nil {
		if errors.Is(err, util.ErrNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, fmt.Errorf("set bank account: failed to load user: %w", err)
	}

	resolved, err := s.transfers.ResolveAccount(ctx, accountNumber, bankCode)
	if err != nil {
		return nil, fmt.Errorf("set bank account: failed to resolve account: %w", err)
	}
	// The provider's registered name wins over whatever the user typed.
	if resolved.AccountName != "" {
		accountName = resolved.AccountName
	}

	recipientCode, err := s.transfers.CreateRecipient(ctx, accountName, accountNumber, bankCode, domain.DefaultCurrency)
	if err != nil {
		return nil, fmt.Errorf("set bank account: failed to create transfer recipient: %w", err)
	}

	txController, txExecutor, err := s.begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("set bank account: %w", err)
	}
	defer s.rollbackTx(txController)

	oldAccount, err := s.bankAccountRepo.GetActiveBankAccount(ctx, txExecutor, userID)
	if err != nil && !errors.Is(err, util.ErrNotFound) {
		return nil, fmt.Errorf("set bank account: failed to load current account: %w", err)
	}

	if err := s.bankAccountRepo.DeactivateBankAccounts(ctx, txExecutor, userID); err != nil {
		return nil, fmt.Errorf("set bank account: %w", err)
	}

	account := domain.NewBankAccount(userID, accountNumber, bankCode, accountName)
	account.RecipientCode = &recipientCode
	account.IsVerified = true
	if err := s.bankAccountRepo.CreateBankAccount(ctx, txExecutor, account); err != nil {
		return nil, fmt.Errorf("set bank account: %w", err)
	}

	var oldValue any
	if oldAccount != nil {
		oldValue = oldAccount
	}
	if err := s.audit(ctx, txExecutor, userID, "bank_account.set", "bank_account", account.ID, oldValue, account); err != nil {
		return nil, fmt.Errorf("set bank account: failed to record audit entry: %w", err)
	}

	if err := s.commitTx(txController); err != nil {
		return nil, fmt.Errorf("set bank account: failed to commit transaction: %w", err)
	}

	s.logger.Info("Bank account set", "user_id", userID, "bank_code", bankCode)
	return account, nil
}

// ListAllowanceCandidates returns users due for the daily allowance transfer.
func (s *budgetService) ListAllowanceCandidates(ctx context.Context) ([]domain.AllowanceCandidate, error) {
	return s.budgetRepo.ListAllowanceCandidates(ctx, s.dbExecutor)
}

// isAccountNumber accepts NUBAN-style ten-digit account numbers.
func isAccountNumber(s string) bool {
	if len(s) != 10 {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// isCurrencyCode accepts ISO 4217 style three-letter codes.
func isCurrencyCode(s string) bool {
	if len(s) != 3 {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
