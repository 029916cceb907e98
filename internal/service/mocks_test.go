// internal/service/mocks_test.go
package service

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"dailychow-wallet/internal/domain"
	"dailychow-wallet/internal/provider"
	"dailychow-wallet/internal/repository"
	"dailychow-wallet/pkg/db"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockDBExecutor is a mock implementation of repository.DBExecutor.
type MockDBExecutor struct {
	mock.Mock
}

func (m *MockDBExecutor) GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	argsCalled := m.Called(ctx, dest, query, args)
	return argsCalled.Error(0)
}

func (m *MockDBExecutor) SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	argsCalled := m.Called(ctx, dest, query, args)
	return argsCalled.Error(0)
}

func (m *MockDBExecutor) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	argsCalled := m.Called(ctx, query, args)
	return argsCalled.Get(0).(sql.Result), argsCalled.Error(1)
}

func (m *MockDBExecutor) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	m.Called(ctx, query, args)
	return &sql.Row{}
}

// MockDBBeginner is a mock implementation of db.DBTxBeginner.
type MockDBBeginner struct {
	mock.Mock
}

func (m *MockDBBeginner) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	args := m.Called(ctx, opts)
	return &sqlx.Tx{}, args.Error(1)
}

// MockTxController is a mock implementation of db.TxController. It embeds
// MockDBExecutor so the service can use it as a repository.DBExecutor.
type MockTxController struct {
	mock.Mock
	MockDBExecutor
}

func (m *MockTxController) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockTxController) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

// MockUserRepository is a mock implementation of repository.UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) CreateUser(ctx context.Context, q repository.DBExecutor, user *domain.User) error {
	args := m.Called(ctx, q, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetUserByID(ctx context.Context, q repository.DBExecutor, id int64) (*domain.User, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetUserByChatID(ctx context.Context, q repository.DBExecutor, chatID int64) (*domain.User, error) {
	args := m.Called(ctx, q, chatID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

// MockWalletRepository is a mock implementation of repository.WalletRepository.
type MockWalletRepository struct {
	mock.Mock
}

func (m *MockWalletRepository) CreateWallet(ctx context.Context, q repository.DBExecutor, wallet *domain.Wallet) error {
	args := m.Called(ctx, q, wallet)
	return args.Error(0)
}

func (m *MockWalletRepository) GetWalletByUserID(ctx context.Context, q repository.DBExecutor, userID int64) (*domain.Wallet, error) {
	args := m.Called(ctx, q, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Wallet), args.Error(1)
}

func (m *MockWalletRepository) GetWalletByUserIDForUpdate(ctx context.Context, q repository.DBExecutor, userID int64) (*domain.Wallet, error) {
	args := m.Called(ctx, q, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Wallet), args.Error(1)
}

func (m *MockWalletRepository) UpdateWalletBalance(ctx context.Context, q repository.DBExecutor, walletID int64, delta decimal.Decimal) error {
	args := m.Called(ctx, q, walletID, delta)
	return args.Error(0)
}

// MockTransactionRepository is a mock implementation of repository.TransactionRepository.
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) CreateTransaction(ctx context.Context, q repository.DBExecutor, transaction *domain.Transaction) error {
	args := m.Called(ctx, q, transaction)
	return args.Error(0)
}

func (m *MockTransactionRepository) GetTransactionByReference(ctx context.Context, q repository.DBExecutor, provider, reference string) (*domain.Transaction, error) {
	args := m.Called(ctx, q, provider, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) GetTransactionByReferenceForUpdate(ctx context.Context, q repository.DBExecutor, provider, reference string) (*domain.Transaction, error) {
	args := m.Called(ctx, q, provider, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) FinalizeTransaction(ctx context.Context, q repository.DBExecutor, id int64, status domain.TransactionStatus, completedAt time.Time, metadata types.JSONText) error {
	args := m.Called(ctx, q, id, status, completedAt, metadata)
	return args.Error(0)
}

func (m *MockTransactionRepository) GetTransactionsByUserID(ctx context.Context, q repository.DBExecutor, userID int64, limit, offset int) ([]domain.Transaction, int64, error) {
	args := m.Called(ctx, q, userID, limit, offset)
	return args.Get(0).([]domain.Transaction), args.Get(1).(int64), args.Error(2)
}

func (m *MockTransactionRepository) SumCompletedDebits(ctx context.Context, q repository.DBExecutor, userID int64, day time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, q, userID, day)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// MockBudgetRepository is a mock implementation of repository.BudgetRepository.
type MockBudgetRepository struct {
	mock.Mock
}

func (m *MockBudgetRepository) CreateBudget(ctx context.Context, q repository.DBExecutor, budget *domain.Budget) error {
	args := m.Called(ctx, q, budget)
	return args.Error(0)
}

func (m *MockBudgetRepository) GetActiveBudget(ctx context.Context, q repository.DBExecutor, userID int64) (*domain.Budget, error) {
	args := m.Called(ctx, q, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Budget), args.Error(1)
}

func (m *MockBudgetRepository) DeactivateBudgets(ctx context.Context, q repository.DBExecutor, userID int64) error {
	args := m.Called(ctx, q, userID)
	return args.Error(0)
}

func (m *MockBudgetRepository) ListAllowanceCandidates(ctx context.Context, q repository.DBExecutor) ([]domain.AllowanceCandidate, error) {
	args := m.Called(ctx, q)
	return args.Get(0).([]domain.AllowanceCandidate), args.Error(1)
}

// MockBankAccountRepository is a mock implementation of repository.BankAccountRepository.
type MockBankAccountRepository struct {
	mock.Mock
}

func (m *MockBankAccountRepository) CreateBankAccount(ctx context.Context, q repository.DBExecutor, account *domain.BankAccount) error {
	args := m.Called(ctx, q, account)
	return args.Error(0)
}

func (m *MockBankAccountRepository) GetActiveBankAccount(ctx context.Context, q repository.DBExecutor, userID int64) (*domain.BankAccount, error) {
	args := m.Called(ctx, q, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BankAccount), args.Error(1)
}

func (m *MockBankAccountRepository) DeactivateBankAccounts(ctx context.Context, q repository.DBExecutor, userID int64) error {
	args := m.Called(ctx, q, userID)
	return args.Error(0)
}

// MockAuditRepository is a mock implementation of repository.AuditRepository.
type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) RecordChange(ctx context.Context, q repository.DBExecutor, entry *domain.AuditLog) error {
	args := m.Called(ctx, q, entry)
	return args.Error(0)
}

// MockChargeProvider is a mock implementation of ChargeProvider.
type MockChargeProvider struct {
	mock.Mock
}

func (m *MockChargeProvider) Name() string {
	return "paystack"
}

func (m *MockChargeProvider) InitializeCharge(ctx context.Context, req provider.ChargeRequest) (*provider.ChargeAuthorization, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.ChargeAuthorization), args.Error(1)
}

func (m *MockChargeProvider) VerifyCharge(ctx context.Context, reference string) (*provider.ChargeStatus, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.ChargeStatus), args.Error(1)
}

// MockTransferProvider is a mock implementation of TransferProvider.
type MockTransferProvider struct {
	mock.Mock
}

func (m *MockTransferProvider) Name() string {
	return "paystack"
}

func (m *MockTransferProvider) ResolveAccount(ctx context.Context, accountNumber, bankCode string) (*provider.ResolvedAccount, error) {
	args := m.Called(ctx, accountNumber, bankCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.ResolvedAccount), args.Error(1)
}

func (m *MockTransferProvider) CreateRecipient(ctx context.Context, name, accountNumber, bankCode, currency string) (string, error) {
	args := m.Called(ctx, name, accountNumber, bankCode, currency)
	return args.String(0), args.Error(1)
}

func (m *MockTransferProvider) InitiateTransfer(ctx context.Context, recipientCode string, amount decimal.Decimal, reference, reason string) error {
	args := m.Called(ctx, recipientCode, amount, reference, reason)
	return args.Error(0)
}

// walletServiceFixture bundles all mocks behind one constructed service so
// each subtest can set expectations on fresh instances.
type walletServiceFixture struct {
	userRepo        *MockUserRepository
	walletRepo      *MockWalletRepository
	transactionRepo *MockTransactionRepository
	budgetRepo      *MockBudgetRepository
	bankAccountRepo *MockBankAccountRepository
	auditRepo       *MockAuditRepository
	charges         *MockChargeProvider
	transfers       *MockTransferProvider
	dbBeginner      *MockDBBeginner
	dbExecutor      *MockDBExecutor
	txController    *MockTxController
	service         WalletService
}

func newWalletServiceFixture() *walletServiceFixture {
	f := &walletServiceFixture{
		userRepo:        new(MockUserRepository),
		walletRepo:      new(MockWalletRepository),
		transactionRepo: new(MockTransactionRepository),
		budgetRepo:      new(MockBudgetRepository),
		bankAccountRepo: new(MockBankAccountRepository),
		auditRepo:       new(MockAuditRepository),
		charges:         new(MockChargeProvider),
		transfers:       new(MockTransferProvider),
		dbBeginner:      new(MockDBBeginner),
		dbExecutor:      new(MockDBExecutor),
		txController:    new(MockTxController),
	}
	f.service = NewWalletService(
		f.dbBeginner,
		f.dbExecutor,
		f.userRepo,
		f.walletRepo,
		f.transactionRepo,
		f.budgetRepo,
		f.bankAccountRepo,
		f.auditRepo,
		f.charges,
		f.transfers,
		func(ctx context.Context, dbConn db.DBTxBeginner) (db.TxController, error) {
			return f.txController, nil
		},
		func(tx db.TxController) error {
			return f.txController.Commit()
		},
		func(tx db.TxController) {
			_ = f.txController.Rollback()
		},
		slog.New(slog.DiscardHandler),
	)
	return f
}

// budgetServiceFixture mirrors walletServiceFixture for BudgetService tests.
type budgetServiceFixture struct {
	userRepo        *MockUserRepository
	walletRepo      *MockWalletRepository
	budgetRepo      *MockBudgetRepository
	bankAccountRepo *MockBankAccountRepository
	transactionRepo *MockTransactionRepository
	auditRepo       *MockAuditRepository
	transfers       *MockTransferProvider
	dbBeginner      *MockDBBeginner
	dbExecutor      *MockDBExecutor
	txController    *MockTxController
	service         BudgetService
}

func newBudgetServiceFixture() *budgetServiceFixture {
	f := &budgetServiceFixture{
		userRepo:        new(MockUserRepository),
		walletRepo:      new(MockWalletRepository),
		budgetRepo:      new(MockBudgetRepository),
		bankAccountRepo: new(MockBankAccountRepository),
		transactionRepo: new(MockTransactionRepository),
		auditRepo:       new(MockAuditRepository),
		transfers:       new(MockTransferProvider),
		dbBeginner:      new(MockDBBeginner),
		dbExecutor:      new(MockDBExecutor),
		txController:    new(MockTxController),
	}
	f.service = NewBudgetService(
		f.dbBeginner,
		f.dbExecutor,
		f.userRepo,
		f.walletRepo,
		f.budgetRepo,
		f.bankAccountRepo,
		f.transactionRepo,
		f.auditRepo,
		f.transfers,
		func(ctx context.Context, dbConn db.DBTxBeginner) (db.TxController, error) {
			return f.txController, nil
		},
		func(tx db.TxController) error {
			return f.txController.Commit()
		},
		func(tx db.TxController) {
			_ = f.txController.Rollback()
		},
		slog.New(slog.DiscardHandler),
	)
	return f
}
