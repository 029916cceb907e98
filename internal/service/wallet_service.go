// internal/service/wallet_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"dailychow-wallet/internal/domain"
	"dailychow-wallet/internal/provider"
	"dailychow-wallet/internal/repository"
	"dailychow-wallet/internal/util"
	"dailychow-wallet/pkg/db"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
	"github.com/shopspring/decimal"
)

// DebitResult is the outcome of a wallet spend. RemainingAllowance and
// OverAllowance describe the advisory budget check: spending past the daily
// allowance is warned about, never blocked.
type DebitResult struct {
	Transaction        *domain.Transaction `json:"transaction"`
	Wallet             *domain.Wallet      `json:"wallet"`
	RemainingAllowance decimal.Decimal     `json:"remaining_allowance"`
	OverAllowance      bool                `json:"over_allowance"`
}

// TopUpResult is the outcome of initiating a wallet top-up. The transaction
// stays pending until the provider webhook (or a verification poll) settles it.
type TopUpResult struct {
	Transaction *domain.Transaction `json:"transaction"`
	Reference   string              `json:"reference"`
	CheckoutURL string              `json:"checkout_url"`
}

// WalletService defines the interface for wallet-related business logic.
type WalletService interface {
	RegisterUser(ctx context.Context, chatID int64, username string) (*domain.User, error)
	Debit(ctx context.Context, userID int64, amount decimal.Decimal, reason string) (*DebitResult, error)
	TopUp(ctx context.Context, userID int64, amount decimal.Decimal) (*TopUpResult, error)
	VerifyTopUp(ctx context.Context, userID int64, reference string) (*domain.Transaction, error)
	HandleProviderWebhook(ctx context.Context, providerName, reference, status string, amount decimal.Decimal, metadata types.JSONText) (*domain.Transaction, error)
	Transfer(ctx context.Context, userID int64, amount decimal.Decimal, reason, reference string) (*domain.Transaction, error)
	GetBalance(ctx context.Context, userID int64) (*domain.Wallet, error)
	GetTransactionHistory(ctx context.Context, userID int64, limit, offset int) ([]domain.Transaction, int64, error)
	FindTransactionByReference(ctx context.Context, providerName, reference string) (*domain.Transaction, error)
}

// walletService implements the WalletService interface.
type walletService struct {
	dbBeginner      db.DBTxBeginner       // For starting transactions (e.g., *sqlx.DB)
	dbExecutor      repository.DBExecutor // For non-transactional reads (e.g., *sqlx.DB)
	userRepo        repository.UserRepository
	walletRepo      repository.WalletRepository
	transactionRepo repository.TransactionRepository
	budgetRepo      repository.BudgetRepository
	bankAccountRepo repository.BankAccountRepository
	auditRepo       repository.AuditRepository
	charges         ChargeProvider
	transfers       TransferProvider
	beginTx         db.BeginTxFunc
	commitTx        db.CommitTxFunc
	rollbackTx      db.RollbackTxFunc
	logger          *slog.Logger
}

// NewWalletService creates a new instance of WalletService.
func NewWalletService(
	dbBeginner db.DBTxBeginner,
	dbExecutor repository.DBExecutor,
	userRepo repository.UserRepository,
	walletRepo repository.WalletRepository,
	transactionRepo repository.TransactionRepository,
	budgetRepo repository.BudgetRepository,
	bankAccountRepo repository.BankAccountRepository,
	auditRepo repository.AuditRepository,
	charges ChargeProvider,
	transfers TransferProvider,
	beginTx db.BeginTxFunc,
	commitTx db.CommitTxFunc,
	rollbackTx db.RollbackTxFunc,
	logger *slog.Logger,
) WalletService {
	return &walletService{
		dbBeginner:      dbBeginner,
		dbExecutor:      dbExecutor,
		userRepo:        userRepo,
		walletRepo:      walletRepo,
		transactionRepo: transactionRepo,
		budgetRepo:      budgetRepo,
		bankAccountRepo: bankAccountRepo,
		auditRepo:       auditRepo,
		charges:         charges,
		transfers:       transfers,
		beginTx:         beginTx,
		commitTx:        commitTx,
		rollbackTx:      rollbackTx,
		logger:          logger,
	}
}

// begin starts a database transaction and returns it as both a controller
// and an executor for the repositories.
func (s *walletService) begin(ctx context.Context) (db.TxController, repository.DBExecutor, error) {
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

// getOrCreateWalletForUpdate fetches the user's wallet under a row lock,
// creating it lazily on the user's first financial action. The lock is what
// serializes all balance mutations for one user.
func (s *walletService) getOrCreateWalletForUpdate(ctx context.Context, q repository.DBExecutor, userID int64) (*domain.Wallet, error) {
	wallet, err := s.walletRepo.GetWalletByUserIDForUpdate(ctx, q, userID)
	if err == nil {
		return wallet, nil
	}
	if !errors.Is(err, util.ErrNotFound) {
		return nil, err
	}

	if _, err := s.userRepo.GetUserByID(ctx, q, userID); err != nil {
		if errors.Is(err, util.ErrNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}

	wallet = domain.NewWallet(userID, domain.DefaultCurrency)
	if err := s.walletRepo.CreateWallet(ctx, q, wallet); err != nil {
		return nil, err
	}
	if err := s.audit(ctx, q, userID, "wallet.created", "wallet", wallet.ID, nil, wallet); err != nil {
		return nil, err
	}
	return wallet, nil
}

func (s *walletService) audit(ctx context.Context, q repository.DBExecutor, userID int64, action, entityType string, entityID int64, oldValue, newValue any) error {
	entry, err := domain.NewAuditLog(userID, action, entityType, entityID, oldValue, newValue)
	if err != nil {
		return err
	}
	return s.auditRepo.RecordChange(ctx, q, entry)
}

// RegisterUser creates a new user. The wallet is created lazily on the first
// financial action, not here.
func (s *walletService) RegisterUser(ctx context.Context, chatID int64, username string) (*domain.User, error) {
	if chatID <= 0 {
		return nil, util.ErrValidation
	}

	existing, err := s.userRepo.GetUserByChatID(ctx, s.dbExecutor, chatID)
	if err == nil {
		// Registration is idempotent for a known chat handle.
		return existing, nil
	}
	if !errors.Is(err, util.ErrNotFound) {
		return nil, fmt.Errorf("register: failed to check existing user: %w", err)
	}

	txController, txExecutor, err := s.begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	defer s.rollbackTx(txController)

	user := domain.NewUser(chatID, username)
	if err := s.userRepo.CreateUser(ctx, txExecutor, user); err != nil {
		if errors.Is(err, util.ErrDuplicateEntry) {
			// Lost a race with a concurrent registration for the same handle.
			return s.userRepo.GetUserByChatID(ctx, s.dbExecutor, chatID)
		}
		return nil, fmt.Errorf("register: failed to create user: %w", err)
	}

	if err := s.commitTx(txController); err != nil {
		return nil, fmt.Errorf("register: failed to commit transaction: %w", err)
	}

	s.logger.Info("User registered", "user_id", user.ID, "chat_id", chatID)
	return user, nil
}

// Debit spends from the wallet. The remaining daily allowance is checked as
// an advisory limit only; the hard limit is the wallet balance.
func (s *walletService) Debit(ctx context.Context, userID int64, amount decimal.Decimal, reason string) (*DebitResult, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, util.ErrValidation
	}

	remaining, overAllowance, err := s.allowanceAfter(ctx, userID, amount)
	if err != nil {
		return nil, err
	}

	txController, txExecutor, err := s.begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("debit: %w", err)
	}
	defer s.rollbackTx(txController)

	wallet, err := s.getOrCreateWalletForUpdate(ctx, txExecutor, userID)
	if err != nil {
		return nil, fmt.Errorf("debit: %w", err)
	}
	if wallet.Balance.LessThan(amount) {
		return nil, util.ErrInsufficientFunds
	}

	transaction := domain.NewTransaction(userID, domain.TransactionTypeDebit, amount, wallet.Currency, &reason)
	if err := s.transactionRepo.CreateTransaction(ctx, txExecutor, transaction); err != nil {
		return nil, fmt.Errorf("debit: failed to create transaction: %w", err)
	}

	if err := s.walletRepo.UpdateWalletBalance(ctx, txExecutor, wallet.ID, amount.Neg()); err != nil {
		return nil, fmt.Errorf("debit: failed to update wallet balance: %w", err)
	}

	// Local spends settle in the same unit of work: pending -> completed.
	now := time.Now().UTC()
	if err := s.transactionRepo.FinalizeTransaction(ctx, txExecutor, transaction.ID, domain.TransactionStatusCompleted, now, nil); err != nil {
		return nil, fmt.Errorf("debit: failed to finalize transaction: %w", err)
	}
	transaction.Status = domain.TransactionStatusCompleted
	transaction.CompletedAt = &now

	newBalance := wallet.Balance.Sub(amount)
	if err := s.audit(ctx, txExecutor, userID, "wallet.debit", "wallet", wallet.ID,
		map[string]any{"balance": wallet.Balance},
		map[string]any{"balance": newBalance, "transaction_id": transaction.ID}); err != nil {
		return nil, fmt.Errorf("debit: failed to record audit entry: %w", err)
	}

	if err := s.commitTx(txController); err != nil {
		return nil, fmt.Errorf("debit: failed to commit transaction: %w", err)
	}

	if overAllowance {
		s.logger.Warn("Debit exceeded daily allowance", "user_id", userID, "amount", amount, "remaining_allowance", remaining)
	}
	wallet.Balance = newBalance
	return &DebitResult{
		Transaction:        transaction,
		Wallet:             wallet,
		RemainingAllowance: remaining,
		OverAllowance:      overAllowance,
	}, nil
}

// allowanceAfter computes the advisory remaining daily allowance once
// `amount` is spent. Users without an active budget have no advisory limit.
func (s *walletService) allowanceAfter(ctx context.Context, userID int64, amount decimal.Decimal) (decimal.Decimal, bool, error) {
	budget, err := s.budgetRepo.GetActiveBudget(ctx, s.dbExecutor, userID)
	if errors.Is(err, util.ErrNotFound) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("debit: failed to check active budget: %w", err)
	}
	spent, err := s.transactionRepo.SumCompletedDebits(ctx, s.dbExecutor, userID, time.Now().UTC())
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("debit: failed to sum today's spending: %w", err)
	}
	remaining := budget.DailyAllowance.Sub(spent).Sub(amount)
	return remaining, remaining.IsNegative(), nil
}

// TopUp initiates a charge with the payment provider and records a pending
// credit keyed by the provider reference. The balance only moves when the
// provider confirms the charge (webhook or verification poll). A provider
// fault leaves no local record at all.
func (s *walletService) TopUp(ctx context.Context, userID int64, amount decimal.Decimal) (*TopUpResult, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, util.ErrValidation
	}

	user, err := s.userRepo.GetUserByID(ctx, s.dbExecutor, userID)
	if err != nil {
		if errors.Is(err, util.ErrNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, fmt.Errorf("topup: failed to load user: %w", err)
	}

	reference := fmt.Sprintf("topup_%d_%d_%s", userID, time.Now().Unix(), shortID())

	// Network call first, outside any database transaction.
	auth, err := s.charges.InitializeCharge(ctx, provider.ChargeRequest{
		Email:     chargeEmail(user),
		Amount:    amount,
		Currency:  domain.DefaultCurrency,
		Reference: reference,
	})
	if err != nil {
		return nil, fmt.Errorf("topup: failed to initialize charge: %w", err)
	}

	txController, txExecutor, err := s.begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("topup: %w", err)
	}
	defer s.rollbackTx(txController)

	description := "Wallet top-up"
	transaction := domain.NewTransaction(userID, domain.TransactionTypeCredit, amount, domain.DefaultCurrency, &description).
		WithReference(s.charges.Name(), reference)
	if err := s.transactionRepo.CreateTransaction(ctx, txExecutor, transaction); err != nil {
		return nil, fmt.Errorf("topup: failed to record pending transaction: %w", err)
	}

	if err := s.commitTx(txController); err != nil {
		return nil, fmt.Errorf("topup: failed to commit transaction: %w", err)
	}

	s.logger.Info("Top-up initiated", "user_id", userID, "reference", reference, "amount", amount)
	return &TopUpResult{
		Transaction: transaction,
		Reference:   reference,
		CheckoutURL: auth.AuthorizationURL,
	}, nil
}

// VerifyTopUp is the reconciliation path for lost webhooks: it asks the
// provider for the charge status and routes a terminal answer through the
// same entry point as a webhook delivery.
func (s *walletService) VerifyTopUp(ctx context.Context, userID int64, reference string) (*domain.Transaction, error) {
	transaction, err := s.FindTransactionByReference(ctx, s.charges.Name(), reference)
	if err != nil {
		return nil, err
	}
	if transaction.UserID != userID {
		return nil, util.ErrNotFound
	}
	if transaction.IsTerminal() {
		return transaction, nil
	}

	status, err := s.charges.VerifyCharge(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("verify topup: %w", err)
	}

	switch status.Status {
	case "success", "failed":
		return s.HandleProviderWebhook(ctx, s.charges.Name(), reference, status.Status, status.Amount, nil)
	default:
		// Still in flight on the provider side; a pending transaction stays
		// pending until a terminal answer arrives.
		return transaction, nil
	}
}

// HandleProviderWebhook applies one provider delivery to the ledger. The
// FOR UPDATE read of the referenced transaction is the idempotency gate:
// replays observe a terminal row and return it without touching state, and
// concurrent first deliveries serialize on the row lock.
func (s *walletService) HandleProviderWebhook(ctx context.Context, providerName, reference, status string, amount decimal.Decimal, metadata types.JSONText) (*domain.Transaction, error) {
	txController, txExecutor, err := s.begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("webhook: %w", err)
	}
	defer s.rollbackTx(txController)

	transaction, err := s.transactionRepo.GetTransactionByReferenceForUpdate(ctx, txExecutor, providerName, reference)
	if err != nil {
		if errors.Is(err, util.ErrNotFound) {
			s.logger.Warn("Webhook for unknown reference", "provider", providerName, "reference", reference)
		}
		return nil, fmt.Errorf("webhook: %w", err)
	}
	if transaction.IsTerminal() {
		// Duplicate delivery: idempotent no-op returning the prior result.
		s.logger.Info("Webhook replay ignored", "provider", providerName, "reference", reference, "status", transaction.Status)
		return transaction, nil
	}

	succeeded := status == "success"
	now := time.Now().UTC()

	switch transaction.Type {
	case domain.TransactionTypeCredit:
		if succeeded && amount.IsPositive() && !amount.Equal(transaction.Amount) {
			// The provider reports a different amount than we charged. Never
			// credit the reported amount; fail the transaction and surface
			// the discrepancy to operators.
			if err := s.finalize(ctx, txExecutor, transaction, domain.TransactionStatusFailed, now, metadata); err != nil {
				return nil, err
			}
			if err := s.commitTx(txController); err != nil {
				return nil, fmt.Errorf("webhook: failed to commit transaction: %w", err)
			}
			s.logger.Error("Webhook amount mismatch", "reference", reference, "expected", transaction.Amount, "reported", amount)
			return nil, fmt.Errorf("webhook: amount mismatch for %s: %w", reference, util.ErrConstraintViolation)
		}
		if succeeded {
			wallet, err := s.getOrCreateWalletForUpdate(ctx, txExecutor, transaction.UserID)
			if err != nil {
				return nil, fmt.Errorf("webhook: %w", err)
			}
			if err := s.walletRepo.UpdateWalletBalance(ctx, txExecutor, wallet.ID, transaction.Amount); err != nil {
				return nil, fmt.Errorf("webhook: failed to credit wallet: %w", err)
			}
			if err := s.audit(ctx, txExecutor, transaction.UserID, "wallet.credit", "wallet", wallet.ID,
				map[string]any{"balance": wallet.Balance},
				map[string]any{"balance": wallet.Balance.Add(transaction.Amount), "transaction_id": transaction.ID}); err != nil {
				return nil, fmt.Errorf("webhook: failed to record audit entry: %w", err)
			}
			if err := s.finalize(ctx, txExecutor, transaction, domain.TransactionStatusCompleted, now, metadata); err != nil {
				return nil, err
			}
		} else {
			// Failed charge: terminal, no balance effect.
			if err := s.finalize(ctx, txExecutor, transaction, domain.TransactionStatusFailed, now, metadata); err != nil {
				return nil, err
			}
		}

	case domain.TransactionTypeTransfer:
		if succeeded {
			// The debit was applied when the transfer was initiated.
			if err := s.finalize(ctx, txExecutor, transaction, domain.TransactionStatusCompleted, now, metadata); err != nil {
				return nil, err
			}
		} else {
			// Refund the held amount alongside the terminal transition.
			wallet, err := s.getOrCreateWalletForUpdate(ctx, txExecutor, transaction.UserID)
			if err != nil {
				return nil, fmt.Errorf("webhook: %w", err)
			}
			if err := s.walletRepo.UpdateWalletBalance(ctx, txExecutor, wallet.ID, transaction.Amount); err != nil {
				return nil, fmt.Errorf("webhook: failed to refund wallet: %w", err)
			}
			if err := s.audit(ctx, txExecutor, transaction.UserID, "wallet.refund", "wallet", wallet.ID,
				map[string]any{"balance": wallet.Balance},
				map[string]any{"balance": wallet.Balance.Add(transaction.Amount), "transaction_id": transaction.ID}); err != nil {
				return nil, fmt.Errorf("webhook: failed to record audit entry: %w", err)
			}
			if err := s.finalize(ctx, txExecutor, transaction, domain.TransactionStatusFailed, now, metadata); err != nil {
				return nil, err
			}
		}

	default:
		// Local debits never carry provider references.
		return nil, fmt.Errorf("webhook: unexpected transaction type %s for %s: %w", transaction.Type, reference, util.ErrConstraintViolation)
	}

	if err := s.commitTx(txController); err != nil {
		return nil, fmt.Errorf("webhook: failed to commit transaction: %w", err)
	}

	s.logger.Info("Webhook applied", "provider", providerName, "reference", reference, "status", transaction.Status)
	return transaction, nil
}

func (s *walletService) finalize(ctx context.Context, q repository.DBExecutor, transaction *domain.Transaction, status domain.TransactionStatus, at time.Time, metadata types.JSONText) error {
	if err := s.transactionRepo.FinalizeTransaction(ctx, q, transaction.ID, status, at, metadata); err != nil {
		return fmt.Errorf("webhook: failed to finalize transaction %d: %w", transaction.ID, err)
	}
	transaction.Status = status
	transaction.CompletedAt = &at
	if len(metadata) > 0 {
		transaction.Metadata = metadata
	}
	return nil
}

// Transfer moves money from the wallet to the user's active bank account.
// The local debit and the pending transaction commit first; the provider is
// called after the lock is released. If the provider refuses, a second unit
// of work finalizes the transaction failed and refunds the debit, so a
// failed transfer leaves the balance unchanged.
func (s *walletService) Transfer(ctx context.Context, userID int64, amount decimal.Decimal, reason, reference string) (*domain.Transaction, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, util.ErrValidation
	}

	account, err := s.bankAccountRepo.GetActiveBankAccount(ctx, s.dbExecutor, userID)
	if err != nil {
		if errors.Is(err, util.ErrNotFound) {
			return nil, util.ErrBankAccountNotFound
		}
		return nil, fmt.Errorf("transfer: failed to load bank account: %w", err)
	}
	if !account.IsVerified || account.RecipientCode == nil {
		return nil, fmt.Errorf("transfer: bank account is not verified: %w", util.ErrValidation)
	}

	if reference == "" {
		reference = fmt.Sprintf("transfer_%d_%d_%s", userID, time.Now().Unix(), shortID())
	}

	transaction, created, err := s.holdTransfer(ctx, userID, amount, reason, reference)
	if err != nil {
		return nil, err
	}
	if !created {
		// Another caller already initiated this reference; return their
		// transaction untouched.
		return transaction, nil
	}

	if err := s.transfers.InitiateTransfer(ctx, *account.RecipientCode, amount, reference, reason); err != nil {
		if failErr := s.failTransfer(ctx, userID, reference, amount); failErr != nil {
			s.logger.Error("Failed to roll back transfer hold", "reference", reference, "error", failErr)
			return nil, failErr
		}
		return nil, fmt.Errorf("transfer: provider initiation failed: %w", err)
	}

	s.logger.Info("Transfer initiated", "user_id", userID, "reference", reference, "amount", amount)
	return transaction, nil
}

// holdTransfer is the first atomic unit of a transfer: debit the wallet and
// record the pending transaction. A duplicate reference returns the existing
// row with no side effects and created=false.
func (s *walletService) holdTransfer(ctx context.Context, userID int64, amount decimal.Decimal, reason, reference string) (*domain.Transaction, bool, error) {
	txController, txExecutor, err := s.begin(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("transfer: %w", err)
	}
	defer s.rollbackTx(txController)

	wallet, err := s.getOrCreateWalletForUpdate(ctx, txExecutor, userID)
	if err != nil {
		return nil, false, fmt.Errorf("transfer: %w", err)
	}
	if wallet.Balance.LessThan(amount) {
		return nil, false, util.ErrInsufficientFunds
	}

	transaction := domain.NewTransaction(userID, domain.TransactionTypeTransfer, amount, wallet.Currency, &reason).
		WithReference(s.transfers.Name(), reference)
	if err := s.transactionRepo.CreateTransaction(ctx, txExecutor, transaction); err != nil {
		if errors.Is(err, util.ErrDuplicateEntry) {
			// Another caller holds this reference already (e.g. a duplicated
			// scheduler tick). Surface their transaction instead.
			existing, lookupErr := s.FindTransactionByReference(ctx, s.transfers.Name(), reference)
			return existing, false, lookupErr
		}
		return nil, false, fmt.Errorf("transfer: failed to record pending transaction: %w", err)
	}

	if err := s.walletRepo.UpdateWalletBalance(ctx, txExecutor, wallet.ID, amount.Neg()); err != nil {
		return nil, false, fmt.Errorf("transfer: failed to debit wallet: %w", err)
	}
	if err := s.audit(ctx, txExecutor, userID, "wallet.transfer_hold", "wallet", wallet.ID,
		map[string]any{"balance": wallet.Balance},
		map[string]any{"balance": wallet.Balance.Sub(amount), "transaction_id": transaction.ID}); err != nil {
		return nil, false, fmt.Errorf("transfer: failed to record audit entry: %w", err)
	}

	if err := s.commitTx(txController); err != nil {
		return nil, false, fmt.Errorf("transfer: failed to commit transaction: %w", err)
	}
	return transaction, true, nil
}

// failTransfer is the compensating unit of work after the provider refused
// an initiation: finalize failed and refund the held amount.
func (s *walletService) failTransfer(ctx context.Context, userID int64, reference string, amount decimal.Decimal) error {
	txController, txExecutor, err := s.begin(ctx)
	if err != nil {
		return fmt.Errorf("transfer: %w", err)
	}
	defer s.rollbackTx(txController)

	transaction, err := s.transactionRepo.GetTransactionByReferenceForUpdate(ctx, txExecutor, s.transfers.Name(), reference)
	if err != nil {
		return fmt.Errorf("transfer: failed to load held transaction: %w", err)
	}
	if transaction.IsTerminal() {
		// A webhook beat us to the terminal state; nothing to compensate.
		return nil
	}

	wallet, err := s.walletRepo.GetWalletByUserIDForUpdate(ctx, txExecutor, userID)
	if err != nil {
		return fmt.Errorf("transfer: failed to load wallet for refund: %w", err)
	}
	if err := s.walletRepo.UpdateWalletBalance(ctx, txExecutor, wallet.ID, amount); err != nil {
		return fmt.Errorf("transfer: failed to refund wallet: %w", err)
	}
	if err := s.audit(ctx, txExecutor, userID, "wallet.refund", "wallet", wallet.ID,
		map[string]any{"balance": wallet.Balance},
		map[string]any{"balance": wallet.Balance.Add(amount), "transaction_id": transaction.ID}); err != nil {
		return fmt.Errorf("transfer: failed to record audit entry: %w", err)
	}
	if err := s.transactionRepo.FinalizeTransaction(ctx, txExecutor, transaction.ID, domain.TransactionStatusFailed, time.Now().UTC(), nil); err != nil {
		return fmt.Errorf("transfer: failed to finalize held transaction: %w", err)
	}

	if err := s.commitTx(txController); err != nil {
		return fmt.Errorf("transfer: failed to commit refund: %w", err)
	}
	return nil
}

// GetBalance returns the user's wallet.
func (s *walletService) GetBalance(ctx context.Context, userID int64) (*domain.Wallet, error) {
	wallet, err := s.walletRepo.GetWalletByUserID(ctx, s.dbExecutor, userID)
	if err != nil {
		if errors.Is(err, util.ErrNotFound) {
			return nil, util.ErrWalletNotFound
		}
		return nil, fmt.Errorf("get balance: %w", err)
	}
	return wallet, nil
}

// GetTransactionHistory retrieves a paginated list of transactions for a user.
func (s *walletService) GetTransactionHistory(ctx context.Context, userID int64, limit, offset int) ([]domain.Transaction, int64, error) {
	if _, err := s.userRepo.GetUserByID(ctx, s.dbExecutor, userID); err != nil {
		if errors.Is(err, util.ErrNotFound) {
			return nil, 0, util.ErrUserNotFound
		}
		return nil, 0, fmt.Errorf("transaction history: %w", err)
	}
	transactions, totalCount, err := s.transactionRepo.GetTransactionsByUserID(ctx, s.dbExecutor, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("transaction history: %w", err)
	}
	return transactions, totalCount, nil
}

// FindTransactionByReference retrieves a transaction by its provider-scoped
// external reference.
func (s *walletService) FindTransactionByReference(ctx context.Context, providerName, reference string) (*domain.Transaction, error) {
	return s.transactionRepo.GetTransactionByReference(ctx, s.dbExecutor, providerName, reference)
}

func chargeEmail(user *domain.User) string {
	return fmt.Sprintf("user%d@dailychow.app", user.ChatID)
}

func shortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
