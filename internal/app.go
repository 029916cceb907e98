// internal/app.go
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	router "dailychow-wallet/internal/api"
	"dailychow-wallet/internal/api/handler"
	"dailychow-wallet/internal/cache"
	"dailychow-wallet/internal/config"
	"dailychow-wallet/internal/provider"
	"dailychow-wallet/internal/repository"
	"dailychow-wallet/internal/repository/postgres"
	"dailychow-wallet/internal/scheduler"
	"dailychow-wallet/internal/service"
	"dailychow-wallet/internal/util"
	"dailychow-wallet/pkg/db"
)

// Application holds all the initialized components of the application.
type Application struct {
	Config *config.AppConfig
	Logger *slog.Logger
	DB     *sqlx.DB
	Redis  *redis.Client

	// Repositories
	UserRepository        repository.UserRepository
	WalletRepository      repository.WalletRepository
	TransactionRepository repository.TransactionRepository
	BudgetRepository      repository.BudgetRepository
	BankAccountRepository repository.BankAccountRepository
	AuditRepository       repository.AuditRepository

	// Provider
	Paystack *provider.Client

	// Services
	WalletService service.WalletService
	BudgetService service.BudgetService

	// Scheduler
	Scheduler *scheduler.AllowanceScheduler

	// HTTP API
	HTTPHandler http.Handler
}

// NewApplication creates a new Application instance.
func NewApplication() *Application {
	return &Application{}
}

// Initialize initializes all application components.
func (app *Application) Initialize(ctx context.Context) error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	app.Config = cfg

	// 2. Initialize Logger
	util.InitLogger()
	app.Logger = util.GetLogger()
	app.Logger.Info("Application configuration loaded successfully.")

	// 3. Connect to Database
	database, err := db.NewPostgresDB(app.Config.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = database
	app.Logger.Info("Database connection established.")

	// 4. Optional Redis read cache
	var readCache *cache.Cache
	if app.Config.Redis.Addr != "" {
		app.Redis = redis.NewClient(&redis.Options{
			Addr:     app.Config.Redis.Addr,
			Password: app.Config.Redis.Password,
			DB:       app.Config.Redis.DB,
		})
		if err := app.Redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		readCache = cache.New(app.Redis, 5*time.Minute)
		app.Logger.Info("Redis connection established.")
	} else {
		app.Logger.Info("Redis not configured, read cache disabled.")
	}

	// 5. Initialize Repositories
	app.UserRepository = postgres.NewUserRepository(app.DB)
	app.WalletRepository = postgres.NewWalletRepository(app.DB)
	app.TransactionRepository = postgres.NewTransactionRepository(app.DB)
	app.BudgetRepository = postgres.NewBudgetRepository(app.DB)
	app.BankAccountRepository = postgres.NewBankAccountRepository(app.DB)
	app.AuditRepository = postgres.NewAuditRepository(app.DB)
	app.Logger.Info("Repositories initialized.")

	// 6. Payment provider adapter
	app.Paystack = provider.NewClient(
		app.Config.Paystack.BaseURL,
		app.Config.Paystack.SecretKey,
		app.Config.Paystack.CallbackURL,
		app.Logger,
	)

	// 7. Initialize Services
	// Pass the concrete db.BeginTx, db.CommitTx, db.RollbackTx functions from pkg/db
	app.WalletService = service.NewWalletService(
		app.DB, // This is the DBTxBeginner
		app.DB, // This is the DBExecutor
		app.UserRepository,
		app.WalletRepository,
		app.TransactionRepository,
		app.BudgetRepository,
		app.BankAccountRepository,
		app.AuditRepository,
		app.Paystack,
		app.Paystack,
		db.BeginTx,
		db.CommitTx,
		db.RollbackTx,
		app.Logger,
	)
	app.BudgetService = service.NewBudgetService(
		app.DB,
		app.DB,
		app.UserRepository,
		app.WalletRepository,
		app.BudgetRepository,
		app.BankAccountRepository,
		app.TransactionRepository,
		app.AuditRepository,
		app.Paystack,
		db.BeginTx,
		db.CommitTx,
		db.RollbackTx,
		app.Logger,
	)
	app.Logger.Info("Services initialized.")

	// 8. Daily allowance scheduler
	app.Scheduler = scheduler.NewAllowanceScheduler(
		app.WalletService,
		app.BudgetService,
		app.Paystack.Name(),
		app.Config.Scheduler.Hour,
		app.Logger,
	)

	// 9. Initialize HTTP Handlers and Router
	walletHandler := handler.NewWalletHandler(app.WalletService, readCache, app.Logger)
	budgetHandler := handler.NewBudgetHandler(app.BudgetService, readCache, app.Logger)
	webhookHandler := handler.NewWebhookHandler(app.WalletService, readCache, app.Config.Paystack.SecretKey, app.Logger)
	app.HTTPHandler = router.NewRouter(walletHandler, budgetHandler, webhookHandler, app.Logger)
	app.Logger.Info("HTTP router and handlers initialized.")

	return nil
}

// Shutdown gracefully shuts down application resources.
func (app *Application) Shutdown(ctx context.Context) error {
	app.Logger.Info("Shutting down application...")
	if app.Redis != nil {
		if err := app.Redis.Close(); err != nil {
			app.Logger.Error("Failed to close redis connection", "error", err)
		}
	}
	if app.DB != nil {
		if err := app.DB.Close(); err != nil {
			app.Logger.Error("Failed to close database connection", "error", err)
			return fmt.Errorf("failed to close database connection: %w", err)
		}
		app.Logger.Info("Database connection closed.")
	}
	app.Logger.Info("Application shut down gracefully.")
	return nil
}
