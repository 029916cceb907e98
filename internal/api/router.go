// internal/api/router.go
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"dailychow-wallet/internal/api/handler"
)

// NewRouter sets up and returns a new HTTP router.
func NewRouter(walletHandler *handler.WalletHandler, budgetHandler *handler.BudgetHandler, webhookHandler *handler.WebhookHandler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middlewares
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(handler.DefaultTimeout))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Post("/users", walletHandler.RegisterUser)

	r.Route("/users/{userID}", func(r chi.Router) {
		r.Post("/budget", budgetHandler.SetBudget)
		r.Get("/budget", budgetHandler.GetBudget)
		r.Get("/budget/status", budgetHandler.GetDailyStatus)
		r.Post("/bank-account", budgetHandler.SetBankAccount)

		r.Post("/spend", walletHandler.Spend)
		r.Post("/topup", walletHandler.TopUp)
		r.Get("/topup/{reference}", walletHandler.VerifyTopUp)
		r.Get("/balance", walletHandler.GetBalance)
		r.Get("/transactions", walletHandler.GetTransactionHistory)
	})

	// Provider callbacks are unauthenticated; the HMAC signature on the raw
	// body is the trust boundary.
	r.Post("/webhooks/paystack", webhookHandler.HandlePaystack)

	return r
}
