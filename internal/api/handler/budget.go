// internal/api/handler/budget.go
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"dailychow-wallet/internal/cache"
	"dailychow-wallet/internal/domain"
	"dailychow-wallet/internal/service"
	"dailychow-wallet/internal/util"
)

// BudgetHandler handles HTTP requests for budgets and bank accounts.
type BudgetHandler struct {
	service service.BudgetService
	cache   *cache.Cache
	logger  *slog.Logger
}

// NewBudgetHandler creates a new BudgetHandler. cache may be nil.
func NewBudgetHandler(svc service.BudgetService, readCache *cache.Cache, logger *slog.Logger) *BudgetHandler {
	return &BudgetHandler{
		service: svc,
		cache:   readCache,
		logger:  logger,
	}
}

// SetBudgetRequest represents the request body for setting a monthly budget.
type SetBudgetRequest struct {
	MonthlyAmount decimal.Decimal `json:"monthly_amount"`
	Currency      string          `json:"currency"`
}

// SetBudget replaces the user's active monthly budget.
// POST /users/{userID}/budget
func (h *BudgetHandler) SetBudget(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDParam(r)
	if err != nil {
		respondWithError(h.logger, w, err)
		return
	}

	var req SetBudgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(h.logger, w, util.ErrValidation)
		return
	}

	budget, err := h.service.SetBudget(r.Context(), userID, req.MonthlyAmount, req.Currency)
	if err != nil {
		respondWithError(h.logger, w, err)
		return
	}

	if err := h.cache.Delete(r.Context(), cache.DailyStatusKeyNow(userID)); err != nil {
		h.logger.Warn("Cache invalidation failed", "user_id", userID, "error", err)
	}

	respondWithJSON(h.logger, w, http.StatusOK, budget)
}

// GetBudget returns the user's active budget.
// GET /users/{userID}/budget
func (h *BudgetHandler) GetBudget(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDParam(r)
	if err != nil {
		respondWithError(h.logger, w, err)
		return
	}

	budget, err := h.service.GetActiveBudget(r.Context(), userID)
	if err != nil {
		respondWithError(h.logger, w, err)
		return
	}

	respondWithJSON(h.logger, w, http.StatusOK, budget)
}

// GetDailyStatus reports allowance, spend and remainder for one day.
// GET /users/{userID}/budget/status?date=YYYY-MM-DD
func (h *BudgetHandler) GetDailyStatus(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDParam(r)
	if err != nil {
		respondWithError(h.logger, w, err)
		return
	}

	date := time.Now().UTC()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			respondWithError(h.logger, w, util.ErrValidation)
			return
		}
		date = parsed
	}

	key := cache.DailyStatusKey(userID, date)
	var cached domain.DailyStatus
	if hit, err := h.cache.Get(r.Context(), key, &cached); err != nil {
		h.logger.Warn("Cache read failed", "key", key, "error", err)
	} else if hit {
		respondWithJSON(h.logger, w, http.StatusOK, cached)
		return
	}

	status, err := h.service.GetDailyStatus(r.Context(), userID, date)
	if err != nil {
		respondWithError(h.logger, w, err)
		return
	}

	if err := h.cache.Set(r.Context(), key, status); err != nil {
		h.logger.Warn("Cache write failed", "key", key, "error", err)
	}

	respondWithJSON(h.logger, w, http.StatusOK, status)
}

// SetBankAccountRequest represents the request body for setting a payout account.
type SetBankAccountRequest struct {
	AccountNumber string `json:"account_number"`
	BankCode      string `json:"bank_code"`
	AccountName   string `json:"account_name"`
}

// SetBankAccount verifies and activates a payout destination.
// POST /users/{userID}/bank-account
func (h *BudgetHandler) SetBankAccount(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDParam(r)
	if err != nil {
		respondWithError(h.logger, w, err)
		return
	}

	var req SetBankAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(h.logger, w, util.ErrValidation)
		return
	}

	account, err := h.service.SetBankAccount(r.Context(), userID, req.AccountNumber, req.BankCode, req.AccountName)
	if err != nil {
		respondWithError(h.logger, w, err)
		return
	}

	respondWithJSON(h.logger, w, http.StatusOK, account)
}
