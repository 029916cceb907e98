// internal/api/handler/wallet.go
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"dailychow-wallet/internal/api/types"
	"dailychow-wallet/internal/cache"
	"dailychow-wallet/internal/domain"
	"dailychow-wallet/internal/service"
	"dailychow-wallet/internal/util"
)

// WalletHandler handles HTTP requests related to wallet operations.
type WalletHandler struct {
	service service.WalletService
	cache   *cache.Cache
	logger  *slog.Logger
}

// NewWalletHandler creates a new WalletHandler. cache may be nil.
func NewWalletHandler(svc service.WalletService, readCache *cache.Cache, logger *slog.Logger) *WalletHandler {
	return &WalletHandler{
		service: svc,
		cache:   readCache,
		logger:  logger,
	}
}

func userIDParam(r *http.Request) (int64, error) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil || userID <= 0 {
		return 0, util.ErrValidation
	}
	return userID, nil
}

// RegisterUserRequest represents the request body for user registration.
type RegisterUserRequest struct {
	ChatID   int64  `json:"chat_id"`
	Username string `json:"username"`
}

// RegisterUser handles user registration.
// POST /users
func (h *WalletHandler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var req RegisterUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(h.logger, w, util.ErrValidation)
		return
	}
	if req.ChatID <= 0 {
		respondWithError(h.logger, w, util.ErrValidation)
		return
	}

	user, err := h.service.RegisterUser(r.Context(), req.ChatID, req.Username)
	if err != nil {
		respondWithError(h.logger, w, err)
		return
	}

	respondWithJSON(h.logger, w, http.StatusCreated, user)
}

// SpendRequest represents the request body for a wallet debit.
type SpendRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Reason string          `json:"reason"`
}

// Spend handles a wallet debit request.
// POST /users/{userID}/spend
func (h *WalletHandler) Spend(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDParam(r)
	if err != nil {
		respondWithError(h.logger, w, err)
		return
	}

	var req SpendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(h.logger, w, util.ErrValidation)
		return
	}
	if !req.Amount.IsPositive() {
		respondWithError(h.logger, w, util.ErrValidation)
		return
	}

	result, err := h.service.Debit(r.Context(), userID, req.Amount, req.Reason)
	if err != nil {
		respondWithError(h.logger, w, err)
		return
	}

	invalidateUserReads(r.Context(), h.cache, h.logger, userID)

	respondWithJSON(h.logger, w, http.StatusOK, result)
}

// TopUpRequest represents the request body for a wallet top-up.
type TopUpRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// TopUp initiates a provider charge to fund the wallet.
// POST /users/{userID}/topup
func (h *WalletHandler) TopUp(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDParam(r)
	if err != nil {
		respondWithError(h.logger, w, err)
		return
	}

	var req TopUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(h.logger, w, util.ErrValidation)
		return
	}
	if !req.Amount.IsPositive() {
		respondWithError(h.logger, w, util.ErrValidation)
		return
	}

	result, err := h.service.TopUp(r.Context(), userID, req.Amount)
	if err != nil {
		respondWithError(h.logger, w, err)
		return
	}

	respondWithJSON(h.logger, w, http.StatusOK, result)
}

// VerifyTopUp polls the provider for a pending top-up and settles it.
// GET /users/{userID}/topup/{reference}
func (h *WalletHandler) VerifyTopUp(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDParam(r)
	if err != nil {
		respondWithError(h.logger, w, err)
		return
	}
	reference := chi.URLParam(r, "reference")
	if reference == "" {
		respondWithError(h.logger, w, util.ErrValidation)
		return
	}

	transaction, err := h.service.VerifyTopUp(r.Context(), userID, reference)
	if err != nil {
		respondWithError(h.logger, w, err)
		return
	}

	invalidateUserReads(r.Context(), h.cache, h.logger, userID)

	respondWithJSON(h.logger, w, http.StatusOK, transaction)
}

// GetBalance handles the get wallet balance request.
// GET /users/{userID}/balance
func (h *WalletHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDParam(r)
	if err != nil {
		respondWithError(h.logger, w, err)
		return
	}

	wallet, err := h.service.GetBalance(r.Context(), userID)
	if err != nil {
		respondWithError(h.logger, w, err)
		return
	}

	respondWithJSON(h.logger, w, http.StatusOK, map[string]interface{}{
		"user_id":  wallet.UserID,
		"balance":  wallet.Balance,
		"currency": wallet.Currency,
	})
}

// GetTransactionHistory handles the paginated transaction history request.
// GET /users/{userID}/transactions
func (h *WalletHandler) GetTransactionHistory(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDParam(r)
	if err != nil {
		respondWithError(h.logger, w, err)
		return
	}

	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 || limit > 100 {
		limit = 10
	}
	offset, err := strconv.Atoi(r.URL.Query().Get("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}

	key := cache.HistoryKey(userID, limit, offset)
	var cached types.PaginatedResponse[domain.Transaction]
	if hit, err := h.cache.Get(r.Context(), key, &cached); err != nil {
		h.logger.Warn("Cache read failed", "key", key, "error", err)
	} else if hit {
		respondWithJSON(h.logger, w, http.StatusOK, cached)
		return
	}

	transactions, totalCount, err := h.service.GetTransactionHistory(r.Context(), userID, limit, offset)
	if err != nil {
		respondWithError(h.logger, w, err)
		return
	}

	response := types.PaginatedResponse[domain.Transaction]{
		Data:       transactions,
		Limit:      limit,
		Offset:     offset,
		TotalCount: totalCount,
	}
	if err := h.cache.Set(r.Context(), key, response); err != nil {
		h.logger.Warn("Cache write failed", "key", key, "error", err)
	}

	respondWithJSON(h.logger, w, http.StatusOK, response)
}

// invalidateUserReads drops cached pages that a balance mutation made stale:
// every history page the user has cached, plus today's budget status. Shared
// with the webhook handler, which settles balances out of band.
func invalidateUserReads(ctx context.Context, c *cache.Cache, logger *slog.Logger, userID int64) {
	if err := c.DeleteByPrefix(ctx, cache.HistoryPrefix(userID)); err != nil {
		logger.Warn("Cache invalidation failed", "user_id", userID, "error", err)
	}
	if err := c.Delete(ctx, cache.DailyStatusKeyNow(userID)); err != nil {
		logger.Warn("Cache invalidation failed", "user_id", userID, "error", err)
	}
}
