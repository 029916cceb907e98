// internal/api/handler/webhook.go
package handler

import (
	"io"
	"log/slog"
	"net/http"

	"dailychow-wallet/internal/cache"
	"dailychow-wallet/internal/domain"
	"dailychow-wallet/internal/provider"
	"dailychow-wallet/internal/service"
	"dailychow-wallet/internal/util"
)

// maxWebhookBody caps the raw payload read for signature verification.
const maxWebhookBody = 1 << 20

// WebhookHandler receives provider event deliveries.
type WebhookHandler struct {
	service   service.WalletService
	cache     *cache.Cache
	secretKey string
	logger    *slog.Logger
}

// NewWebhookHandler creates a new WebhookHandler. cache may be nil.
func NewWebhookHandler(svc service.WalletService, readCache *cache.Cache, secretKey string, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		service:   svc,
		cache:     readCache,
		secretKey: secretKey,
		logger:    logger,
	}
}

// HandlePaystack applies one Paystack event delivery to the ledger.
// Deliveries are verified against the raw body signature before any parsing.
// Only terminal charge/transfer events reach the ledger; informational
// events are acknowledged and ignored. Duplicates and replays settle to 200
// with the prior transaction, so the provider stops retrying.
// POST /webhooks/paystack
func (h *WebhookHandler) HandlePaystack(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		respondWithError(h.logger, w, util.ErrValidation)
		return
	}

	signature := r.Header.Get("X-Paystack-Signature")
	if !provider.VerifyWebhookSignature(h.secretKey, body, signature) {
		h.logger.Warn("Webhook signature mismatch", "remote_addr", r.RemoteAddr)
		respondWithJSON(h.logger, w, http.StatusUnauthorized, map[string]string{"error": "invalid signature"})
		return
	}

	event, err := provider.ParseWebhookEvent(body)
	if err != nil {
		respondWithError(h.logger, w, util.ErrValidation)
		return
	}

	if !event.IsTerminal() {
		// Disputes, refund progress and other notices may name a pending
		// reference without deciding it. Acknowledge so the provider stops
		// retrying, and leave the transaction alone.
		h.logger.Info("Webhook event ignored", "event", event.Event, "reference", event.Data.Reference)
		w.WriteHeader(http.StatusOK)
		return
	}

	metadata, err := event.SettlementMetadata()
	if err != nil {
		h.logger.Warn("Webhook metadata rejected", "event", event.Event, "error", err)
		respondWithError(h.logger, w, util.ErrValidation)
		return
	}

	status := "failed"
	if event.Succeeded() {
		status = "success"
	}

	transaction, err := h.service.HandleProviderWebhook(
		r.Context(), domain.ProviderPaystack, event.Data.Reference, status, event.AmountMajor(), metadata)
	if err != nil {
		// Unknown references are acknowledged so the provider does not
		// retry an event this ledger never initiated.
		if util.IsError(err, util.ErrNotFound) {
			h.logger.Warn("Webhook for unknown reference acknowledged", "reference", event.Data.Reference)
			w.WriteHeader(http.StatusOK)
			return
		}
		respondWithError(h.logger, w, err)
		return
	}

	invalidateUserReads(r.Context(), h.cache, h.logger, transaction.UserID)

	respondWithJSON(h.logger, w, http.StatusOK, map[string]interface{}{
		"reference": event.Data.Reference,
		"status":    transaction.Status,
	})
}
