// internal/api/handler/webhook_test.go
package handler

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"dailychow-wallet/internal/domain"
	"dailychow-wallet/internal/service"
	"dailychow-wallet/internal/util"

	"github.com/jmoiron/sqlx/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

// stubWalletService overrides only the webhook entry point; the embedded
// interface panics on anything else, which is what we want in these tests.
type stubWalletService struct {
	service.WalletService
	calls   int
	gotRef  string
	gotStat string
	gotMeta types.JSONText
	result  *domain.Transaction
	err     error
}

func (s *stubWalletService) HandleProviderWebhook(ctx context.Context, providerName, reference, status string, amount decimal.Decimal, metadata types.JSONText) (*domain.Transaction, error) {
	s.calls++
	s.gotRef = reference
	s.gotStat = status
	s.gotMeta = metadata
	return s.result, s.err
}

func sign(secret string, body []byte) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func postWebhook(h *WebhookHandler, body []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/paystack", bytes.NewReader(body))
	if signature != "" {
		req.Header.Set("X-Paystack-Signature", signature)
	}
	rec := httptest.NewRecorder()
	h.HandlePaystack(rec, req)
	return rec
}

func TestHandlePaystack(t *testing.T) {
	secret := "sk_test_secret"
	body := []byte(`{"event":"charge.success","data":{"reference":"topup_1_1700000000_deadbeef","status":"success","amount":500000}}`)
	logger := slog.New(slog.DiscardHandler)

	t.Run("ValidSignatureSettlesCharge", func(t *testing.T) {
		settled := &domain.Transaction{ID: 42, Status: domain.TransactionStatusCompleted}
		stub := &stubWalletService{result: settled}
		h := NewWebhookHandler(stub, nil, secret, logger)

		rec := postWebhook(h, body, sign(secret, body))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 1, stub.calls)
		assert.Equal(t, "topup_1_1700000000_deadbeef", stub.gotRef)
		assert.Equal(t, "success", stub.gotStat)
		assert.JSONEq(t, `{"provider":"paystack","payload":{}}`, string(stub.gotMeta))
	})

	t.Run("NonTerminalEventIsAcknowledgedWithoutSettling", func(t *testing.T) {
		// A dispute may name a pending reference; it must not finalize it,
		// or the later charge.success would hit the replay no-op and the
		// credit would be lost.
		disputeBody := []byte(`{"event":"charge.dispute.create","data":{"reference":"topup_1_1700000000_deadbeef","status":"pending","amount":500000}}`)
		stub := &stubWalletService{}
		h := NewWebhookHandler(stub, nil, secret, logger)

		rec := postWebhook(h, disputeBody, sign(secret, disputeBody))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 0, stub.calls)
	})

	t.Run("ChargeMetadataIsForwardedWithProviderTag", func(t *testing.T) {
		taggedBody := []byte(`{"event":"charge.success","data":{"reference":"topup_1_1700000000_deadbeef","status":"success","amount":500000,"metadata":{"order":"lunch"}}}`)
		stub := &stubWalletService{result: &domain.Transaction{ID: 42, Status: domain.TransactionStatusCompleted}}
		h := NewWebhookHandler(stub, nil, secret, logger)

		rec := postWebhook(h, taggedBody, sign(secret, taggedBody))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"provider":"paystack","payload":{"order":"lunch"}}`, string(stub.gotMeta))
	})

	t.Run("MalformedMetadataIsRejected", func(t *testing.T) {
		badBody := []byte(`{"event":"charge.success","data":{"reference":"topup_1_1700000000_deadbeef","status":"success","amount":500000,"metadata":42}}`)
		stub := &stubWalletService{}
		h := NewWebhookHandler(stub, nil, secret, logger)

		rec := postWebhook(h, badBody, sign(secret, badBody))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, 0, stub.calls)
	})

	t.Run("FailureEventMapsToFailedStatus", func(t *testing.T) {
		failedBody := []byte(`{"event":"charge.failed","data":{"reference":"topup_1_1700000000_deadbeef","status":"failed","amount":500000}}`)
		stub := &stubWalletService{result: &domain.Transaction{ID: 42, Status: domain.TransactionStatusFailed}}
		h := NewWebhookHandler(stub, nil, secret, logger)

		rec := postWebhook(h, failedBody, sign(secret, failedBody))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "failed", stub.gotStat)
	})

	t.Run("BadSignatureIsRejectedBeforeParsing", func(t *testing.T) {
		stub := &stubWalletService{}
		h := NewWebhookHandler(stub, nil, secret, logger)

		rec := postWebhook(h, body, sign("wrong_secret", body))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, 0, stub.calls)
	})

	t.Run("MissingSignatureIsRejected", func(t *testing.T) {
		stub := &stubWalletService{}
		h := NewWebhookHandler(stub, nil, secret, logger)

		rec := postWebhook(h, body, "")

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, 0, stub.calls)
	})

	t.Run("UnknownReferenceIsAcknowledged", func(t *testing.T) {
		stub := &stubWalletService{err: util.ErrNotFound}
		h := NewWebhookHandler(stub, nil, secret, logger)

		rec := postWebhook(h, body, sign(secret, body))

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("SettlementFaultSurfaces", func(t *testing.T) {
		stub := &stubWalletService{err: util.ErrConstraintViolation}
		h := NewWebhookHandler(stub, nil, secret, logger)

		rec := postWebhook(h, body, sign(secret, body))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
