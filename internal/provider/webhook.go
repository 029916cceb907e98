// internal/provider/webhook.go
package provider

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx/types"
	"github.com/shopspring/decimal"
)

// WebhookEvent is the parsed body of a Paystack webhook delivery. Deliveries
// are at-least-once and unordered; deduplication happens downstream against
// the transaction reference.
type WebhookEvent struct {
	Event string `json:"event"` // e.g. "charge.success", "transfer.failed"
	Data  struct {
		Reference string          `json:"reference"`
		Status    string          `json:"status"`
		Amount    int64           `json:"amount"` // minor units
		Metadata  json.RawMessage `json:"metadata"`
	} `json:"data"`
}

// AmountMajor returns the event amount in major currency units.
func (e *WebhookEvent) AmountMajor() decimal.Decimal {
	return fromMinorUnits(e.Data.Amount)
}

// Succeeded reports whether the event signals a successful terminal outcome.
func (e *WebhookEvent) Succeeded() bool {
	switch e.Event {
	case "charge.success", "transfer.success":
		return true
	}
	return false
}

// IsTerminal reports whether the event decides a charge or transfer outcome.
// Paystack also delivers informational events (disputes, refund progress,
// subscription notices) that name a transaction reference without settling
// it; those must never move a pending row to a terminal state.
func (e *WebhookEvent) IsTerminal() bool {
	switch e.Event {
	case "charge.success", "charge.failed",
		"transfer.success", "transfer.failed", "transfer.reversed":
		return true
	}
	return false
}

// settlementMetadata is the provider-tagged blob stored with a settled
// transaction.
type settlementMetadata struct {
	Provider string          `json:"provider"`
	Payload  json.RawMessage `json:"payload"`
}

// SettlementMetadata validates the event's metadata and wraps it with the
// provider tag for storage on the transaction row. Paystack sends the field
// as an object, an empty string, or null depending on how the charge was
// created; any other shape is rejected here, before it reaches the ledger.
func (e *WebhookEvent) SettlementMetadata() (types.JSONText, error) {
	payload := json.RawMessage(bytes.TrimSpace(e.Data.Metadata))
	switch string(payload) {
	case "", "null", `""`:
		payload = json.RawMessage(`{}`)
	default:
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(payload, &fields); err != nil {
			return nil, fmt.Errorf("paystack metadata is not an object: %w", err)
		}
	}
	tagged, err := json.Marshal(settlementMetadata{Provider: ProviderName, Payload: payload})
	if err != nil {
		return nil, err
	}
	return types.JSONText(tagged), nil
}

// VerifyWebhookSignature checks the X-Paystack-Signature header: a hex
// HMAC-SHA512 of the raw request body keyed with the secret key.
func VerifyWebhookSignature(secretKey string, body []byte, signature string) bool {
	mac := hmac.New(sha512.New, []byte(secretKey))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// ParseWebhookEvent decodes a webhook body.
func ParseWebhookEvent(body []byte) (*WebhookEvent, error) {
	var event WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, err
	}
	return &event, nil
}
