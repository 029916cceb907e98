// internal/provider/paystack.go
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"dailychow-wallet/internal/util"

	"github.com/shopspring/decimal"
)

// DefaultBaseURL is the production Paystack API endpoint.
const DefaultBaseURL = "https://api.paystack.co"

// retryDelays is the backoff schedule for transient provider faults. The
// request is attempted once plus once per delay.
var retryDelays = []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}

// ChargeRequest initiates a wallet top-up charge.
type ChargeRequest struct {
	Email       string
	Amount      decimal.Decimal
	Currency    string
	Reference   string
	CallbackURL string
}

// ChargeAuthorization is what the user needs to complete a charge.
type ChargeAuthorization struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

// ChargeStatus is the provider's view of a charge.
type ChargeStatus struct {
	Reference string
	Status    string // "success", "failed", "abandoned", ...
	Amount    decimal.Decimal
}

// ResolvedAccount is the provider's confirmation of a bank account.
type ResolvedAccount struct {
	AccountNumber string `json:"account_number"`
	AccountName   string `json:"account_name"`
}

// Client is a Paystack REST client covering the charge and transfer sides.
// All calls are plain HTTP with retry/backoff on transient faults; callers
// must never hold a database transaction across them.
type Client struct {
	baseURL     string
	secretKey   string
	callbackURL string // default callback for charges that do not set one
	httpClient  *http.Client
	logger      *slog.Logger
	sleep       func(time.Duration) // swapped out in tests
}

// NewClient creates a Paystack client.
func NewClient(baseURL, secretKey, callbackURL string, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:     baseURL,
		secretKey:   secretKey,
		callbackURL: callbackURL,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		logger:      logger,
		sleep:       time.Sleep,
	}
}

// ProviderName is the identifier used to scope references and tag metadata.
const ProviderName = "paystack"

// Name returns the provider identifier used to scope idempotency keys.
func (c *Client) Name() string {
	return ProviderName
}

// envelope is the common Paystack response shape.
type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// InitializeCharge starts a charge and returns the authorization the user
// follows to pay. Amounts are sent in the currency's minor unit.
func (c *Client) InitializeCharge(ctx context.Context, req ChargeRequest) (*ChargeAuthorization, error) {
	payload := map[string]any{
		"email":     req.Email,
		"amount":    minorUnits(req.Amount),
		"currency":  req.Currency,
		"reference": req.Reference,
	}
	if req.CallbackURL == "" {
		req.CallbackURL = c.callbackURL
	}
	if req.CallbackURL != "" {
		payload["callback_url"] = req.CallbackURL
	}

	data, err := c.doRequest(ctx, http.MethodPost, "/transaction/initialize", payload)
	if err != nil {
		return nil, err
	}
	var auth ChargeAuthorization
	if err := json.Unmarshal(data, &auth); err != nil {
		return nil, fmt.Errorf("failed to decode charge authorization: %w", err)
	}
	return &auth, nil
}

// VerifyCharge fetches the provider-side status of a charge. Used by the
// reconciliation path when a webhook never arrives.
func (c *Client) VerifyCharge(ctx context.Context, reference string) (*ChargeStatus, error) {
	data, err := c.doRequest(ctx, http.MethodGet, "/transaction/verify/"+url.PathEscape(reference), nil)
	if err != nil {
		return nil, err
	}
	var raw struct {
		Reference string `json:"reference"`
		Status    string `json:"status"`
		Amount    int64  `json:"amount"` // minor units
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode charge status: %w", err)
	}
	return &ChargeStatus{
		Reference: raw.Reference,
		Status:    raw.Status,
		Amount:    fromMinorUnits(raw.Amount),
	}, nil
}

// ResolveAccount confirms an account number against a bank code and returns
// the registered account name.
func (c *Client) ResolveAccount(ctx context.Context, accountNumber, bankCode string) (*ResolvedAccount, error) {
	path := fmt.Sprintf("/bank/resolve?account_number=%s&bank_code=%s",
		url.QueryEscape(accountNumber), url.QueryEscape(bankCode))
	data, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	var account ResolvedAccount
	if err := json.Unmarshal(data, &account); err != nil {
		return nil, fmt.Errorf("failed to decode resolved account: %w", err)
	}
	return &account, nil
}

// CreateRecipient registers a payout destination and returns the recipient
// code used for transfers.
func (c *Client) CreateRecipient(ctx context.Context, name, accountNumber, bankCode, currency string) (string, error) {
	payload := map[string]any{
		"type":           "nuban",
		"name":           name,
		"account_number": accountNumber,
		"bank_code":      bankCode,
		"currency":       currency,
	}
	data, err := c.doRequest(ctx, http.MethodPost, "/transferrecipient", payload)
	if err != nil {
		return "", err
	}
	var raw struct {
		RecipientCode string `json:"recipient_code"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return "", fmt.Errorf("failed to decode recipient: %w", err)
	}
	return raw.RecipientCode, nil
}

// InitiateTransfer queues a payout to a previously created recipient. The
// terminal outcome arrives later on the transfer webhook.
func (c *Client) InitiateTransfer(ctx context.Context, recipientCode string, amount decimal.Decimal, reference, reason string) error {
	payload := map[string]any{
		"source":    "balance",
		"amount":    minorUnits(amount),
		"recipient": recipientCode,
		"reference": reference,
		"reason":    reason,
	}
	if _, err := c.doRequest(ctx, http.MethodPost, "/transfer", payload); err != nil {
		return err
	}
	return nil
}

// doRequest performs one API call with retry/backoff on transport errors and
// 5xx responses. 4xx responses are not retried; the provider rejected the
// request and a retry cannot change that.
func (c *Client) doRequest(ctx context.Context, method, path string, payload any) (json.RawMessage, error) {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request payload: %w", err)
		}
	}

	var lastErr error
	for attempt := 0; attempt <= len(retryDelays); attempt++ {
		if attempt > 0 {
			c.logger.Warn("Retrying provider request", "method", method, "path", path, "attempt", attempt, "error", lastErr)
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", util.ErrProviderUnavailable, ctx.Err())
			default:
			}
			c.sleep(retryDelays[attempt-1])
		}

		data, retryable, err := c.attempt(ctx, method, path, body)
		if err == nil {
			return data, nil
		}
		if !retryable {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("%w: %v", util.ErrProviderUnavailable, lastErr)
}

func (c *Client) attempt(ctx context.Context, method, path string, body []byte) (json.RawMessage, bool, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, false, fmt.Errorf("failed to build provider request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("provider request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("failed to read provider response: %w", err)
	}

	if resp.StatusCode >= 500 {
		return nil, true, fmt.Errorf("provider returned %d: %s", resp.StatusCode, respBody)
	}

	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return nil, false, fmt.Errorf("failed to decode provider response (%d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode >= 400 || !env.Status {
		// The provider understood the request and said no: a validation
		// problem on our side, not an availability problem on theirs.
		return nil, false, fmt.Errorf("%w: provider rejected request: %s", util.ErrValidation, env.Message)
	}
	return env.Data, false, nil
}

// minorUnits converts a major-unit amount to the provider's integer minor
// units (kobo for NGN).
func minorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).IntPart()
}

func fromMinorUnits(v int64) decimal.Decimal {
	return decimal.NewFromInt(v).Div(decimal.NewFromInt(100))
}
