/**
 * @description
 * This package provides a client for the payment processor's REST API
 * (Stripe wire format). It encapsulates authenticated form-encoded requests,
 * idempotency keys, and response/error parsing for the three operations the
 * fund-release engine consumes: create transfer, create payout, and read a
 * connected account's balance.
 *
 * @dependencies
 * - context, encoding/json, net/http, net/url, strings, time: Standard Go libraries.
 */
package stripeclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client is a client for the processor API.
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// NewClient creates a new processor API client. Every call carries a bounded
// timeout so a hung processor cannot stall a batch indefinitely.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Transfer is the response body for a created platform-to-connected-account
// transfer.
type Transfer struct {
	ID          string `json:"id"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Destination string `json:"destination"`
	Created     int64  `json:"created"`
}

// Payout is the response body for a created connected-account payout.
type Payout struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
	Created  int64  `json:"created"`
}

// Balance is the response body for a connected account's balance.
type Balance struct {
	Available []BalanceAmount `json:"available"`
	Pending   []BalanceAmount `json:"pending"`
}

// BalanceAmount is one currency bucket within a balance.
type BalanceAmount struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// AvailableFor returns the available balance for a currency, zero if the
// account holds no bucket in that currency.
func (b *Balance) AvailableFor(currency string) int64 {
	want := strings.ToLower(strings.TrimSpace(currency))
	for _, a := range b.Available {
		if strings.ToLower(a.Currency) == want {
			return a.Amount
		}
	}
	return 0
}

// APIError is a decoded processor error response.
type APIError struct {
	StatusCode int    `json:"-"`
	Type       string `json:"type"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("processor api error (status %d, code %q): %s", e.StatusCode, e.Code, e.Message)
}

// Transient reports whether the call may succeed if simply retried on a
// later run (rate limit or processor-side outage).
func (e *APIError) Transient() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// AccountNotReady reports whether the destination account cannot receive
// funds yet, e.g. still mid-onboarding. These are skips, not failures.
func (e *APIError) AccountNotReady() bool {
	switch e.Code {
	case "insufficient_capabilities_for_transfer",
		"account_capabilities_inactive",
		"payouts_not_allowed",
		"account_onboarding_incomplete":
		return true
	}
	return false
}

type errorEnvelope struct {
	Err APIError `json:"error"`
}

// CreateTransfer moves funds from the platform's pooled account into a
// connected sub-account. The idempotency key must be deterministic per
// payment so repeated invocations cannot double-transfer.
func (c *Client) CreateTransfer(ctx context.Context, destinationAccountID string, amount int64, currency, idempotencyKey string) (*Transfer, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amount, 10))
	form.Set("currency", strings.ToLower(currency))
	form.Set("destination", destinationAccountID)

	var transfer Transfer
	if err := c.do(ctx, http.MethodPost, "/v1/transfers", "", form, idempotencyKey, &transfer); err != nil {
		return nil, err
	}
	return &transfer, nil
}

// CreatePayout moves funds from a connected sub-account to the account
// holder's external bank account.
func (c *Client) CreatePayout(ctx context.Context, connectedAccountID string, amount int64, currency, idempotencyKey string) (*Payout, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amount, 10))
	form.Set("currency", strings.ToLower(currency))

	var payout Payout
	if err := c.do(ctx, http.MethodPost, "/v1/payouts", connectedAccountID, form, idempotencyKey, &payout); err != nil {
		return nil, err
	}
	return &payout, nil
}

// GetBalance fetches a connected account's current balance.
func (c *Client) GetBalance(ctx context.Context, connectedAccountID string) (*Balance, error) {
	var balance Balance
	if err := c.do(ctx, http.MethodGet, "/v1/balance", connectedAccountID, nil, "", &balance); err != nil {
		return nil, err
	}
	return &balance, nil
}

// do executes one API request and decodes the response into out. Non-2xx
// responses are returned as *APIError when the error body parses.
func (c *Client) do(ctx context.Context, method, path, onBehalfOfAccount string, form url.Values, idempotencyKey string, out interface{}) error {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create %s %s request: %w", method, path, err)
	}

	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Accept", "application/json")
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}
	if onBehalfOfAccount != "" {
		req.Header.Set("Stripe-Account", onBehalfOfAccount)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute %s %s request: %w", method, path, err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read %s %s response: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var envelope errorEnvelope
		if err := json.Unmarshal(bodyBytes, &envelope); err != nil || envelope.Err.Message == "" {
			log.Printf("level=warn component=stripe_client op=%s status=%d msg=\"non-2xx response (unparsable error body)\"", path, resp.StatusCode)
			return fmt.Errorf("failed to decode error response (status %d)", resp.StatusCode)
		}
		apiErr := envelope.Err
		apiErr.StatusCode = resp.StatusCode
		log.Printf("level=warn component=stripe_client op=%s status=%d code=%q message=%q", path, resp.StatusCode, apiErr.Code, apiErr.Message)
		return &apiErr
	}

	if err := json.Unmarshal(bodyBytes, out); err != nil {
		return fmt.Errorf("failed to decode success response: %w", err)
	}
	return nil
}
