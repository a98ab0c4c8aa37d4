package stripeclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCreateTransfer_SendsFormAndIdempotencyKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/transfers" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk_test_123" {
			t.Errorf("unexpected authorization header %q", got)
		}
		if got := r.Header.Get("Idempotency-Key"); got != "transfer-abc" {
			t.Errorf("unexpected idempotency key %q", got)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("failed to parse form: %v", err)
		}
		if r.PostForm.Get("amount") != "8500" || r.PostForm.Get("currency") != "eur" || r.PostForm.Get("destination") != "acct_1" {
			t.Errorf("unexpected form %v", r.PostForm)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"tr_1","amount":8500,"currency":"eur","destination":"acct_1"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk_test_123")
	transfer, err := client.CreateTransfer(context.Background(), "acct_1", 8500, "EUR", "transfer-abc")
	if err != nil {
		t.Fatalf("CreateTransfer returned error: %v", err)
	}
	if transfer.ID != "tr_1" || transfer.Amount != 8500 {
		t.Errorf("unexpected transfer %+v", transfer)
	}
}

func TestCreatePayout_ActsOnBehalfOfConnectedAccount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/payouts" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Stripe-Account"); got != "acct_1" {
			t.Errorf("payout must carry the connected account header, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"po_1","amount":8500,"currency":"eur","status":"pending"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk_test_123")
	payout, err := client.CreatePayout(context.Background(), "acct_1", 8500, "eur", "payout-abc")
	if err != nil {
		t.Fatalf("CreatePayout returned error: %v", err)
	}
	if payout.ID != "po_1" {
		t.Errorf("unexpected payout %+v", payout)
	}
}

func TestGetBalance_ParsesCurrencyBuckets(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"available":[{"amount":1200,"currency":"eur"},{"amount":50,"currency":"usd"}],"pending":[{"amount":300,"currency":"eur"}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk_test_123")
	balance, err := client.GetBalance(context.Background(), "acct_1")
	if err != nil {
		t.Fatalf("GetBalance returned error: %v", err)
	}
	if got := balance.AvailableFor("EUR"); got != 1200 {
		t.Errorf("AvailableFor(EUR) = %d, want 1200", got)
	}
	if got := balance.AvailableFor("gbp"); got != 0 {
		t.Errorf("AvailableFor(gbp) = %d, want 0 for missing bucket", got)
	}
}

func TestDo_DecodesAPIErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"error":{"type":"invalid_request_error","code":"account_invalid","message":"no such destination"}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk_test_123")
	_, err := client.CreateTransfer(context.Background(), "acct_missing", 100, "eur", "transfer-x")
	if err == nil {
		t.Fatal("expected error for non-2xx response")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if apiErr.StatusCode != http.StatusPaymentRequired || apiErr.Code != "account_invalid" {
		t.Errorf("unexpected APIError %+v", apiErr)
	}
	if apiErr.Transient() {
		t.Error("a 402 must not be classified as transient")
	}
}

func TestAPIError_Classification(t *testing.T) {
	tests := []struct {
		name          string
		err           APIError
		transient     bool
		accountNotRdy bool
	}{
		{name: "rate limit", err: APIError{StatusCode: 429, Code: "rate_limit"}, transient: true},
		{name: "server error", err: APIError{StatusCode: 503, Code: "api_error"}, transient: true},
		{name: "onboarding incomplete", err: APIError{StatusCode: 400, Code: "insufficient_capabilities_for_transfer"}, accountNotRdy: true},
		{name: "payouts disabled", err: APIError{StatusCode: 400, Code: "payouts_not_allowed"}, accountNotRdy: true},
		{name: "invalid account", err: APIError{StatusCode: 400, Code: "account_invalid"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Transient(); got != tt.transient {
				t.Errorf("Transient() = %t, want %t", got, tt.transient)
			}
			if got := tt.err.AccountNotReady(); got != tt.accountNotRdy {
				t.Errorf("AccountNotReady() = %t, want %t", got, tt.accountNotRdy)
			}
		})
	}
}

func TestDo_UnparsableErrorBodyIsNotAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream connect error"))
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk_test_123")
	_, err := client.GetBalance(context.Background(), "acct_1")
	if err == nil {
		t.Fatal("expected error for non-2xx response")
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		t.Fatal("unparsable error body must not decode into *APIError")
	}
}
