package provider

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func signPayload(payload []byte, secret string, ts int64) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write([]byte(fmt.Sprintf("%d.%s", ts, string(payload))))
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func TestVerifyStripeSignature(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)
	secret := "whsec_test"
	header := signPayload(payload, secret, time.Now().Unix())

	if !verifyStripeSignature(payload, header, secret, 300) {
		t.Fatal("expected signature to validate")
	}
	if verifyStripeSignature(payload, header, "wrong-secret", 300) {
		t.Fatal("expected signature with wrong secret to fail")
	}
	if verifyStripeSignature([]byte(`{"id":"evt_2"}`), header, secret, 300) {
		t.Fatal("expected signature over different payload to fail")
	}
}

func TestVerifyStripeSignatureRejectsStaleTimestamp(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)
	secret := "whsec_test"
	header := signPayload(payload, secret, time.Now().Add(-20*time.Minute).Unix())

	if verifyStripeSignature(payload, header, secret, 300) {
		t.Fatal("expected stale signature to fail")
	}
}

func TestConstructWebhookEvent(t *testing.T) {
	secret := "whsec_test"
	client := NewStripeClient(StripeConfig{WebhookSecret: secret})

	payload := []byte(`{"id":"evt_1","type":"payment_intent.succeeded","data":{"object":{"id":"pi_1","status":"succeeded"}}}`)
	event, err := client.ConstructWebhookEvent(payload, signPayload(payload, secret, time.Now().Unix()))
	if err != nil {
		t.Fatalf("expected event, got error: %v", err)
	}
	if event.Type != "payment_intent.succeeded" || event.ID != "evt_1" {
		t.Fatalf("unexpected event: %+v", event)
	}
	if len(event.Data) == 0 {
		t.Fatal("expected event data object")
	}

	_, err = client.ConstructWebhookEvent(payload, "t=0,v1=deadbeef")
	if !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestIntentParamsEncode(t *testing.T) {
	params := &IntentParams{
		AmountCents:        1000,
		Currency:           "USD",
		PaymentMethodID:    "pm_1",
		PaymentMethodTypes: []string{"card", "sofort"},
		Confirm:            true,
		ConfirmationMethod: "manual",
		UseStripeSDK:       true,
		CVCToken:           "cvctok_1",
	}

	values := params.encode()
	if values.Get("amount") != "1000" {
		t.Fatalf("unexpected amount: %s", values.Get("amount"))
	}
	if values.Get("currency") != "usd" {
		t.Fatalf("expected lowercase currency, got %s", values.Get("currency"))
	}
	if values.Get("payment_method") != "pm_1" {
		t.Fatalf("unexpected payment_method: %s", values.Get("payment_method"))
	}
	if values.Get("payment_method_types[0]") != "card" || values.Get("payment_method_types[1]") != "sofort" {
		t.Fatalf("unexpected payment_method_types: %v", values)
	}
	if values.Get("confirm") != "true" || values.Get("confirmation_method") != "manual" {
		t.Fatalf("unexpected confirm params: %v", values)
	}
	if values.Get("payment_method_options[card][cvc_token]") != "cvctok_1" {
		t.Fatalf("unexpected cvc token param: %v", values)
	}
	if values.Get("off_session") != "" {
		t.Fatal("off_session must be omitted when unset")
	}
}

func TestCreateIntentDecodesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/payment_intents" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Idempotency-Key") == "" {
			t.Fatal("expected idempotency key header")
		}
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"error":{"type":"card_error","code":"authentication_required","message":"auth needed","payment_intent":{"id":"pi_1","client_secret":"pi_1_secret"},"payment_method":{"id":"pm_1","card":{"brand":"visa","last4":"3220"}}}}`))
	}))
	defer server.Close()

	client := NewStripeClient(StripeConfig{BaseURL: server.URL})
	_, err := client.CreateIntent(context.Background(), "sk_test", &IntentParams{AmountCents: 1000, Currency: "usd"})

	var stripeErr *StripeError
	if !errors.As(err, &stripeErr) {
		t.Fatalf("expected *StripeError, got %v", err)
	}
	if stripeErr.Code != ErrCodeAuthenticationRequired {
		t.Fatalf("unexpected error code: %s", stripeErr.Code)
	}
	if stripeErr.PaymentIntent == nil || stripeErr.PaymentIntent.ClientSecret != "pi_1_secret" {
		t.Fatalf("expected embedded payment intent, got %+v", stripeErr.PaymentIntent)
	}
	if stripeErr.PaymentMethod == nil || stripeErr.PaymentMethod.Card == nil || stripeErr.PaymentMethod.Card.Last4 != "3220" {
		t.Fatalf("expected embedded payment method card, got %+v", stripeErr.PaymentMethod)
	}
}

func TestListCustomersSendsEmailFilter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/customers" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("email") != "jenny@example.com" {
			t.Fatalf("unexpected email filter: %s", r.URL.Query().Get("email"))
		}
		if r.Header.Get("Authorization") != "Bearer sk_test" {
			t.Fatalf("unexpected authorization header: %s", r.Header.Get("Authorization"))
		}
		_, _ = w.Write([]byte(`{"data":[{"id":"cus_1","email":"jenny@example.com"}]}`))
	}))
	defer server.Close()

	client := NewStripeClient(StripeConfig{BaseURL: server.URL})
	customers, err := client.ListCustomers(context.Background(), "sk_test", "jenny@example.com")
	if err != nil {
		t.Fatalf("expected customers, got error: %v", err)
	}
	if len(customers) != 1 || customers[0].ID != "cus_1" {
		t.Fatalf("unexpected customers: %+v", customers)
	}
}

func TestConfirmIntentPostsToConfirmPath(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/payment_intents/pi_1/confirm" {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"id":"pi_1","client_secret":"pi_1_secret","status":"succeeded"}`))
	}))
	defer server.Close()

	client := NewStripeClient(StripeConfig{BaseURL: server.URL})
	intent, err := client.ConfirmIntent(context.Background(), "sk_test", "pi_1")
	if err != nil {
		t.Fatalf("expected intent, got error: %v", err)
	}
	if intent.Status != IntentStatusSucceeded {
		t.Fatalf("unexpected status: %s", intent.Status)
	}
}

func TestStripeCallsRequireSecretKey(t *testing.T) {
	client := NewStripeClient(StripeConfig{})
	if _, err := client.CreateIntent(context.Background(), "", &IntentParams{}); err == nil {
		t.Fatal("expected error for missing secret key")
	}
	if _, err := client.ListCustomers(context.Background(), "  ", "a@b.c"); err == nil {
		t.Fatal("expected error for blank secret key")
	}
}
