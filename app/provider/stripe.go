package provider

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const stripeAPIVersion = "2020-08-27"

var ErrInvalidSignature = errors.New("invalid stripe signature")

type StripeConfig struct {
	WebhookSecret             string
	SignatureToleranceSeconds int64
	HTTPTimeout               time.Duration

	// BaseURL overrides the live API host, used by tests.
	BaseURL string
}

type StripeClient struct {
	cfg    StripeConfig
	client *http.Client
}

func NewStripeClient(cfg StripeConfig) *StripeClient {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if cfg.SignatureToleranceSeconds <= 0 {
		cfg.SignatureToleranceSeconds = 300
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = "https://api.stripe.com"
	}

	return &StripeClient{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

// StripeError is the decoded error payload of a failed API call. Card errors
// carry the intent and payment method the processor attached to the failure.
type StripeError struct {
	Type        string `json:"type"`
	Code        string `json:"code"`
	DeclineCode string `json:"decline_code"`
	Message     string `json:"message"`

	PaymentIntent *Intent        `json:"payment_intent"`
	PaymentMethod *PaymentMethod `json:"payment_method"`
}

func (e *StripeError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("stripe: %s (%s)", e.Message, e.Code)
	}
	return "stripe: " + e.Message
}

const ErrCodeAuthenticationRequired = "authentication_required"

type IntentParams struct {
	AmountCents        int64
	Currency           string
	CustomerID         string
	PaymentMethodID    string
	PaymentMethodTypes []string

	RequestThreeDSecure     string
	SofortPreferredLanguage string
	CVCToken                string

	Confirm            bool
	ConfirmationMethod string
	UseStripeSDK       bool
	OffSession         bool
}

func (p *IntentParams) encode() url.Values {
	values := url.Values{}
	values.Set("amount", strconv.FormatInt(p.AmountCents, 10))
	values.Set("currency", strings.ToLower(strings.TrimSpace(p.Currency)))

	if p.CustomerID != "" {
		values.Set("customer", p.CustomerID)
	}
	if p.PaymentMethodID != "" {
		values.Set("payment_method", p.PaymentMethodID)
	}
	for i, methodType := range p.PaymentMethodTypes {
		values.Set("payment_method_types["+strconv.Itoa(i)+"]", methodType)
	}
	if p.RequestThreeDSecure != "" {
		values.Set("payment_method_options[card][request_three_d_secure]", p.RequestThreeDSecure)
	}
	if p.SofortPreferredLanguage != "" {
		values.Set("payment_method_options[sofort][preferred_language]", p.SofortPreferredLanguage)
	}
	if p.CVCToken != "" {
		values.Set("payment_method_options[card][cvc_token]", p.CVCToken)
	}
	if p.Confirm {
		values.Set("confirm", "true")
	}
	if p.ConfirmationMethod != "" {
		values.Set("confirmation_method", p.ConfirmationMethod)
	}
	if p.UseStripeSDK {
		values.Set("use_stripe_sdk", "true")
	}
	if p.OffSession {
		values.Set("off_session", "true")
	}

	return values
}

func (c *StripeClient) ListCustomers(ctx context.Context, secretKey, email string) ([]Customer, error) {
	values := url.Values{}
	values.Set("email", strings.TrimSpace(email))

	body, err := c.getForm(ctx, secretKey, "/v1/customers", values)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Data []Customer `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}
	return payload.Data, nil
}

func (c *StripeClient) CreateCustomer(ctx context.Context, secretKey, email string) (*Customer, error) {
	values := url.Values{}
	if email = strings.TrimSpace(email); email != "" {
		values.Set("email", email)
	}

	body, err := c.postForm(ctx, secretKey, "/v1/customers", values, false)
	if err != nil {
		return nil, err
	}

	var customer Customer
	if err := json.Unmarshal(body, &customer); err != nil {
		return nil, err
	}
	return &customer, nil
}

func (c *StripeClient) ListCardPaymentMethods(ctx context.Context, secretKey, customerID string) ([]PaymentMethod, error) {
	values := url.Values{}
	values.Set("customer", customerID)
	values.Set("type", "card")

	body, err := c.getForm(ctx, secretKey, "/v1/payment_methods", values)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Data []PaymentMethod `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}
	return payload.Data, nil
}

func (c *StripeClient) CreateIntent(ctx context.Context, secretKey string, params *IntentParams) (*Intent, error) {
	body, err := c.postForm(ctx, secretKey, "/v1/payment_intents", params.encode(), true)
	if err != nil {
		return nil, err
	}

	var intent Intent
	if err := json.Unmarshal(body, &intent); err != nil {
		return nil, err
	}
	return &intent, nil
}

func (c *StripeClient) ConfirmIntent(ctx context.Context, secretKey, intentID string) (*Intent, error) {
	path := "/v1/payment_intents/" + url.PathEscape(strings.TrimSpace(intentID)) + "/confirm"
	body, err := c.postForm(ctx, secretKey, path, url.Values{}, false)
	if err != nil {
		return nil, err
	}

	var intent Intent
	if err := json.Unmarshal(body, &intent); err != nil {
		return nil, err
	}
	return &intent, nil
}

func (c *StripeClient) CreateSetupIntent(ctx context.Context, secretKey, customerID string, paymentMethodTypes []string) (*SetupIntent, error) {
	values := url.Values{}
	values.Set("customer", customerID)
	for i, methodType := range paymentMethodTypes {
		values.Set("payment_method_types["+strconv.Itoa(i)+"]", methodType)
	}

	body, err := c.postForm(ctx, secretKey, "/v1/setup_intents", values, true)
	if err != nil {
		return nil, err
	}

	var intent SetupIntent
	if err := json.Unmarshal(body, &intent); err != nil {
		return nil, err
	}
	return &intent, nil
}

func (c *StripeClient) CreateEphemeralKey(ctx context.Context, secretKey, customerID string) (*EphemeralKey, error) {
	values := url.Values{}
	values.Set("customer", customerID)

	body, err := c.postForm(ctx, secretKey, "/v1/ephemeral_keys", values, false)
	if err != nil {
		return nil, err
	}

	var key EphemeralKey
	if err := json.Unmarshal(body, &key); err != nil {
		return nil, err
	}
	return &key, nil
}

// ConstructWebhookEvent verifies the signature header against the configured
// webhook secret and only then decodes the payload into an event.
func (c *StripeClient) ConstructWebhookEvent(payload []byte, signature string) (*WebhookEvent, error) {
	if strings.TrimSpace(c.cfg.WebhookSecret) == "" {
		return nil, errors.New("stripe webhook secret is not configured")
	}
	if !verifyStripeSignature(payload, signature, c.cfg.WebhookSecret, c.cfg.SignatureToleranceSeconds) {
		return nil, ErrInvalidSignature
	}

	var event struct {
		ID   string `json:"id"`
		Type string `json:"type"`
		Data struct {
			Object json.RawMessage `json:"object"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, err
	}

	return &WebhookEvent{
		ID:   strings.TrimSpace(event.ID),
		Type: event.Type,
		Data: event.Data.Object,
	}, nil
}

func (c *StripeClient) postForm(ctx context.Context, secretKey, path string, values url.Values, idempotent bool) ([]byte, error) {
	if strings.TrimSpace(secretKey) == "" {
		return nil, errors.New("stripe secret key is not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, strings.NewReader(values.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+secretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Stripe-Version", stripeAPIVersion)
	if idempotent {
		req.Header.Set("Idempotency-Key", uuid.NewString())
	}

	return c.do(req, path)
}

func (c *StripeClient) getForm(ctx context.Context, secretKey, path string, values url.Values) ([]byte, error) {
	if strings.TrimSpace(secretKey) == "" {
		return nil, errors.New("stripe secret key is not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path+"?"+values.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+secretKey)
	req.Header.Set("Stripe-Version", stripeAPIVersion)

	return c.do(req, path)
}

func (c *StripeClient) do(req *http.Request, path string) ([]byte, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		var failure struct {
			Error *StripeError `json:"error"`
		}
		if err := json.Unmarshal(body, &failure); err == nil && failure.Error != nil {
			return nil, failure.Error
		}
		return nil, fmt.Errorf("stripe request failed: path=%s status=%d body=%s", path, resp.StatusCode, string(body))
	}

	return body, nil
}

func verifyStripeSignature(payload []byte, signatureHeader string, webhookSecret string, toleranceSeconds int64) bool {
	signatureHeader = strings.TrimSpace(signatureHeader)
	if signatureHeader == "" || strings.TrimSpace(webhookSecret) == "" {
		return false
	}

	parts := strings.Split(signatureHeader, ",")
	var ts string
	v1 := make([]string, 0, 1)
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if strings.HasPrefix(part, "t=") {
			ts = strings.TrimSpace(strings.TrimPrefix(part, "t="))
		}
		if strings.HasPrefix(part, "v1=") {
			v1 = append(v1, strings.TrimSpace(strings.TrimPrefix(part, "v1=")))
		}
	}
	if ts == "" || len(v1) == 0 {
		return false
	}

	tsUnix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return false
	}
	now := time.Now().Unix()
	if now-tsUnix > toleranceSeconds || tsUnix-now > toleranceSeconds {
		return false
	}

	signedPayload := []byte(ts + "." + string(payload))
	mac := hmac.New(sha256.New, []byte(webhookSecret))
	_, _ = mac.Write(signedPayload)
	expected := mac.Sum(nil)

	for _, sig := range v1 {
		candidate, err := hex.DecodeString(sig)
		if err != nil {
			continue
		}
		if hmac.Equal(candidate, expected) {
			return true
		}
	}

	return false
}
