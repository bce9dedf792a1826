package types

import (
	"errors"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/vibast-solutions/ms-go-checkout/app/pricing"
	"github.com/vibast-solutions/ms-go-checkout/app/provider"
)

type HealthResponse struct {
	Status string `json:"status"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type StripeKeyRequest struct {
	PaymentMethod string
}

func NewStripeKeyRequestFromContext(ctx echo.Context) *StripeKeyRequest {
	return &StripeKeyRequest{
		PaymentMethod: strings.TrimSpace(ctx.QueryParam("paymentMethod")),
	}
}

type StripeKeyResponse struct {
	PublishableKey string `json:"publishableKey"`
}

type CreatePaymentIntentRequest struct {
	Email               string             `json:"email"`
	Items               []pricing.LineItem `json:"items"`
	Currency            string             `json:"currency"`
	RequestThreeDSecure string             `json:"request_three_d_secure"`
	PaymentMethodTypes  []string           `json:"payment_method_types"`
}

func NewCreatePaymentIntentRequestFromContext(ctx echo.Context) (*CreatePaymentIntentRequest, error) {
	var body CreatePaymentIntentRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	body.Email = strings.TrimSpace(body.Email)
	body.Currency = strings.ToLower(strings.TrimSpace(body.Currency))
	body.RequestThreeDSecure = strings.TrimSpace(body.RequestThreeDSecure)

	return &body, nil
}

func (r *CreatePaymentIntentRequest) Validate() error {
	if r.Currency == "" {
		return errors.New("currency is required")
	}
	return nil
}

// FirstPaymentMethodType returns the method type used for credential
// selection, empty when the client did not request any.
func (r *CreatePaymentIntentRequest) FirstPaymentMethodType() string {
	if len(r.PaymentMethodTypes) == 0 {
		return ""
	}
	return strings.TrimSpace(r.PaymentMethodTypes[0])
}

type CreateIntentWithPaymentMethodRequest struct {
	Items               []pricing.LineItem `json:"items"`
	Currency            string             `json:"currency"`
	RequestThreeDSecure string             `json:"request_three_d_secure"`
	Email               string             `json:"email"`
}

func NewCreateIntentWithPaymentMethodRequestFromContext(ctx echo.Context) (*CreateIntentWithPaymentMethodRequest, error) {
	var body CreateIntentWithPaymentMethodRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	body.Email = strings.TrimSpace(body.Email)
	body.Currency = strings.ToLower(strings.TrimSpace(body.Currency))
	body.RequestThreeDSecure = strings.TrimSpace(body.RequestThreeDSecure)

	return &body, nil
}

func (r *CreateIntentWithPaymentMethodRequest) Validate() error {
	if r.Email == "" {
		return errors.New("email is required")
	}
	if r.Currency == "" {
		return errors.New("currency is required")
	}
	return nil
}

type PayWithoutWebhooksRequest struct {
	PaymentMethodID string             `json:"paymentMethodId"`
	PaymentIntentID string             `json:"paymentIntentId"`
	CVCToken        string             `json:"cvcToken"`
	Email           string             `json:"email"`
	Items           []pricing.LineItem `json:"items"`
	Currency        string             `json:"currency"`
	UseStripeSDK    bool               `json:"useStripeSdk"`
}

func NewPayWithoutWebhooksRequestFromContext(ctx echo.Context) (*PayWithoutWebhooksRequest, error) {
	var body PayWithoutWebhooksRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	body.PaymentMethodID = strings.TrimSpace(body.PaymentMethodID)
	body.PaymentIntentID = strings.TrimSpace(body.PaymentIntentID)
	body.CVCToken = strings.TrimSpace(body.CVCToken)
	body.Email = strings.TrimSpace(body.Email)
	body.Currency = strings.ToLower(strings.TrimSpace(body.Currency))

	return &body, nil
}

type PayResponse struct {
	ClientSecret   string `json:"clientSecret,omitempty"`
	RequiresAction bool   `json:"requiresAction,omitempty"`
	Status         string `json:"status,omitempty"`
}

type ClientSecretResponse struct {
	ClientSecret string `json:"clientSecret"`
}

type IntentWithPaymentMethodResponse struct {
	ClientSecret    string `json:"clientSecret"`
	PaymentMethodID string `json:"paymentMethodId"`
}

type CreateSetupIntentRequest struct {
	Email              string   `json:"email"`
	PaymentMethodTypes []string `json:"payment_method_types"`
}

func NewCreateSetupIntentRequestFromContext(ctx echo.Context) (*CreateSetupIntentRequest, error) {
	var body CreateSetupIntentRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	body.Email = strings.TrimSpace(body.Email)

	return &body, nil
}

func (r *CreateSetupIntentRequest) Validate() error {
	if r.Email == "" {
		return errors.New("email is required")
	}
	return nil
}

func (r *CreateSetupIntentRequest) FirstPaymentMethodType() string {
	if len(r.PaymentMethodTypes) == 0 {
		return ""
	}
	return strings.TrimSpace(r.PaymentMethodTypes[0])
}

type SetupIntentResponse struct {
	CustomerID     string `json:"customerId"`
	PublishableKey string `json:"publishableKey"`
	ClientSecret   string `json:"clientSecret"`
}

type ChargeCardOffSessionRequest struct {
	Email string `json:"email"`
}

func NewChargeCardOffSessionRequestFromContext(ctx echo.Context) (*ChargeCardOffSessionRequest, error) {
	var body ChargeCardOffSessionRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	body.Email = strings.TrimSpace(body.Email)

	return &body, nil
}

func (r *ChargeCardOffSessionRequest) Validate() error {
	if r.Email == "" {
		return errors.New("email is required")
	}
	return nil
}

type OffSessionChargeResponse struct {
	Succeeded    bool   `json:"succeeded"`
	ClientSecret string `json:"clientSecret"`
	PublicKey    string `json:"publicKey"`
}

type CardSummary struct {
	Brand string `json:"brand"`
	Last4 string `json:"last4"`
}

type OffSessionChargeErrorResponse struct {
	Error         string       `json:"error"`
	PaymentMethod string       `json:"paymentMethod,omitempty"`
	ClientSecret  string       `json:"clientSecret"`
	PublicKey     string       `json:"publicKey"`
	Amount        int64        `json:"amount,omitempty"`
	Card          *CardSummary `json:"card,omitempty"`
}

type PaymentSheetRequest struct {
	CustomerID string `json:"customerId"`
	Currency   string `json:"currency"`
	Amount     int64  `json:"amount"`
}

func NewPaymentSheetRequestFromContext(ctx echo.Context) (*PaymentSheetRequest, error) {
	var body PaymentSheetRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	body.CustomerID = strings.TrimSpace(body.CustomerID)
	body.Currency = strings.ToLower(strings.TrimSpace(body.Currency))

	return &body, nil
}

func (r *PaymentSheetRequest) Validate() error {
	if r.CustomerID == "" {
		return errors.New("customerId is required")
	}
	if r.Currency == "" {
		return errors.New("currency is required")
	}
	if r.Amount <= 0 {
		return errors.New("amount must be > 0")
	}
	return nil
}

type PaymentSheetResponse struct {
	PaymentIntent string `json:"paymentIntent"`
	EphemeralKey  string `json:"ephemeralKey"`
	Customer      string `json:"customer"`
}

type ClientTokenResponse struct {
	ClientToken string `json:"clientToken,omitempty"`
	Success     bool   `json:"success"`
}

type NonceCheckoutRequest struct {
	PaymentMethodNonce string `json:"payment_method_nonce"`
	Amount             string `json:"amount"`
}

func NewNonceCheckoutRequestFromContext(ctx echo.Context) (*NonceCheckoutRequest, error) {
	var body NonceCheckoutRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	body.PaymentMethodNonce = strings.TrimSpace(body.PaymentMethodNonce)
	body.Amount = strings.TrimSpace(body.Amount)

	return &body, nil
}

func (r *NonceCheckoutRequest) Validate() error {
	if r.PaymentMethodNonce == "" {
		return errors.New("payment_method_nonce is required")
	}
	if r.Amount == "" {
		return errors.New("amount is required")
	}
	return nil
}

type NonceCheckoutResponse struct {
	Success     bool                  `json:"success"`
	Transaction *provider.Transaction `json:"transaction,omitempty"`
}
