package provider

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const braintreeAPIVersion = "6"

type BraintreeConfig struct {
	Environment string
	MerchantID  string
	PublicKey   string
	PrivateKey  string
	HTTPTimeout time.Duration

	// BaseURL overrides the gateway host, used by tests.
	BaseURL string
}

type BraintreeClient struct {
	cfg    BraintreeConfig
	client *http.Client
}

func NewBraintreeClient(cfg BraintreeConfig) *BraintreeClient {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		if strings.EqualFold(strings.TrimSpace(cfg.Environment), "production") {
			cfg.BaseURL = "https://api.braintreegateway.com"
		} else {
			cfg.BaseURL = "https://api.sandbox.braintreegateway.com"
		}
	}

	return &BraintreeClient{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

// Transaction is the gateway's view of a nonce-based sale. The decoded
// subset is relayed to the storefront as-is.
type Transaction struct {
	ID                    string `xml:"id" json:"id"`
	Type                  string `xml:"type" json:"type"`
	Status                string `xml:"status" json:"status"`
	Amount                string `xml:"amount" json:"amount"`
	CurrencyISOCode       string `xml:"currency-iso-code" json:"currencyIsoCode"`
	ProcessorResponseCode string `xml:"processor-response-code" json:"processorResponseCode"`
	ProcessorResponseText string `xml:"processor-response-text" json:"processorResponseText"`
}

type BraintreeError struct {
	Message string `xml:"message"`
}

func (e *BraintreeError) Error() string {
	return "braintree: " + e.Message
}

type clientTokenVersion struct {
	Type  string `xml:"type,attr"`
	Value int    `xml:",chardata"`
}

type clientTokenRequest struct {
	XMLName xml.Name           `xml:"client-token"`
	Version clientTokenVersion `xml:"version"`
}

type saleOptions struct {
	SubmitForSettlement bool `xml:"submit-for-settlement"`
}

type saleRequest struct {
	XMLName            xml.Name    `xml:"transaction"`
	Type               string      `xml:"type"`
	Amount             string      `xml:"amount"`
	PaymentMethodNonce string      `xml:"payment-method-nonce"`
	Options            saleOptions `xml:"options"`
}

// GenerateClientToken creates a single-use token the browser SDK needs to
// tokenize a payment method.
func (c *BraintreeClient) GenerateClientToken(ctx context.Context) (string, error) {
	request := clientTokenRequest{
		Version: clientTokenVersion{Type: "integer", Value: 2},
	}

	body, err := c.postXML(ctx, "/client_token", request)
	if err != nil {
		return "", err
	}

	var payload struct {
		Value string `xml:"value"`
	}
	if err := xml.Unmarshal(body, &payload); err != nil {
		return "", err
	}

	token := strings.TrimSpace(payload.Value)
	if token == "" {
		return "", errors.New("braintree client token missing")
	}
	return token, nil
}

// Sale charges a client-supplied payment-method nonce and submits the
// transaction for settlement. Amount is a decimal string in major units, the
// format the gateway expects.
func (c *BraintreeClient) Sale(ctx context.Context, amount, nonce string) (*Transaction, error) {
	amount = strings.TrimSpace(amount)
	nonce = strings.TrimSpace(nonce)
	if amount == "" || nonce == "" {
		return nil, errors.New("amount and payment method nonce are required")
	}

	request := saleRequest{
		Type:               "sale",
		Amount:             amount,
		PaymentMethodNonce: nonce,
		Options:            saleOptions{SubmitForSettlement: true},
	}

	body, err := c.postXML(ctx, "/transactions", request)
	if err != nil {
		return nil, err
	}

	var transaction Transaction
	if err := xml.Unmarshal(body, &transaction); err != nil {
		return nil, err
	}
	return &transaction, nil
}

func (c *BraintreeClient) postXML(ctx context.Context, path string, payload any) ([]byte, error) {
	merchantID := strings.TrimSpace(c.cfg.MerchantID)
	if merchantID == "" {
		return nil, errors.New("braintree merchant id is not configured")
	}
	if strings.TrimSpace(c.cfg.PublicKey) == "" || strings.TrimSpace(c.cfg.PrivateKey) == "" {
		return nil, errors.New("braintree api keys are not configured")
	}

	encoded, err := xml.Marshal(payload)
	if err != nil {
		return nil, err
	}

	requestURL := c.cfg.BaseURL + "/merchants/" + merchantID + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, requestURL, bytes.NewReader(encoded))
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.cfg.PublicKey, c.cfg.PrivateKey)
	req.Header.Set("Content-Type", "application/xml")
	req.Header.Set("Accept", "application/xml")
	req.Header.Set("X-ApiVersion", braintreeAPIVersion)

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
		var failure BraintreeError
		if err := xml.Unmarshal(body, &failure); err == nil && strings.TrimSpace(failure.Message) != "" {
			return nil, &failure
		}
		return nil, fmt.Errorf("braintree request failed: path=%s status=%d body=%s", path, resp.StatusCode, string(body))
	}

	return body, nil
}
