//go:build e2e
// +build e2e

package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"
	"time"
)

const defaultCheckoutHTTPBase = "http://localhost:4242"

type httpClient struct {
	baseURL string
	client  *http.Client
}

func newHTTPClient(baseURL string) *httpClient {
	return &httpClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *httpClient) doJSON(t *testing.T, method, path string, body any) (*http.Response, []byte) {
	t.Helper()

	var reqBody *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("json marshal failed: %v", err)
		}
		reqBody = bytes.NewReader(data)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reqBody)
	if err != nil {
		t.Fatalf("new request failed: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Request-ID", fmt.Sprintf("e2e-http-%d", time.Now().UnixNano()))

	resp, err := c.client.Do(req)
	if err != nil {
		t.Fatalf("http request failed: %v", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response failed: %v", err)
	}

	return resp, bodyBytes
}

func waitForHTTP(baseURL string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	client := &http.Client{Timeout: 2 * time.Second}
	for time.Now().Before(deadline) {
		req, _ := http.NewRequest(http.MethodGet, baseURL+"/health", nil)
		req.Header.Set("X-Request-ID", fmt.Sprintf("wait-http-%d", time.Now().UnixNano()))
		resp, err := client.Do(req)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(500 * time.Millisecond)
	}
	return fmt.Errorf("http service not ready at %s", baseURL)
}

func TestCheckoutE2E(t *testing.T) {
	httpBase := os.Getenv("CHECKOUT_HTTP_URL")
	if httpBase == "" {
		httpBase = defaultCheckoutHTTPBase
	}

	if err := waitForHTTP(httpBase, 30*time.Second); err != nil {
		t.Fatalf("http not ready: %v", err)
	}

	client := newHTTPClient(httpBase)

	t.Run("Health", func(t *testing.T) {
		resp, body := client.doJSON(t, http.MethodGet, "/health", nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		var payload map[string]any
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Fatalf("invalid json: %v", err)
		}
		if payload["status"] != "ok" {
			t.Fatalf("unexpected health payload: %s", body)
		}
	})

	t.Run("StripeKeyAlwaysAnswers", func(t *testing.T) {
		for _, method := range []string{"", "card", "grabpay", "oxxo"} {
			path := "/stripe-key"
			if method != "" {
				path += "?paymentMethod=" + method
			}
			resp, body := client.doJSON(t, http.MethodGet, path, nil)
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("method %q: expected 200, got %d", method, resp.StatusCode)
			}
			var payload map[string]any
			if err := json.Unmarshal(body, &payload); err != nil {
				t.Fatalf("method %q: invalid json: %v", method, err)
			}
			if _, ok := payload["publishableKey"]; !ok {
				t.Fatalf("method %q: missing publishableKey: %s", method, body)
			}
		}
	})

	t.Run("WebhookRejectsUnsignedPayload", func(t *testing.T) {
		resp, body := client.doJSON(t, http.MethodPost, "/webhook", map[string]any{"id": "evt_e2e"})
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", resp.StatusCode)
		}
		if len(bytes.TrimSpace(body)) != 0 {
			t.Fatalf("webhook rejection must carry no body, got %s", body)
		}
	})

	t.Run("PayWithoutWebhooksRequiresPaymentSource", func(t *testing.T) {
		resp, _ := client.doJSON(t, http.MethodPost, "/pay-without-webhooks", map[string]any{"currency": "usd"})
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", resp.StatusCode)
		}
	})

	t.Run("NonceCheckoutValidatesRequest", func(t *testing.T) {
		resp, _ := client.doJSON(t, http.MethodPost, "/checkout", map[string]any{"amount": "10.00"})
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", resp.StatusCode)
		}
	})
}
