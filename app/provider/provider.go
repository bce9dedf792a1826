package provider

import "encoding/json"

// Types returned by the remote processors. Every value here is a
// request-scoped read of a processor-owned resource; nothing is cached or
// reconciled locally.

type Customer struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type Card struct {
	Brand string `json:"brand"`
	Last4 string `json:"last4"`
}

type PaymentMethod struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Card *Card  `json:"card"`
}

type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
}

type SetupIntent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
}

type EphemeralKey struct {
	ID     string `json:"id"`
	Secret string `json:"secret"`
}

// Intent statuses as reported by the processor.
const (
	IntentStatusRequiresPaymentMethod = "requires_payment_method"
	IntentStatusRequiresSource        = "requires_source"
	IntentStatusRequiresConfirmation  = "requires_confirmation"
	IntentStatusRequiresAction        = "requires_action"
	IntentStatusRequiresSourceAction  = "requires_source_action"
	IntentStatusRequiresCapture       = "requires_capture"
	IntentStatusProcessing            = "processing"
	IntentStatusSucceeded             = "succeeded"
	IntentStatusCanceled              = "canceled"
)

// WebhookEvent is a processor event that passed signature verification.
// Unverified payloads never become a WebhookEvent.
type WebhookEvent struct {
	ID   string
	Type string
	Data json.RawMessage
}
