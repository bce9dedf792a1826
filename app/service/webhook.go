package service

import "encoding/json"

// HandleWebhook verifies an inbound processor event and routes it by type.
// Unrecognized event types are accepted and ignored so new processor events
// never break verification.
func (s *CheckoutService) HandleWebhook(payload []byte, signature string) (string, error) {
	event, err := s.stripe.ConstructWebhookEvent(payload, signature)
	if err != nil {
		return "", err
	}

	logger := s.logger.WithField("event_type", event.Type)

	switch event.Type {
	case "payment_intent.succeeded":
		var intent struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		}
		_ = json.Unmarshal(event.Data, &intent)
		logger.WithField("intent_id", intent.ID).WithField("status", intent.Status).Info("Payment captured")
	case "payment_intent.payment_failed":
		var intent struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		}
		_ = json.Unmarshal(event.Data, &intent)
		logger.WithField("intent_id", intent.ID).WithField("status", intent.Status).Info("Payment failed")
	case "setup_intent.succeeded":
		logger.Info("Payment method saved for future use")
	case "setup_intent.setup_failed":
		logger.Info("Payment method setup failed")
	case "setup_intent.created":
		var setupIntent struct {
			ID string `json:"id"`
		}
		_ = json.Unmarshal(event.Data, &setupIntent)
		logger.WithField("setup_intent_id", setupIntent.ID).Info("Setup intent created")
	default:
		logger.Debug("Ignoring unhandled event type")
	}

	return event.Type, nil
}
