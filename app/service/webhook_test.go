package service

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/vibast-solutions/ms-go-checkout/app/provider"
)

func TestHandleWebhookRejectsBadSignature(t *testing.T) {
	svc := newTestService(&fakeStripeAPI{}, nil)

	_, err := svc.HandleWebhook([]byte(`{}`), "t=0,v1=bad")
	if !errors.Is(err, provider.ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestHandleWebhookDispatchesVerifiedEvents(t *testing.T) {
	eventTypes := []string{
		"payment_intent.succeeded",
		"payment_intent.payment_failed",
		"setup_intent.succeeded",
		"setup_intent.setup_failed",
		"setup_intent.created",
		"charge.refunded",
		"totally.new.event",
	}

	for _, eventType := range eventTypes {
		stripe := &fakeStripeAPI{
			constructEventFn: func(payload []byte, _ string) (*provider.WebhookEvent, error) {
				return &provider.WebhookEvent{
					ID:   "evt_1",
					Type: eventType,
					Data: json.RawMessage(`{"id":"pi_1","status":"succeeded"}`),
				}, nil
			},
		}
		svc := newTestService(stripe, nil)

		got, err := svc.HandleWebhook([]byte(`{}`), "t=1,v1=good")
		if err != nil {
			t.Fatalf("event %s: expected dispatch, got error: %v", eventType, err)
		}
		if got != eventType {
			t.Fatalf("event %s: unexpected dispatched type %s", eventType, got)
		}
	}
}
