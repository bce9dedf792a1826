package mapper

import (
	"github.com/vibast-solutions/ms-go-checkout/app/provider"
	"github.com/vibast-solutions/ms-go-checkout/app/service"
	"github.com/vibast-solutions/ms-go-checkout/app/types"
)

func IntentToClientSecret(intent *provider.Intent) *types.ClientSecretResponse {
	if intent == nil {
		return nil
	}
	return &types.ClientSecretResponse{ClientSecret: intent.ClientSecret}
}

func OutcomeToPayResponse(outcome *service.PaymentOutcome) *types.PayResponse {
	if outcome == nil {
		return nil
	}
	return &types.PayResponse{
		ClientSecret:   outcome.ClientSecret,
		RequiresAction: outcome.RequiresAction,
		Status:         outcome.Status,
	}
}

func SetupIntentToResponse(result *service.SetupIntentResult) *types.SetupIntentResponse {
	if result == nil {
		return nil
	}
	return &types.SetupIntentResponse{
		CustomerID:     result.CustomerID,
		PublishableKey: result.PublishableKey,
		ClientSecret:   result.ClientSecret,
	}
}

// OffSessionChargeToResponse picks the success or failure wire shape for an
// off-session charge report.
func OffSessionChargeToResponse(charge *service.OffSessionCharge) any {
	if charge == nil {
		return nil
	}
	if charge.Succeeded {
		return &types.OffSessionChargeResponse{
			Succeeded:    true,
			ClientSecret: charge.ClientSecret,
			PublicKey:    charge.PublicKey,
		}
	}

	response := &types.OffSessionChargeErrorResponse{
		Error:        charge.ErrorCode,
		ClientSecret: charge.ClientSecret,
		PublicKey:    charge.PublicKey,
	}
	if charge.ErrorCode == provider.ErrCodeAuthenticationRequired {
		response.PaymentMethod = charge.PaymentMethodID
		response.Amount = charge.AmountCents
		response.Card = &types.CardSummary{
			Brand: charge.CardBrand,
			Last4: charge.CardLast4,
		}
	}
	return response
}

func PaymentSheetToResponse(result *service.PaymentSheetResult) *types.PaymentSheetResponse {
	if result == nil {
		return nil
	}
	return &types.PaymentSheetResponse{
		PaymentIntent: result.ClientSecret,
		EphemeralKey:  result.EphemeralKey,
		Customer:      result.CustomerID,
	}
}
