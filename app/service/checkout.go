package service

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-checkout/app/factory"
	"github.com/vibast-solutions/ms-go-checkout/app/pricing"
	"github.com/vibast-solutions/ms-go-checkout/app/provider"
	"github.com/vibast-solutions/ms-go-checkout/app/types"
	"github.com/vibast-solutions/ms-go-checkout/config"
)

// offSessionSKU prices off-session charges, which carry no basket.
const offSessionSKU = "shirt"

type stripeAPI interface {
	ListCustomers(ctx context.Context, secretKey, email string) ([]provider.Customer, error)
	CreateCustomer(ctx context.Context, secretKey, email string) (*provider.Customer, error)
	ListCardPaymentMethods(ctx context.Context, secretKey, customerID string) ([]provider.PaymentMethod, error)
	CreateIntent(ctx context.Context, secretKey string, params *provider.IntentParams) (*provider.Intent, error)
	ConfirmIntent(ctx context.Context, secretKey, intentID string) (*provider.Intent, error)
	CreateSetupIntent(ctx context.Context, secretKey, customerID string, paymentMethodTypes []string) (*provider.SetupIntent, error)
	CreateEphemeralKey(ctx context.Context, secretKey, customerID string) (*provider.EphemeralKey, error)
	ConstructWebhookEvent(payload []byte, signature string) (*provider.WebhookEvent, error)
}

type braintreeAPI interface {
	GenerateClientToken(ctx context.Context) (string, error)
	Sale(ctx context.Context, amount, nonce string) (*provider.Transaction, error)
}

type CheckoutService struct {
	stripe    stripeAPI
	braintree braintreeAPI
	stripeCfg config.StripeConfig
	logger    logrus.FieldLogger
}

func NewCheckoutService(stripe stripeAPI, braintree braintreeAPI, stripeCfg config.StripeConfig) *CheckoutService {
	return &CheckoutService{
		stripe:    stripe,
		braintree: braintree,
		stripeCfg: stripeCfg,
		logger:    factory.NewModuleLogger("checkout-service"),
	}
}

// PublishableKeyFor exposes credential resolution for the key-discovery
// endpoint.
func (s *CheckoutService) PublishableKeyFor(paymentMethodType string) string {
	return s.stripeCfg.KeysFor(paymentMethodType).PublishableKey
}

func (s *CheckoutService) CreatePaymentIntent(ctx context.Context, req *types.CreatePaymentIntentRequest) (*provider.Intent, error) {
	keys := s.stripeCfg.KeysFor(req.FirstPaymentMethodType())

	customer, err := s.stripe.CreateCustomer(ctx, keys.SecretKey, req.Email)
	if err != nil {
		return nil, err
	}

	threeDSecure := req.RequestThreeDSecure
	if threeDSecure == "" {
		threeDSecure = "automatic"
	}

	return s.stripe.CreateIntent(ctx, keys.SecretKey, &provider.IntentParams{
		AmountCents:             pricing.Amount(req.Items),
		Currency:                req.Currency,
		CustomerID:              customer.ID,
		PaymentMethodTypes:      req.PaymentMethodTypes,
		RequestThreeDSecure:     threeDSecure,
		SofortPreferredLanguage: "en",
	})
}

// CreateIntentWithSavedCard charges the first saved card of the first
// customer matching the email. A single match per email is an assumed
// precondition; ambiguity across accounts sharing an email is not resolved
// here.
func (s *CheckoutService) CreateIntentWithSavedCard(ctx context.Context, req *types.CreateIntentWithPaymentMethodRequest) (*provider.Intent, string, error) {
	keys := s.stripeCfg.KeysFor("")

	customer, paymentMethod, err := s.findSavedCard(ctx, keys.SecretKey, req.Email)
	if err != nil {
		return nil, "", err
	}

	threeDSecure := req.RequestThreeDSecure
	if threeDSecure == "" {
		threeDSecure = "automatic"
	}

	intent, err := s.stripe.CreateIntent(ctx, keys.SecretKey, &provider.IntentParams{
		AmountCents:         pricing.Amount(req.Items),
		Currency:            req.Currency,
		CustomerID:          customer.ID,
		PaymentMethodID:     paymentMethod.ID,
		RequestThreeDSecure: threeDSecure,
	})
	if err != nil {
		return nil, "", err
	}

	return intent, paymentMethod.ID, nil
}

// PaymentOutcome is the normalized shape a confirmation attempt reduces to.
type PaymentOutcome struct {
	ClientSecret   string
	RequiresAction bool
	Status         string
}

// PayWithoutWebhooks dispatches a checkout request over the three mutually
// exclusive confirmation paths, in priority order: stored-card re-charge via
// CVC re-verification, direct payment-method id, confirmation of an existing
// intent.
func (s *CheckoutService) PayWithoutWebhooks(ctx context.Context, req *types.PayWithoutWebhooksRequest) (*PaymentOutcome, error) {
	keys := s.stripeCfg.KeysFor("")
	orderAmount := pricing.Amount(req.Items)

	switch {
	case req.CVCToken != "" && req.Email != "":
		customer, paymentMethod, err := s.findSavedCard(ctx, keys.SecretKey, req.Email)
		if err != nil {
			return nil, err
		}
		intent, err := s.stripe.CreateIntent(ctx, keys.SecretKey, &provider.IntentParams{
			AmountCents:        orderAmount,
			Currency:           req.Currency,
			CustomerID:         customer.ID,
			PaymentMethodID:    paymentMethod.ID,
			CVCToken:           req.CVCToken,
			Confirm:            true,
			ConfirmationMethod: "manual",
			UseStripeSDK:       req.UseStripeSDK,
		})
		if err != nil {
			return nil, err
		}
		return normalizeIntent(intent)

	case req.PaymentMethodID != "":
		intent, err := s.stripe.CreateIntent(ctx, keys.SecretKey, &provider.IntentParams{
			AmountCents:        orderAmount,
			Currency:           req.Currency,
			PaymentMethodID:    req.PaymentMethodID,
			Confirm:            true,
			ConfirmationMethod: "manual",
			UseStripeSDK:       req.UseStripeSDK,
		})
		if err != nil {
			return nil, err
		}
		return normalizeIntent(intent)

	case req.PaymentIntentID != "":
		intent, err := s.stripe.ConfirmIntent(ctx, keys.SecretKey, req.PaymentIntentID)
		if err != nil {
			return nil, err
		}
		return normalizeIntent(intent)

	default:
		return nil, ErrMissingPaymentSource
	}
}

type SetupIntentResult struct {
	CustomerID     string
	ClientSecret   string
	PublishableKey string
}

func (s *CheckoutService) CreateSetupIntent(ctx context.Context, req *types.CreateSetupIntentRequest) (*SetupIntentResult, error) {
	keys := s.stripeCfg.KeysFor(req.FirstPaymentMethodType())

	customers, err := s.stripe.ListCustomers(ctx, keys.SecretKey, req.Email)
	if err != nil {
		return nil, err
	}

	var customer *provider.Customer
	if len(customers) > 0 {
		customer = &customers[0]
	} else {
		customer, err = s.stripe.CreateCustomer(ctx, keys.SecretKey, req.Email)
		if err != nil {
			return nil, err
		}
	}

	setupIntent, err := s.stripe.CreateSetupIntent(ctx, keys.SecretKey, customer.ID, req.PaymentMethodTypes)
	if err != nil {
		return nil, err
	}

	return &SetupIntentResult{
		CustomerID:     customer.ID,
		ClientSecret:   setupIntent.ClientSecret,
		PublishableKey: s.stripeCfg.Default.PublishableKey,
	}, nil
}

// OffSessionCharge reports a charge attempted without the customer present.
// Failed attempts are classified: a step-up challenge carries everything the
// client needs to retry with on-session authentication, a decline carries
// the code, anything else is logged only.
type OffSessionCharge struct {
	Succeeded    bool
	ClientSecret string
	PublicKey    string

	ErrorCode       string
	PaymentMethodID string
	AmountCents     int64
	CardBrand       string
	CardLast4       string
}

func (s *CheckoutService) ChargeCardOffSession(ctx context.Context, email string) (*OffSessionCharge, error) {
	keys := s.stripeCfg.KeysFor("")
	amount := pricing.PriceOf(offSessionSKU)

	customer, paymentMethod, err := s.findSavedCard(ctx, keys.SecretKey, email)
	if err != nil {
		return nil, err
	}

	intent, err := s.stripe.CreateIntent(ctx, keys.SecretKey, &provider.IntentParams{
		AmountCents:     amount,
		Currency:        "usd",
		CustomerID:      customer.ID,
		PaymentMethodID: paymentMethod.ID,
		OffSession:      true,
		Confirm:         true,
	})
	if err != nil {
		var stripeErr *provider.StripeError
		if !errors.As(err, &stripeErr) || stripeErr.Code == "" {
			s.logger.WithError(err).Error("Off-session charge failed with unclassified error")
			return nil, err
		}

		charge := &OffSessionCharge{
			ErrorCode: stripeErr.Code,
			PublicKey: keys.PublishableKey,
		}
		if stripeErr.PaymentIntent != nil {
			charge.ClientSecret = stripeErr.PaymentIntent.ClientSecret
		}
		if stripeErr.Code == provider.ErrCodeAuthenticationRequired {
			charge.AmountCents = amount
			if stripeErr.PaymentMethod != nil {
				charge.PaymentMethodID = stripeErr.PaymentMethod.ID
				if stripeErr.PaymentMethod.Card != nil {
					charge.CardBrand = stripeErr.PaymentMethod.Card.Brand
					charge.CardLast4 = stripeErr.PaymentMethod.Card.Last4
				}
			}
		}
		return charge, nil
	}

	return &OffSessionCharge{
		Succeeded:    true,
		ClientSecret: intent.ClientSecret,
		PublicKey:    keys.PublishableKey,
	}, nil
}

type PaymentSheetResult struct {
	ClientSecret string
	EphemeralKey string
	CustomerID   string
}

func (s *CheckoutService) PaymentSheet(ctx context.Context, req *types.PaymentSheetRequest) (*PaymentSheetResult, error) {
	keys := s.stripeCfg.KeysFor("")

	ephemeralKey, err := s.stripe.CreateEphemeralKey(ctx, keys.SecretKey, req.CustomerID)
	if err != nil {
		return nil, err
	}

	intent, err := s.stripe.CreateIntent(ctx, keys.SecretKey, &provider.IntentParams{
		AmountCents: req.Amount,
		Currency:    req.Currency,
		CustomerID:  req.CustomerID,
	})
	if err != nil {
		return nil, err
	}

	return &PaymentSheetResult{
		ClientSecret: intent.ClientSecret,
		EphemeralKey: ephemeralKey.Secret,
		CustomerID:   req.CustomerID,
	}, nil
}

func (s *CheckoutService) CreateClientToken(ctx context.Context) (string, error) {
	return s.braintree.GenerateClientToken(ctx)
}

func (s *CheckoutService) CheckoutWithNonce(ctx context.Context, req *types.NonceCheckoutRequest) (*provider.Transaction, error) {
	return s.braintree.Sale(ctx, req.Amount, req.PaymentMethodNonce)
}

// findSavedCard walks the customer-by-email then saved-card lookups, first
// match only at each step.
func (s *CheckoutService) findSavedCard(ctx context.Context, secretKey, email string) (*provider.Customer, *provider.PaymentMethod, error) {
	if strings.TrimSpace(email) == "" {
		return nil, nil, ErrInvalidRequest
	}

	customers, err := s.stripe.ListCustomers(ctx, secretKey, email)
	if err != nil {
		return nil, nil, err
	}
	if len(customers) == 0 {
		return nil, nil, ErrNoCustomerForEmail
	}
	customer := &customers[0]

	paymentMethods, err := s.stripe.ListCardPaymentMethods(ctx, secretKey, customer.ID)
	if err != nil {
		return nil, nil, err
	}
	if len(paymentMethods) == 0 {
		return nil, nil, ErrNoSavedPaymentMethod
	}

	return customer, &paymentMethods[0], nil
}

func normalizeIntent(intent *provider.Intent) (*PaymentOutcome, error) {
	switch intent.Status {
	case provider.IntentStatusRequiresAction, provider.IntentStatusRequiresSourceAction:
		return &PaymentOutcome{ClientSecret: intent.ClientSecret, RequiresAction: true}, nil
	case provider.IntentStatusRequiresPaymentMethod, provider.IntentStatusRequiresSource:
		return nil, ErrCardDenied
	case provider.IntentStatusSucceeded:
		return &PaymentOutcome{ClientSecret: intent.ClientSecret}, nil
	default:
		return &PaymentOutcome{ClientSecret: intent.ClientSecret, Status: intent.Status}, nil
	}
}
