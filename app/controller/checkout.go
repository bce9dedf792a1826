package controller

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-checkout/app/factory"
	"github.com/vibast-solutions/ms-go-checkout/app/mapper"
	"github.com/vibast-solutions/ms-go-checkout/app/provider"
	"github.com/vibast-solutions/ms-go-checkout/app/service"
	"github.com/vibast-solutions/ms-go-checkout/app/types"
)

// Client-facing texts for the absent-resource and hard-decline reports. The
// storefront matches on these strings.
const (
	msgNoCustomerForEmail   = "There is no associated customer object to the provided e-mail"
	msgNoSavedPaymentMethod = "There is no associated payment method to the provided customer's e-mail"
	msgCardDenied           = "Your card was denied, please provide a new payment method"
)

type CheckoutController struct {
	checkoutService *service.CheckoutService
	logger          logrus.FieldLogger
}

func NewCheckoutController(checkoutService *service.CheckoutService) *CheckoutController {
	return &CheckoutController{
		checkoutService: checkoutService,
		logger:          factory.NewModuleLogger("checkout-controller"),
	}
}

func (c *CheckoutController) Health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, &types.HealthResponse{Status: "ok"})
}

func (c *CheckoutController) StripeKey(ctx echo.Context) error {
	req := types.NewStripeKeyRequestFromContext(ctx)
	return ctx.JSON(http.StatusOK, &types.StripeKeyResponse{
		PublishableKey: c.checkoutService.PublishableKeyFor(req.PaymentMethod),
	})
}

func (c *CheckoutController) CreatePaymentIntent(ctx echo.Context) error {
	req, err := types.NewCreatePaymentIntentRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	intent, err := c.checkoutService.CreatePaymentIntent(ctx.Request().Context(), req)
	if err != nil {
		return c.relayPaymentError(ctx, "Create payment intent failed", err)
	}

	return ctx.JSON(http.StatusOK, mapper.IntentToClientSecret(intent))
}

func (c *CheckoutController) CreatePaymentIntentWithPaymentMethod(ctx echo.Context) error {
	req, err := types.NewCreateIntentWithPaymentMethodRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	intent, paymentMethodID, err := c.checkoutService.CreateIntentWithSavedCard(ctx.Request().Context(), req)
	if err != nil {
		return c.relayPaymentError(ctx, "Create payment intent with payment method failed", err)
	}

	return ctx.JSON(http.StatusOK, &types.IntentWithPaymentMethodResponse{
		ClientSecret:    intent.ClientSecret,
		PaymentMethodID: paymentMethodID,
	})
}

func (c *CheckoutController) PayWithoutWebhooks(ctx echo.Context) error {
	req, err := types.NewPayWithoutWebhooksRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request body")
	}

	outcome, err := c.checkoutService.PayWithoutWebhooks(ctx.Request().Context(), req)
	if err != nil {
		return c.relayPaymentError(ctx, "Pay without webhooks failed", err)
	}

	return ctx.JSON(http.StatusOK, mapper.OutcomeToPayResponse(outcome))
}

func (c *CheckoutController) CreateSetupIntent(ctx echo.Context) error {
	req, err := types.NewCreateSetupIntentRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	result, err := c.checkoutService.CreateSetupIntent(ctx.Request().Context(), req)
	if err != nil {
		return c.relayPaymentError(ctx, "Create setup intent failed", err)
	}

	return ctx.JSON(http.StatusOK, mapper.SetupIntentToResponse(result))
}

func (c *CheckoutController) ChargeCardOffSession(ctx echo.Context) error {
	req, err := types.NewChargeCardOffSessionRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	charge, err := c.checkoutService.ChargeCardOffSession(ctx.Request().Context(), req.Email)
	if err != nil {
		return c.relayPaymentError(ctx, "Charge card off session failed", err)
	}

	return ctx.JSON(http.StatusOK, mapper.OffSessionChargeToResponse(charge))
}

func (c *CheckoutController) PaymentSheet(ctx echo.Context) error {
	req, err := types.NewPaymentSheetRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	result, err := c.checkoutService.PaymentSheet(ctx.Request().Context(), req)
	if err != nil {
		return c.relayPaymentError(ctx, "Payment sheet failed", err)
	}

	return ctx.JSON(http.StatusOK, mapper.PaymentSheetToResponse(result))
}

// Webhook responds 200 on every verified event regardless of type so the
// sender does not retry, 400 when the signature does not verify. No body in
// either case.
func (c *CheckoutController) Webhook(ctx echo.Context) error {
	payload, err := io.ReadAll(ctx.Request().Body)
	if err != nil {
		return ctx.NoContent(http.StatusBadRequest)
	}

	signature := ctx.Request().Header.Get("Stripe-Signature")
	if _, err := c.checkoutService.HandleWebhook(payload, signature); err != nil {
		factory.LoggerWithContext(c.logger, ctx).WithError(err).Warn("Webhook signature verification failed")
		return ctx.NoContent(http.StatusBadRequest)
	}

	return ctx.NoContent(http.StatusOK)
}

func (c *CheckoutController) CreateClientToken(ctx echo.Context) error {
	token, err := c.checkoutService.CreateClientToken(ctx.Request().Context())
	if err != nil {
		factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("Create client token failed")
		return ctx.JSON(http.StatusOK, &types.ClientTokenResponse{Success: false})
	}

	return ctx.JSON(http.StatusOK, &types.ClientTokenResponse{ClientToken: token, Success: true})
}

func (c *CheckoutController) NonceCheckout(ctx echo.Context) error {
	req, err := types.NewNonceCheckoutRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	transaction, err := c.checkoutService.CheckoutWithNonce(ctx.Request().Context(), req)
	if err != nil {
		factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("Nonce checkout failed")
		return ctx.JSON(http.StatusOK, &types.NonceCheckoutResponse{Success: false})
	}

	return ctx.JSON(http.StatusOK, &types.NonceCheckoutResponse{Success: true, Transaction: transaction})
}

// relayPaymentError maps the service error taxonomy onto the wire contract.
// Absent-resource reports and processor declines stay HTTP 200 with an error
// body the storefront inspects; only malformed requests and unclassified
// faults surface as HTTP errors.
func (c *CheckoutController) relayPaymentError(ctx echo.Context, logMessage string, err error) error {
	var stripeErr *provider.StripeError

	switch {
	case errors.Is(err, service.ErrNoCustomerForEmail):
		return ctx.JSON(http.StatusOK, &types.ErrorResponse{Error: msgNoCustomerForEmail})
	case errors.Is(err, service.ErrNoSavedPaymentMethod):
		return ctx.JSON(http.StatusOK, &types.ErrorResponse{Error: msgNoSavedPaymentMethod})
	case errors.Is(err, service.ErrCardDenied):
		return ctx.JSON(http.StatusOK, &types.ErrorResponse{Error: msgCardDenied})
	case errors.As(err, &stripeErr):
		return ctx.JSON(http.StatusOK, &types.ErrorResponse{Error: stripeErr.Message})
	case errors.Is(err, service.ErrMissingPaymentSource), errors.Is(err, service.ErrInvalidRequest):
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	default:
		factory.LoggerWithContext(c.logger, ctx).WithError(err).Error(logMessage)
		return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
	}
}

func (c *CheckoutController) writeError(ctx echo.Context, statusCode int, message string) error {
	return ctx.JSON(statusCode, &types.ErrorResponse{Error: message})
}
