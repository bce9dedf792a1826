package service

import "errors"

var (
	ErrInvalidRequest       = errors.New("invalid request")
	ErrNoCustomerForEmail   = errors.New("no customer for email")
	ErrNoSavedPaymentMethod = errors.New("no saved payment method")
	ErrMissingPaymentSource = errors.New("missing payment source")
	ErrCardDenied           = errors.New("card denied")
)
