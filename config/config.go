package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	HTTP      ServerConfig
	Log       LogConfig
	Stripe    StripeConfig
	Braintree BraintreeConfig
}

type AppConfig struct {
	ServiceName string
}

type ServerConfig struct {
	Host string
	Port string
}

type LogConfig struct {
	Level string
}

// CredentialSet is a processor API key pair scoped to one region. It is
// loaded once at startup and never mutated afterwards.
type CredentialSet struct {
	SecretKey      string
	PublishableKey string
}

type StripeConfig struct {
	Default CredentialSet
	Regions map[string]CredentialSet

	WebhookSecret             string
	SignatureToleranceSeconds int64
	HTTPTimeout               time.Duration
}

type BraintreeConfig struct {
	Environment string
	MerchantID  string
	PublicKey   string
	PrivateKey  string
	HTTPTimeout time.Duration
}

const (
	RegionMY = "MY"
	RegionAU = "AU"
	RegionMX = "MX"
)

// methodRegion maps a requested payment-method type to the region whose
// credentials must be used. Methods not listed here use the default set.
var methodRegion = map[string]string{
	"grabpay":       RegionMY,
	"fpx":           RegionMY,
	"au_becs_debit": RegionAU,
	"oxxo":          RegionMX,
}

// KeysFor selects the credential set for a payment-method type. Resolution is
// total: unknown or empty method types fall back to the default set, as does
// a region with no configured credentials.
func (c StripeConfig) KeysFor(paymentMethodType string) CredentialSet {
	region, ok := methodRegion[paymentMethodType]
	if !ok {
		return c.Default
	}
	set, ok := c.Regions[region]
	if !ok {
		return c.Default
	}
	return set
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	return &Config{
		App: AppConfig{
			ServiceName: getEnv("APP_SERVICE_NAME", "checkout-service"),
		},
		HTTP: ServerConfig{
			Host: getEnv("HTTP_HOST", "0.0.0.0"),
			Port: getEnv("HTTP_PORT", "4242"),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Stripe: StripeConfig{
			Default: CredentialSet{
				SecretKey:      getEnv("STRIPE_SECRET_KEY", ""),
				PublishableKey: getEnv("STRIPE_PUBLISHABLE_KEY", ""),
			},
			Regions: map[string]CredentialSet{
				RegionMY: {
					SecretKey:      getEnv("STRIPE_SECRET_KEY_MY", ""),
					PublishableKey: getEnv("STRIPE_PUBLISHABLE_KEY_MY", ""),
				},
				RegionAU: {
					SecretKey:      getEnv("STRIPE_SECRET_KEY_AU", ""),
					PublishableKey: getEnv("STRIPE_PUBLISHABLE_KEY_AU", ""),
				},
				RegionMX: {
					SecretKey:      getEnv("STRIPE_SECRET_KEY_MX", ""),
					PublishableKey: getEnv("STRIPE_PUBLISHABLE_KEY_MX", ""),
				},
			},
			WebhookSecret:             getEnv("STRIPE_WEBHOOK_SECRET", ""),
			SignatureToleranceSeconds: int64(getIntEnv("STRIPE_SIGNATURE_TOLERANCE_SECONDS", 300)),
			HTTPTimeout:               getSecondsEnv("STRIPE_HTTP_TIMEOUT_SECONDS", 10*time.Second),
		},
		Braintree: BraintreeConfig{
			Environment: getEnv("BRAINTREE_ENVIRONMENT", "sandbox"),
			MerchantID:  getEnv("PAYPAL_MERCHANT_ID", ""),
			PublicKey:   getEnv("PAYPAL_PUBLIC_KEY", ""),
			PrivateKey:  getEnv("PAYPAL_PRIVATE_KEY", ""),
			HTTPTimeout: getSecondsEnv("BRAINTREE_HTTP_TIMEOUT_SECONDS", 10*time.Second),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getSecondsEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if seconds, err := strconv.Atoi(value); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return defaultValue
}
