package stripe

import (
	"fmt"
	"os"
	"strconv"
)

const (
	// DefaultCurrency is the currency of one-time payment intents.
	DefaultCurrency = "usd"
	// DefaultAmountMultiplier converts the amount entered in the checkout
	// form into the minor units charged by the processor.
	DefaultAmountMultiplier = 83
)

// Config holds the Stripe configuration
type Config struct {
	APIKey           string `json:"-"`
	WebhookSecret    string `json:"-"`
	PublishableKey   string `json:"publishableKey"`
	PriceID          string `json:"priceId"`
	Currency         string `json:"currency"`
	AmountMultiplier int64  `json:"amountMultiplier"`
	// AckOnFailure acknowledges authentic webhook events that could not be
	// decoded or persisted. When false the dispatcher returns an error and
	// the processor delivers the event again.
	AckOnFailure bool `json:"-"`
}

// ConfigFromEnv reads the STRIPE_* environment variables without validating
// them, so callers can complete the result from other sources first.
func ConfigFromEnv() (*Config, error) {
	multiplier, err := strconv.ParseInt(getEnvOrDefault("STRIPE_AMOUNT_MULTIPLIER",
		strconv.Itoa(DefaultAmountMultiplier)), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid STRIPE_AMOUNT_MULTIPLIER: %w", err)
	}
	ackOnFailure, err := strconv.ParseBool(getEnvOrDefault("STRIPE_ACK_ON_FAILURE", "true"))
	if err != nil {
		return nil, fmt.Errorf("invalid STRIPE_ACK_ON_FAILURE: %w", err)
	}
	return &Config{
		APIKey:           os.Getenv("STRIPE_SECRET_KEY"),
		WebhookSecret:    os.Getenv("STRIPE_WEBHOOK_SECRET"),
		PublishableKey:   os.Getenv("STRIPE_PUBLISHABLE_KEY"),
		PriceID:          os.Getenv("STRIPE_PRICE_ID"),
		Currency:         getEnvOrDefault("STRIPE_CURRENCY", DefaultCurrency),
		AmountMultiplier: multiplier,
		AckOnFailure:     ackOnFailure,
	}, nil
}

// Validate checks the required settings and fills the optional ones with
// their defaults.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("stripe secret key is required")
	}
	if c.WebhookSecret == "" {
		return fmt.Errorf("stripe webhook secret is required")
	}
	if c.Currency == "" {
		c.Currency = DefaultCurrency
	}
	if c.AmountMultiplier <= 0 {
		c.AmountMultiplier = DefaultAmountMultiplier
	}
	return nil
}

// getEnvOrDefault returns the environment variable value or a default value
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
