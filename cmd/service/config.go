package main

import (
	"github.com/spf13/viper"
	"github.com/vocdoni/saas-checkout/stripe"
)

// stripeConfig starts from the STRIPE_* environment and applies the flags
// and CHECKOUT_* variables that were explicitly set on top of it.
func stripeConfig(v *viper.Viper) (*stripe.Config, error) {
	conf, err := stripe.ConfigFromEnv()
	if err != nil {
		return nil, err
	}
	for key, field := range map[string]*string{
		"stripe-secret-key":      &conf.APIKey,
		"stripe-webhook-secret":  &conf.WebhookSecret,
		"stripe-publishable-key": &conf.PublishableKey,
		"stripe-price-id":        &conf.PriceID,
		"currency":               &conf.Currency,
	} {
		if value := v.GetString(key); v.IsSet(key) && value != "" {
			*field = value
		}
	}
	if v.IsSet("amount-multiplier") {
		conf.AmountMultiplier = v.GetInt64("amount-multiplier")
	}
	if v.IsSet("ack-on-failure") {
		conf.AckOnFailure = v.GetBool("ack-on-failure")
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}
