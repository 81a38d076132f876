// Package apicommon provides the request and response types of the checkout
// API, shared by the server handlers and the checkout client.
package apicommon

import (
	stripeapi "github.com/stripe/stripe-go/v81"
)

// PaymentIntentRequest is the body of POST /create-payment-intent. Amount is
// the value entered in the checkout form, before the conversion multiplier.
type PaymentIntentRequest struct {
	Amount int64 `json:"amount" validate:"gt=0"`
}

// PaymentIntentResponse carries the client secret the browser uses to confirm
// the card payment.
type PaymentIntentResponse struct {
	ClientSecret string `json:"clientSecret"`
}

// SubscriptionRequest is the body of POST /create-subscription. When PriceID
// is empty the price configured in the server is used.
type SubscriptionRequest struct {
	CustomerEmail   string `json:"customerEmail" validate:"required,email"`
	PaymentMethodID string `json:"paymentMethodId" validate:"required,stripeid=pm"`
	PriceID         string `json:"priceId" validate:"omitempty,stripeid=price"`
}

// SubscriptionResponse is returned after creating a subscription.
// ClientSecret belongs to the payment intent of its first invoice.
type SubscriptionResponse struct {
	SubscriptionID string `json:"subscriptionId"`
	ClientSecret   string `json:"clientSecret"`
	CustomerID     string `json:"customerId"`
}

// CancelSubscriptionRequest is the body of POST /cancel-subscription.
type CancelSubscriptionRequest struct {
	SubscriptionID string `json:"subscriptionId" validate:"required,stripeid=sub"`
}

// CancelSubscriptionResponse returns the subscription as updated by the
// processor.
type CancelSubscriptionResponse struct {
	Success      bool                    `json:"success"`
	Subscription *stripeapi.Subscription `json:"subscription"`
}

// WebhookResponse acknowledges a webhook notification.
type WebhookResponse struct {
	Received bool `json:"received"`
}

// CheckoutConfig holds the public settings the checkout page needs to load
// the processor SDK and build its requests.
type CheckoutConfig struct {
	PublishableKey   string `json:"publishableKey"`
	PriceID          string `json:"priceId"`
	Currency         string `json:"currency"`
	AmountMultiplier int64  `json:"amountMultiplier"`
}
