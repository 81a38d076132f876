package stripe

import (
	"net/http"
	"time"

	stripeapi "github.com/stripe/stripe-go/v81"
	stripecustomer "github.com/stripe/stripe-go/v81/customer"
	stripepaymentintent "github.com/stripe/stripe-go/v81/paymentintent"
	stripesubscription "github.com/stripe/stripe-go/v81/subscription"
	stripewebhook "github.com/stripe/stripe-go/v81/webhook"
)

// Processor is the subset of the payment processor API used by the Service.
type Processor interface {
	CreatePaymentIntent(amount int64, currency string) (*stripeapi.PaymentIntent, error)
	CreateCustomer(email, paymentMethodID string) (*stripeapi.Customer, error)
	CreateSubscription(customerID, priceID string) (*stripeapi.Subscription, error)
	CancelSubscription(subscriptionID string) (*stripeapi.Subscription, error)
	ValidateWebhookEvent(payload []byte, signatureHeader string) (*stripeapi.Event, error)
}

// Client wraps the Stripe API client with additional functionality
type Client struct {
	config *Config
}

var _ Processor = (*Client)(nil)

// NewClient creates a new Stripe client with the given configuration
func NewClient(config *Config) *Client {
	stripeapi.Key = config.APIKey
	stripeapi.SetHTTPClient(&http.Client{
		Timeout: 30 * time.Second,
	})
	return &Client{config: config}
}

// ValidateWebhookEvent validates and parses a webhook event. Events pinned to
// an API version other than the library's are accepted, only the fields
// read by the dispatcher are decoded.
func (c *Client) ValidateWebhookEvent(payload []byte, signatureHeader string) (*stripeapi.Event, error) {
	event, err := stripewebhook.ConstructEventWithOptions(payload, signatureHeader, c.config.WebhookSecret,
		stripewebhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, NewStripeError(CodeWebhookValidation, "webhook signature validation failed", err)
	}
	return &event, nil
}

// CreatePaymentIntent creates a payment intent for the given amount, in the
// minor units of currency.
func (*Client) CreatePaymentIntent(amount int64, currency string) (*stripeapi.PaymentIntent, error) {
	params := &stripeapi.PaymentIntentParams{
		Amount:   stripeapi.Int64(amount),
		Currency: stripeapi.String(currency),
	}
	intent, err := stripepaymentintent.New(params)
	if err != nil {
		return nil, NewStripeError(CodeAPICallFailed, "failed to create payment intent", err)
	}
	return intent, nil
}

// CreateCustomer creates a customer with the given payment method attached
// as the default for its invoices.
func (*Client) CreateCustomer(email, paymentMethodID string) (*stripeapi.Customer, error) {
	params := &stripeapi.CustomerParams{
		Email:         stripeapi.String(email),
		PaymentMethod: stripeapi.String(paymentMethodID),
		InvoiceSettings: &stripeapi.CustomerInvoiceSettingsParams{
			DefaultPaymentMethod: stripeapi.String(paymentMethodID),
		},
	}
	customer, err := stripecustomer.New(params)
	if err != nil {
		return nil, NewStripeError(CodeAPICallFailed, "failed to create customer", err)
	}
	return customer, nil
}

// CreateSubscription subscribes the customer to the given price. The payment
// intent of the first invoice is expanded so its client secret can be
// returned to the browser.
func (*Client) CreateSubscription(customerID, priceID string) (*stripeapi.Subscription, error) {
	params := &stripeapi.SubscriptionParams{
		Customer: stripeapi.String(customerID),
		Items: []*stripeapi.SubscriptionItemsParams{
			{Price: stripeapi.String(priceID)},
		},
	}
	params.AddExpand("latest_invoice.payment_intent")
	sub, err := stripesubscription.New(params)
	if err != nil {
		return nil, NewStripeError(CodeAPICallFailed, "failed to create subscription", err)
	}
	return sub, nil
}

// CancelSubscription schedules the subscription to be canceled at the end of
// the current period. Calling it again on the same subscription is a no-op.
func (*Client) CancelSubscription(subscriptionID string) (*stripeapi.Subscription, error) {
	params := &stripeapi.SubscriptionParams{
		CancelAtPeriodEnd: stripeapi.Bool(true),
	}
	sub, err := stripesubscription.Update(subscriptionID, params)
	if err != nil {
		return nil, NewStripeError(CodeAPICallFailed, "failed to cancel subscription", err)
	}
	return sub, nil
}
