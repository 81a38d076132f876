// Package stripe relays payment intents and subscriptions to the Stripe
// payment service and dispatches its webhook notifications to the storage.
package stripe

import (
	"fmt"

	stripeapi "github.com/stripe/stripe-go/v81"
	"github.com/vocdoni/saas-checkout/db"
	"go.vocdoni.io/dvote/log"
)

// Service provides the main business logic for Stripe operations
type Service struct {
	processor   Processor
	db          db.Storage
	events      EventStore
	lockManager *LockManager
	config      *Config
}

// SubscriptionResult is returned to the browser after creating a
// subscription, so it can confirm the first payment.
type SubscriptionResult struct {
	SubscriptionID string `json:"subscriptionId"`
	ClientSecret   string `json:"clientSecret"`
	CustomerID     string `json:"customerId"`
}

// NewService creates a new Stripe service. When processor is nil a Client
// built from config is used, and when events is nil processed events are
// remembered in memory.
func NewService(config *Config, processor Processor, database db.Storage, events EventStore) (*Service, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if database == nil {
		return nil, fmt.Errorf("database is required")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if processor == nil {
		processor = NewClient(config)
	}
	if events == nil {
		events = NewMemoryEventStore(DefaultEventTTL)
	}
	return &Service{
		processor:   processor,
		db:          database,
		events:      events,
		lockManager: NewLockManager(),
		config:      config,
	}, nil
}

// Config returns the processor configuration in use.
func (s *Service) Config() *Config {
	return s.config
}

// CreatePaymentIntent creates a one-time payment intent. The amount entered
// by the customer is multiplied by the configured conversion multiplier.
func (s *Service) CreatePaymentIntent(amount int64) (*stripeapi.PaymentIntent, error) {
	if amount <= 0 {
		return nil, NewStripeError(CodeInvalidRequest, "amount must be positive", nil)
	}
	charged := amount * s.config.AmountMultiplier
	intent, err := s.processor.CreatePaymentIntent(charged, s.config.Currency)
	if err != nil {
		return nil, err
	}
	log.Debugw("payment intent created", "id", intent.ID, "amount", charged, "currency", s.config.Currency)
	return intent, nil
}

// CreateSubscription creates a customer with the given payment method and
// subscribes it to priceID, or to the configured price when priceID is empty.
func (s *Service) CreateSubscription(email, paymentMethodID, priceID string) (*SubscriptionResult, error) {
	if priceID == "" {
		priceID = s.config.PriceID
	}
	if email == "" || paymentMethodID == "" || priceID == "" {
		return nil, NewStripeError(CodeInvalidRequest, "email, payment method and price are required", nil)
	}
	customer, err := s.processor.CreateCustomer(email, paymentMethodID)
	if err != nil {
		return nil, err
	}
	sub, err := s.processor.CreateSubscription(customer.ID, priceID)
	if err != nil {
		return nil, err
	}
	result := &SubscriptionResult{
		SubscriptionID: sub.ID,
		CustomerID:     customer.ID,
	}
	if sub.LatestInvoice != nil && sub.LatestInvoice.PaymentIntent != nil {
		result.ClientSecret = sub.LatestInvoice.PaymentIntent.ClientSecret
	}
	log.Infow("subscription created", "id", sub.ID, "customer", customer.ID, "price", priceID)
	return result, nil
}

// CancelSubscription cancels the subscription at the end of its period. The
// stored record is updated once the processor notifies the deletion.
func (s *Service) CancelSubscription(subscriptionID string) (*stripeapi.Subscription, error) {
	if subscriptionID == "" {
		return nil, NewStripeError(CodeInvalidRequest, "subscription id is required", nil)
	}
	sub, err := s.processor.CancelSubscription(subscriptionID)
	if err != nil {
		return nil, err
	}
	log.Infow("subscription cancellation requested", "id", sub.ID, "cancelAtPeriodEnd", sub.CancelAtPeriodEnd)
	return sub, nil
}
