package db

import (
	"fmt"
	"time"
)

// SubscriptionStatusCanceled is the status stored when the processor notifies
// that a subscription was deleted.
const SubscriptionStatusCanceled = "canceled"

// Payment is a one-time charge confirmed by the payment processor. It is
// created from a payment_intent.succeeded notification and never updated.
type Payment struct {
	ProcessorPaymentID string    `json:"processorPaymentId" bson:"_id"`
	Amount             int64     `json:"amount" bson:"amount"`
	Status             string    `json:"status" bson:"status"`
	CreatedAt          time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Validate checks the fields required to store the payment.
func (p *Payment) Validate() error {
	if p == nil || p.ProcessorPaymentID == "" {
		return fmt.Errorf("%w: payment id is required", ErrInvalidData)
	}
	if p.Status == "" {
		return fmt.Errorf("%w: payment status is required", ErrInvalidData)
	}
	return nil
}

// Subscription is a recurring billing agreement. It is created when the first
// invoice of the subscription is paid and its status is updated when the
// processor deletes it.
type Subscription struct {
	ProcessorSubscriptionID string     `json:"processorSubscriptionId" bson:"_id"`
	CustomerID              string     `json:"customerId" bson:"customerId"`
	Status                  string     `json:"status" bson:"status"`
	CurrentPeriodEnd        *time.Time `json:"currentPeriodEnd,omitempty" bson:"currentPeriodEnd"`
	CreatedAt               time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt               time.Time  `json:"updatedAt" bson:"updatedAt"`
}

// Validate checks the fields required to store the subscription.
func (s *Subscription) Validate() error {
	if s == nil || s.ProcessorSubscriptionID == "" {
		return fmt.Errorf("%w: subscription id is required", ErrInvalidData)
	}
	if s.CustomerID == "" {
		return fmt.Errorf("%w: customer id is required", ErrInvalidData)
	}
	if s.Status == "" {
		return fmt.Errorf("%w: subscription status is required", ErrInvalidData)
	}
	return nil
}
