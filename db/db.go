// Package db defines the records persisted by the checkout backend and the
// storage interface implemented by the available backends (see db/mongo and
// db/mysql).
package db

// Storage is the persistence layer used by the webhook dispatcher. Records are
// keyed by the identifiers assigned by the payment processor.
type Storage interface {
	// CreatePayment stores a new payment. It returns ErrAlreadyExists if a
	// payment with the same processor id was already stored.
	CreatePayment(*Payment) error
	// Payment returns the payment with the given processor id or ErrNotFound.
	Payment(processorPaymentID string) (*Payment, error)
	// CreateSubscription stores a new subscription. It returns
	// ErrAlreadyExists if a subscription with the same processor id was
	// already stored.
	CreateSubscription(*Subscription) error
	// Subscription returns the subscription with the given processor id or
	// ErrNotFound.
	Subscription(processorSubscriptionID string) (*Subscription, error)
	// SetSubscriptionStatus updates the status of a stored subscription. It
	// returns ErrNotFound if no subscription matched.
	SetSubscriptionStatus(processorSubscriptionID, status string) error
	// Reset drops every stored record.
	Reset() error
	Close()
}
