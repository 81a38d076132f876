package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vocdoni/saas-checkout/db"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// CreatePayment inserts a new payment. The creation and update times are set
// to the current time.
func (ms *MongoStorage) CreatePayment(payment *db.Payment) error {
	if err := payment.Validate(); err != nil {
		return err
	}
	ms.keysLock.Lock()
	defer ms.keysLock.Unlock()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	now := time.Now().UTC()
	payment.CreatedAt = now
	payment.UpdatedAt = now
	if _, err := ms.payments.InsertOne(ctx, payment); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("payment %s: %w", payment.ProcessorPaymentID, db.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create payment %s: %w", payment.ProcessorPaymentID, err)
	}
	return nil
}

// Payment returns the payment with the given processor id.
func (ms *MongoStorage) Payment(processorPaymentID string) (*db.Payment, error) {
	ms.keysLock.RLock()
	defer ms.keysLock.RUnlock()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	payment := &db.Payment{}
	if err := ms.payments.FindOne(ctx, bson.M{"_id": processorPaymentID}).Decode(payment); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, db.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get payment %s: %w", processorPaymentID, err)
	}
	return payment, nil
}
