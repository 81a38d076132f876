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

// CreateSubscription inserts a new subscription. A second subscription with
// the same processor id is rejected with db.ErrAlreadyExists.
func (ms *MongoStorage) CreateSubscription(subscription *db.Subscription) error {
	if err := subscription.Validate(); err != nil {
		return err
	}
	ms.keysLock.Lock()
	defer ms.keysLock.Unlock()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	now := time.Now().UTC()
	subscription.CreatedAt = now
	subscription.UpdatedAt = now
	if _, err := ms.subscriptions.InsertOne(ctx, subscription); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("subscription %s: %w", subscription.ProcessorSubscriptionID, db.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create subscription %s: %w", subscription.ProcessorSubscriptionID, err)
	}
	return nil
}

// Subscription returns the subscription with the given processor id.
func (ms *MongoStorage) Subscription(processorSubscriptionID string) (*db.Subscription, error) {
	ms.keysLock.RLock()
	defer ms.keysLock.RUnlock()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	subscription := &db.Subscription{}
	err := ms.subscriptions.FindOne(ctx, bson.M{"_id": processorSubscriptionID}).Decode(subscription)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, db.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get subscription %s: %w", processorSubscriptionID, err)
	}
	return subscription, nil
}

// SetSubscriptionStatus updates the status of the subscription with the given
// processor id.
func (ms *MongoStorage) SetSubscriptionStatus(processorSubscriptionID, status string) error {
	if processorSubscriptionID == "" || status == "" {
		return db.ErrInvalidData
	}
	ms.keysLock.Lock()
	defer ms.keysLock.Unlock()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	update := bson.M{"$set": bson.M{"status": status, "updatedAt": time.Now().UTC()}}
	res, err := ms.subscriptions.UpdateOne(ctx, bson.M{"_id": processorSubscriptionID}, update)
	if err != nil {
		return fmt.Errorf("failed to update subscription %s: %w", processorSubscriptionID, err)
	}
	if res.MatchedCount == 0 {
		return db.ErrNotFound
	}
	return nil
}
