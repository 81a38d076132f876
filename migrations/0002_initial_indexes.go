package migrations

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func init() {
	AddMigration(2, "initial_indexes", upInitialIndexes, downInitialIndexes)
}

// Uniqueness of the processor ids comes from the _id index, only lookup
// indexes are created here.
func upInitialIndexes(ctx context.Context, database *mongo.Database) error {
	if _, err := database.Collection(SubscriptionsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "customerId", Value: 1}},
	}); err != nil {
		return fmt.Errorf("failed to create index on customerId for subscriptions: %w", err)
	}
	if _, err := database.Collection(PaymentsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "status", Value: 1}},
	}); err != nil {
		return fmt.Errorf("failed to create index on status for payments: %w", err)
	}
	return nil
}

func downInitialIndexes(ctx context.Context, database *mongo.Database) error {
	if err := dropIndexIfExists(ctx, database.Collection(SubscriptionsCollection), "customerId_1"); err != nil {
		return err
	}
	return dropIndexIfExists(ctx, database.Collection(PaymentsCollection), "status_1")
}
