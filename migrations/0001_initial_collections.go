package migrations

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Collection names used by the checkout storage.
const (
	PaymentsCollection      = "payments"
	SubscriptionsCollection = "subscriptions"
	MigrationsCollection    = "migrations"
)

func init() {
	AddMigration(1, "initial_collections", upInitialCollections, downInitialCollections)
}

var collectionsValidators = map[string]bson.M{
	PaymentsCollection:      paymentsCollectionValidator,
	SubscriptionsCollection: subscriptionsCollectionValidator,
}

var paymentsCollectionValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"_id", "amount", "status"},
		"properties": bson.M{
			"_id": bson.M{
				"bsonType":    "string",
				"description": "processor payment id, must be a non empty string",
				"minLength":   1,
			},
			"amount": bson.M{
				"bsonType":    []string{"int", "long"},
				"description": "amount in minor currency units, must be an integer",
			},
			"status": bson.M{
				"bsonType":    "string",
				"description": "must be a string and is required",
			},
		},
	},
}

var subscriptionsCollectionValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"_id", "customerId", "status"},
		"properties": bson.M{
			"_id": bson.M{
				"bsonType":    "string",
				"description": "processor subscription id, must be a non empty string",
				"minLength":   1,
			},
			"customerId": bson.M{
				"bsonType":    "string",
				"description": "must be a string and is required",
			},
			"status": bson.M{
				"bsonType":    "string",
				"description": "must be a string and is required",
			},
			"currentPeriodEnd": bson.M{
				"bsonType":    []string{"date", "null"},
				"description": "end of the current billing period, if known",
			},
		},
	},
}

func upInitialCollections(ctx context.Context, database *mongo.Database) error {
	existing, err := listCollectionsInDB(ctx, database)
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", err)
	}
	for _, name := range []string{PaymentsCollection, SubscriptionsCollection} {
		if err := ensureCollection(ctx, database, existing, name, collectionsValidators[name]); err != nil {
			return err
		}
	}
	return nil
}

func downInitialCollections(ctx context.Context, database *mongo.Database) error {
	for _, name := range []string{PaymentsCollection, SubscriptionsCollection} {
		if err := database.Collection(name).Drop(ctx); err != nil {
			return fmt.Errorf("failed to drop collection %s: %w", name, err)
		}
	}
	return nil
}
