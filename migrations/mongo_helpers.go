package migrations

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.vocdoni.io/dvote/log"
)

// listCollectionsInDB returns the names of the collections in the database.
func listCollectionsInDB(ctx context.Context, database *mongo.Database) ([]string, error) {
	cursor, err := database.ListCollections(ctx, bson.D{})
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := cursor.Close(ctx); err != nil {
			log.Warnw("failed to close collections cursor", "error", err)
		}
	}()
	var collections []struct {
		Name string `bson:"name"`
	}
	if err := cursor.All(ctx, &collections); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(collections))
	for _, col := range collections {
		names = append(names, col.Name)
	}
	return names, nil
}

// ensureCollection creates the collection with the given validator, or
// replaces the validator when the collection already exists. A nil validator
// leaves the collection unvalidated.
func ensureCollection(ctx context.Context, database *mongo.Database, existing []string,
	name string, validator bson.M,
) error {
	if slices.Contains(existing, name) {
		if validator == nil {
			return nil
		}
		if err := database.RunCommand(ctx, bson.D{
			{Key: "collMod", Value: name},
			{Key: "validator", Value: validator},
		}).Err(); err != nil {
			return fmt.Errorf("failed to update validator of %s: %w", name, err)
		}
		return nil
	}
	opts := options.CreateCollection()
	if validator != nil {
		opts = opts.SetValidator(validator).SetValidationLevel("strict").SetValidationAction("error")
	}
	if err := database.CreateCollection(ctx, name, opts); err != nil {
		return fmt.Errorf("failed to create collection %s: %w", name, err)
	}
	return nil
}

// dropIndexIfExists drops the named index, ignoring missing ones.
func dropIndexIfExists(ctx context.Context, collection *mongo.Collection, name string) error {
	if _, err := collection.Indexes().DropOne(ctx, name); err != nil {
		var cmdErr mongo.CommandError
		if errors.As(err, &cmdErr) && (cmdErr.Name == "IndexNotFound" || cmdErr.Name == "NamespaceNotFound") {
			return nil
		}
		return fmt.Errorf("failed to drop index %s of %s: %w", name, collection.Name(), err)
	}
	return nil
}
