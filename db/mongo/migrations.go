package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/vocdoni/saas-checkout/migrations"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.vocdoni.io/dvote/log"
)

// MigrationRecord is stored in the migrations collection for every applied
// migration.
type MigrationRecord struct {
	Version   int       `bson:"version"`
	AppliedAt time.Time `bson:"applied_at"`
}

// RunMigrationsUp applies every registered migration newer than the last
// applied one.
func (ms *MongoStorage) RunMigrationsUp() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	last, err := lastAppliedMigration(ctx, ms.migrations)
	if err != nil {
		return fmt.Errorf("failed to get last applied migration: %w", err)
	}
	if last >= migrations.Latest() {
		log.Debugw("database schema is up-to-date", "version", last)
		return nil
	}
	log.Infow("migrating database", "from", last, "to", migrations.Latest())

	database := ms.client.Database(ms.database)
	for _, mig := range migrations.SortedByVersionAsc() {
		if mig.Version <= last {
			continue
		}
		if err := mig.Up(ctx, database); err != nil {
			return fmt.Errorf("failed to apply migration %d (%s): %w", mig.Version, mig.Name, err)
		}
		if _, err := ms.migrations.InsertOne(ctx, MigrationRecord{
			Version:   mig.Version,
			AppliedAt: time.Now(),
		}); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", mig.Version, err)
		}
		log.Infow("migration applied", "version", mig.Version, "name", mig.Name)
	}
	return nil
}

// RunMigrationsDown reverts the given number of applied migrations, newest
// first. A non positive steps value reverts all of them.
func (ms *MongoStorage) RunMigrationsDown(steps int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	last, err := lastAppliedMigration(ctx, ms.migrations)
	if err != nil {
		return fmt.Errorf("failed to get last applied migration: %w", err)
	}
	if steps <= 0 || steps > last {
		steps = last
	}

	registry := migrations.AsMap()
	database := ms.client.Database(ms.database)
	for version := last; version > last-steps; version-- {
		mig, ok := registry[version]
		if !ok {
			return fmt.Errorf("migration %d not found in registry", version)
		}
		if err := mig.Down(ctx, database); err != nil {
			return fmt.Errorf("failed to rollback migration %d (%s): %w", mig.Version, mig.Name, err)
		}
		if _, err := ms.migrations.DeleteOne(ctx, bson.M{"version": version}); err != nil {
			return fmt.Errorf("failed to remove migration record %d: %w", version, err)
		}
		log.Infow("migration rolled back", "version", mig.Version, "name", mig.Name)
	}
	return nil
}

// lastAppliedMigration returns the highest applied version, 0 when the
// database has never been migrated.
func lastAppliedMigration(ctx context.Context, collection *mongo.Collection) (int, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "version", Value: -1}})
	var record MigrationRecord
	if err := collection.FindOne(ctx, bson.M{}, opts).Decode(&record); err != nil {
		if err == mongo.ErrNoDocuments {
			return 0, nil
		}
		return 0, err
	}
	return record.Version, nil
}
