// Package mongo implements db.Storage on top of MongoDB. Records use the
// processor identifier as document _id, which makes them unique per
// collection.
package mongo

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/vocdoni/saas-checkout/db"
	"github.com/vocdoni/saas-checkout/migrations"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.vocdoni.io/dvote/log"
)

// ResetDBEnv is the environment variable that, when set, drops the stored
// records on start-up.
const ResetDBEnv = "CHECKOUT_MONGO_RESET_DB"

// MongoStorage uses an external MongoDB service for storing payments and
// subscriptions.
type MongoStorage struct {
	client   *mongo.Client
	database string
	keysLock sync.RWMutex

	payments      *mongo.Collection
	subscriptions *mongo.Collection
	migrations    *mongo.Collection
}

var _ db.Storage = (*MongoStorage)(nil)

// New connects to the MongoDB server at url and migrates the given database
// to the latest schema version.
func New(url, database string) (*MongoStorage, error) {
	ms := &MongoStorage{}
	if url == "" {
		return nil, fmt.Errorf("mongo URL is not defined")
	}
	if database == "" {
		return nil, fmt.Errorf("mongo database is not defined")
	}
	log.Infow("connecting to mongodb", "database", database)
	opts := options.Client()
	opts.ApplyURI(url)
	opts.SetMaxConnecting(200)
	timeout := time.Second * 10
	opts.ConnectTimeout = &timeout
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("cannot connect to mongodb: %w", err)
	}
	// check if the connection is successful
	ctx, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("cannot connect to mongodb: %w", err)
	}
	ms.client = client
	ms.database = database
	ms.payments = client.Database(database).Collection(migrations.PaymentsCollection)
	ms.subscriptions = client.Database(database).Collection(migrations.SubscriptionsCollection)
	ms.migrations = client.Database(database).Collection(migrations.MigrationsCollection)
	if err := ms.RunMigrationsUp(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	if reset := os.Getenv(ResetDBEnv); reset != "" {
		if err := ms.Reset(); err != nil {
			return nil, err
		}
	}
	return ms, nil
}

// Close disconnects the client from the server.
func (ms *MongoStorage) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := ms.client.Disconnect(ctx); err != nil {
		log.Warn(err)
	}
}

// Reset removes every payment and subscription. The schema is kept.
func (ms *MongoStorage) Reset() error {
	ms.keysLock.Lock()
	defer ms.keysLock.Unlock()
	log.Infof("resetting database")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := ms.payments.DeleteMany(ctx, bson.M{}); err != nil {
		return err
	}
	_, err := ms.subscriptions.DeleteMany(ctx, bson.M{})
	return err
}
