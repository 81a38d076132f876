package mongo

import (
	"context"
	"fmt"
	"os"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/vocdoni/saas-checkout/test"
)

var (
	testDB   *MongoStorage
	mongoURI string
)

func TestMain(m *testing.M) {
	ctx := context.Background()
	// start a MongoDB container for testing
	dbContainer, err := test.StartMongoContainer(ctx)
	if err != nil {
		panic(fmt.Sprintf("failed to start MongoDB container: %v", err))
	}
	mongoURI, err = dbContainer.Endpoint(ctx, "mongodb")
	if err != nil {
		panic(fmt.Sprintf("failed to get MongoDB endpoint: %v", err))
	}
	testDB, err = New(mongoURI, test.RandomDatabaseName())
	if err != nil {
		panic(fmt.Sprintf("failed to create new MongoDB connection: %v", err))
	}

	code := m.Run()

	testDB.Close()
	if err := dbContainer.Terminate(ctx); err != nil {
		panic(fmt.Sprintf("failed to stop MongoDB container: %v", err))
	}
	os.Exit(code)
}

func resetDB(c *qt.C) {
	c.Assert(testDB.Reset(), qt.IsNil)
}

func TestNewRequiresParams(t *testing.T) {
	c := qt.New(t)
	_, err := New("", "db")
	c.Assert(err, qt.ErrorMatches, "mongo URL is not defined")
	_, err = New("mongodb://localhost:1", "")
	c.Assert(err, qt.ErrorMatches, "mongo database is not defined")
}
