package mongo

import (
	"errors"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/vocdoni/saas-checkout/db"
)

func TestCreateSubscription(t *testing.T) {
	c := qt.New(t)
	defer resetDB(c)

	periodEnd := time.Date(2026, time.November, 19, 0, 0, 0, 0, time.UTC)
	c.Assert(testDB.CreateSubscription(&db.Subscription{
		ProcessorSubscriptionID: "sub_test_1",
		CustomerID:              "cus_test_1",
		Status:                  "paid",
		CurrentPeriodEnd:        &periodEnd,
	}), qt.IsNil)

	stored, err := testDB.Subscription("sub_test_1")
	c.Assert(err, qt.IsNil)
	c.Assert(stored.CustomerID, qt.Equals, "cus_test_1")
	c.Assert(stored.Status, qt.Equals, "paid")
	c.Assert(stored.CurrentPeriodEnd, qt.Not(qt.IsNil))
	c.Assert(stored.CurrentPeriodEnd.Equal(periodEnd), qt.IsTrue)

	// a second invoice for the same subscription violates the uniqueness
	err = testDB.CreateSubscription(&db.Subscription{
		ProcessorSubscriptionID: "sub_test_1",
		CustomerID:              "cus_test_1",
		Status:                  "paid",
	})
	c.Assert(errors.Is(err, db.ErrAlreadyExists), qt.IsTrue)
}

func TestCreateSubscriptionWithoutPeriodEnd(t *testing.T) {
	c := qt.New(t)
	defer resetDB(c)

	c.Assert(testDB.CreateSubscription(&db.Subscription{
		ProcessorSubscriptionID: "sub_test_2",
		CustomerID:              "cus_test_2",
		Status:                  "paid",
	}), qt.IsNil)

	stored, err := testDB.Subscription("sub_test_2")
	c.Assert(err, qt.IsNil)
	c.Assert(stored.CurrentPeriodEnd, qt.IsNil)
}

func TestSetSubscriptionStatus(t *testing.T) {
	c := qt.New(t)
	defer resetDB(c)

	c.Assert(testDB.SetSubscriptionStatus("sub_missing", db.SubscriptionStatusCanceled), qt.Equals, db.ErrNotFound)
	c.Assert(testDB.SetSubscriptionStatus("", db.SubscriptionStatusCanceled), qt.Equals, db.ErrInvalidData)

	c.Assert(testDB.CreateSubscription(&db.Subscription{
		ProcessorSubscriptionID: "sub_test_3",
		CustomerID:              "cus_test_3",
		Status:                  "paid",
	}), qt.IsNil)
	c.Assert(testDB.SetSubscriptionStatus("sub_test_3", db.SubscriptionStatusCanceled), qt.IsNil)

	stored, err := testDB.Subscription("sub_test_3")
	c.Assert(err, qt.IsNil)
	c.Assert(stored.Status, qt.Equals, db.SubscriptionStatusCanceled)
	c.Assert(stored.CustomerID, qt.Equals, "cus_test_3")

	// updating an already canceled subscription is harmless
	c.Assert(testDB.SetSubscriptionStatus("sub_test_3", db.SubscriptionStatusCanceled), qt.IsNil)
}
