package stripe

import (
	"context"
	"fmt"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/vocdoni/saas-checkout/test"
)

func TestMemoryEventStore(t *testing.T) {
	c := qt.New(t)
	store := NewMemoryEventStore(50 * time.Millisecond)
	defer store.Close()

	c.Assert(store.EventExists("evt_1"), qt.IsFalse)
	c.Assert(store.MarkProcessed("evt_1"), qt.IsNil)
	c.Assert(store.EventExists("evt_1"), qt.IsTrue)
	c.Assert(store.size(), qt.Equals, 1)

	time.Sleep(100 * time.Millisecond)
	c.Assert(store.EventExists("evt_1"), qt.IsFalse)
	store.cleanup()
	c.Assert(store.size(), qt.Equals, 0)
}

func TestRedisEventStore(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()

	container, err := test.StartRedisContainer(ctx)
	c.Assert(err, qt.IsNil)
	defer func() { c.Assert(container.Terminate(ctx), qt.IsNil) }()
	endpoint, err := container.Endpoint(ctx, "")
	c.Assert(err, qt.IsNil)

	_, err = NewRedisEventStore("not a url", time.Minute)
	c.Assert(err, qt.IsNotNil)

	store, err := NewRedisEventStore(fmt.Sprintf("redis://%s/0", endpoint), time.Second)
	c.Assert(err, qt.IsNil)
	defer store.Close()

	c.Assert(store.EventExists("evt_1"), qt.IsFalse)
	c.Assert(store.MarkProcessed("evt_1"), qt.IsNil)
	c.Assert(store.EventExists("evt_1"), qt.IsTrue)
	// marking twice keeps the first mark
	c.Assert(store.MarkProcessed("evt_1"), qt.IsNil)

	time.Sleep(1500 * time.Millisecond)
	c.Assert(store.EventExists("evt_1"), qt.IsFalse)
}
