package stripe

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.vocdoni.io/dvote/log"
)

// DefaultEventTTL is how long a processed event id is remembered.
const DefaultEventTTL = 24 * time.Hour

// EventStore remembers the ids of the webhook events already processed, so
// redeliveries are acknowledged without touching the database again.
type EventStore interface {
	EventExists(eventID string) bool
	MarkProcessed(eventID string) error
}

// MemoryEventStore is a simple in-memory implementation of EventStore. Its
// contents are lost on restart and not shared between replicas, use
// RedisEventStore for that.
type MemoryEventStore struct {
	events map[string]time.Time
	mutex  sync.RWMutex
	ttl    time.Duration
	stop   chan struct{}
	once   sync.Once
}

// NewMemoryEventStore creates a new in-memory event store
func NewMemoryEventStore(ttl time.Duration) *MemoryEventStore {
	if ttl == 0 {
		ttl = DefaultEventTTL
	}
	store := &MemoryEventStore{
		events: make(map[string]time.Time),
		ttl:    ttl,
		stop:   make(chan struct{}),
	}
	go store.cleanupLoop(time.Hour)
	return store
}

// EventExists checks if an event has already been processed
func (m *MemoryEventStore) EventExists(eventID string) bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	processedAt, exists := m.events[eventID]
	return exists && time.Since(processedAt) <= m.ttl
}

// MarkProcessed marks an event as processed
func (m *MemoryEventStore) MarkProcessed(eventID string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.events[eventID] = time.Now()
	return nil
}

// size returns the number of stored events
func (m *MemoryEventStore) size() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.events)
}

// Close stops the cleanup goroutine.
func (m *MemoryEventStore) Close() {
	m.once.Do(func() { close(m.stop) })
}

func (m *MemoryEventStore) cleanupLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.cleanup()
		}
	}
}

// cleanup removes expired events
func (m *MemoryEventStore) cleanup() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	now := time.Now()
	for eventID, timestamp := range m.events {
		if now.Sub(timestamp) > m.ttl {
			delete(m.events, eventID)
		}
	}
}

const (
	redisKeyPrefix   = "checkout:stripe:event:"
	redisCallTimeout = 3 * time.Second
)

// RedisEventStore keeps the processed event ids in Redis, with the TTL
// handled by the server.
type RedisEventStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisEventStore connects to the Redis server at the given URL, e.g.
// redis://localhost:6379/0.
func NewRedisEventStore(url string, ttl time.Duration) (*RedisEventStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	if ttl == 0 {
		ttl = DefaultEventTTL
	}
	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), redisCallTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return &RedisEventStore{client: client, ttl: ttl}, nil
}

// EventExists checks if an event has already been processed. Redis errors
// are logged and reported as a missing event, the record inserts are
// protected by the storage uniqueness constraints anyway.
func (r *RedisEventStore) EventExists(eventID string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), redisCallTimeout)
	defer cancel()
	n, err := r.client.Exists(ctx, redisKeyPrefix+eventID).Result()
	if err != nil {
		log.Warnw("stripe webhook: cannot query event store", "event", eventID, "error", err)
		return false
	}
	return n > 0
}

// MarkProcessed marks an event as processed
func (r *RedisEventStore) MarkProcessed(eventID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisCallTimeout)
	defer cancel()
	return r.client.SetNX(ctx, redisKeyPrefix+eventID, time.Now().Unix(), r.ttl).Err()
}

// Close closes the Redis connection.
func (r *RedisEventStore) Close() {
	if err := r.client.Close(); err != nil {
		log.Warn(err)
	}
}
