package stripe

import (
	"sync"
)

// LockManager manages per-key locks. The dispatcher locks on the event id so
// concurrent deliveries of the same event are processed one after the other,
// while different events run in parallel. A key's lock is dropped once its
// last holder or waiter releases it.
type LockManager struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	sync.Mutex
	refs int
}

// NewLockManager creates a new lock manager
func NewLockManager() *LockManager {
	return &LockManager{locks: make(map[string]*keyLock)}
}

// Lock acquires the lock for the given key and returns the function that
// releases it.
func (lm *LockManager) Lock(key string) func() {
	lm.mu.Lock()
	lock, ok := lm.locks[key]
	if !ok {
		lock = &keyLock{}
		lm.locks[key] = lock
	}
	lock.refs++
	lm.mu.Unlock()

	lock.Lock()
	return func() {
		lock.Unlock()
		lm.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(lm.locks, key)
		}
		lm.mu.Unlock()
	}
}

// size returns the number of keys currently locked or waited on.
func (lm *LockManager) size() int {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	return len(lm.locks)
}
