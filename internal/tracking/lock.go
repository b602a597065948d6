package tracking

import "sync"

// keyedMutex serializes work per key. UpdateStatus holds the entity's lock
// across its projection read and event append, so two concurrent updates to
// the same entity can never both validate against the same stale status.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*entityLock
}

type entityLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*entityLock)}
}

// lock acquires the mutex for key and returns its release func.
// Entries are removed once the last holder releases, keeping the map
// bounded by the number of in-flight updates rather than total entities.
func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &entityLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()

		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
