// Package lock provides per-key mutual exclusion for serializing
// operations that contend on a logical resource rather than a struct.
package lock

import "sync"

// KeyedMutex serializes callers that share a key while letting callers
// with different keys proceed concurrently. Entries are never evicted;
// the key space in this service (identity keys, doctor/location pairs)
// is small and bounded by real-world data.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewKeyedMutex creates an empty KeyedMutex.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for key, creating it on first use.
func (k *KeyedMutex) Lock(key string) {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()
	m.Lock()
}

// Unlock releases the mutex for key. Unlocking a key that was never
// locked panics, same as sync.Mutex.
func (k *KeyedMutex) Unlock(key string) {
	k.mu.Lock()
	m, ok := k.locks[key]
	k.mu.Unlock()
	if !ok {
		panic("lock: unlock of unknown key " + key)
	}
	m.Unlock()
}
