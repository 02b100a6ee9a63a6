// Package keymutex provides mutual exclusion scoped to a key. Callers
// locking different keys proceed in parallel; callers locking the same key
// serialize. Entries are reference counted and removed once the last
// holder releases, so the map does not grow with the key space.
package keymutex

import "sync"

type entry struct {
	mu   sync.Mutex
	refs int
}

// KeyMutex is a set of named mutexes. The zero value is not usable; use New.
type KeyMutex struct {
	mu      sync.Mutex
	entries map[string]*entry
}

func New() *KeyMutex {
	return &KeyMutex{entries: make(map[string]*entry)}
}

// Lock acquires the mutex for key, blocking while another goroutine holds it.
func (km *KeyMutex) Lock(key string) {
	km.mu.Lock()
	e, ok := km.entries[key]
	if !ok {
		e = &entry{}
		km.entries[key] = e
	}
	e.refs++
	km.mu.Unlock()

	e.mu.Lock()
}

// Unlock releases the mutex for key. It panics if the key is not held,
// mirroring sync.Mutex semantics.
func (km *KeyMutex) Unlock(key string) {
	km.mu.Lock()
	e, ok := km.entries[key]
	if !ok {
		km.mu.Unlock()
		panic("keymutex: unlock of unlocked key " + key)
	}
	e.refs--
	if e.refs == 0 {
		delete(km.entries, key)
	}
	km.mu.Unlock()

	e.mu.Unlock()
}
