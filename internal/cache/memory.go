package cache

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	marker    string
	artifact  []byte
	expiresAt time.Time
}

// MemoryCache is an in-process Cache with per-entry TTL. Expired entries are
// dropped lazily on lookup and on writes that replace them.
type MemoryCache struct {
	entries map[string]entry
	ttl     time.Duration
	mu      sync.Mutex

	// now is swapped out by tests.
	now func() time.Time
}

var _ Cache = (*MemoryCache)(nil)

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *MemoryCache) Get(_ context.Context, key string, marker string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, found := c.entries[key]
	if !found {
		return nil, false
	}
	if c.now().After(e.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	if e.marker != marker {
		// derived from an older state of the entity
		return nil, false
	}
	return e.artifact, true
}

func (c *MemoryCache) Put(_ context.Context, key string, marker string, artifact []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry{
		marker:    marker,
		artifact:  artifact,
		expiresAt: c.now().Add(c.ttl),
	}
	return nil
}

func (c *MemoryCache) Invalidate(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
	return nil
}
