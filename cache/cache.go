// Package cache is the client-held, time-boxed cache of paginated timeline
// and DM payloads. Entries move through three states: fresh (served without
// any collaborator call), stale (served immediately while a background
// refresh revalidates), and expired (loaded synchronously). Refreshes are
// deduplicated so at most one loader call is in flight per key.
package cache

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Loader fetches the authoritative payload for a key on miss or refresh.
// Background refreshes run it on a context detached from the request that
// triggered them, so it must take its deadline from ctx, not from the
// surrounding request.
type Loader func(ctx context.Context) ([]byte, error)

type entry struct {
	payload   []byte
	fetchedAt time.Time
	expiresAt time.Time
}

type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
	// gens counts invalidations per key, including keys whose only load is
	// still in flight. A load that began before an Invalidate carries the
	// old generation and must not repopulate the entry.
	gens  map[string]uint64
	ttl   time.Duration
	fresh time.Duration
	group singleflight.Group
	now   func() time.Time
}

// New builds a cache whose entries live for ttl and are considered fresh
// for the first fresh duration after fetch.
func New(ttl, fresh time.Duration) *Cache {
	return &Cache{
		entries: make(map[string]*entry),
		gens:    make(map[string]uint64),
		ttl:     ttl,
		fresh:   fresh,
		now:     time.Now,
	}
}

// Get returns the payload for key. Fresh entries are returned as-is; live
// but stale entries are returned while a background refresh replaces them;
// expired or absent entries invoke loader synchronously.
func (c *Cache) Get(ctx context.Context, key string, loader Loader) ([]byte, error) {
	now := c.now()

	c.mu.Lock()
	e, ok := c.entries[key]
	if ok && !now.After(e.expiresAt) {
		payload := e.payload
		if !now.After(e.fetchedAt.Add(c.fresh)) {
			c.mu.Unlock()
			return payload, nil
		}
		c.mu.Unlock()
		// The request that observed staleness finishes (and cancels its
		// context) as soon as the stale payload is served; the refresh
		// must outlive it.
		go c.refresh(context.WithoutCancel(ctx), key, e, loader)
		return payload, nil
	}
	if ok {
		delete(c.entries, key) // lazy eviction of the expired entry
	}
	gen := c.gens[key]
	c.gens[key] = gen // make the in-flight key visible to Invalidate
	c.mu.Unlock()

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		payload, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		c.store(key, payload, gen)
		return payload, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Invalidate removes every entry whose key starts with prefix and bumps the
// key's generation so loads already in flight cannot repopulate it. Pending
// flights are forgotten so the next Get issues a new load.
func (c *Cache) Invalidate(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.gens {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
			c.gens[key]++
			c.group.Forget(key)
		}
	}
}

// refresh revalidates a stale entry in the background. The refreshed value
// only replaces the exact entry that was observed stale; if the key was
// invalidated or replaced in the meantime the result is discarded. A failed
// refresh keeps serving the stale entry until it hard-expires.
func (c *Cache) refresh(ctx context.Context, key string, stale *entry, loader Loader) {
	c.group.Do(key, func() (interface{}, error) {
		payload, err := loader(ctx)
		if err != nil {
			log.Printf("[CACHE_REFRESH_FAIL] key=%s: %v", key, err)
			return nil, err
		}
		now := c.now()
		c.mu.Lock()
		if cur, ok := c.entries[key]; ok && cur == stale {
			c.entries[key] = &entry{payload: payload, fetchedAt: now, expiresAt: now.Add(c.ttl)}
		}
		c.mu.Unlock()
		return payload, nil
	})
}

// store records a freshly loaded payload, unless the key was invalidated
// after the load began.
func (c *Cache) store(key string, payload []byte, gen uint64) {
	now := c.now()
	c.mu.Lock()
	if c.gens[key] == gen {
		c.entries[key] = &entry{payload: payload, fetchedAt: now, expiresAt: now.Add(c.ttl)}
	}
	c.mu.Unlock()
}
