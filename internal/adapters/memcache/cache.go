// Package memcache is an in-process stand-in for Redis, used when REDIS_HOST
// is unset and in tests.
package memcache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"greencart/pkg/errors"
)

type entry struct {
	data      []byte
	expiresAt time.Time
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// sweepEvery bounds how often Set scans for expired entries
const sweepEvery = time.Minute

// Cache is a TTL map with the same JSON semantics as the Redis client.
// Expired entries are removed when read and by a periodic sweep on Set.
type Cache struct {
	mu        sync.RWMutex
	items     map[string]entry
	now       func() time.Time
	lastSweep time.Time
}

// New creates an empty cache
func New() *Cache {
	return &Cache{items: make(map[string]entry), now: time.Now}
}

// Set stores a JSON encoded value. A zero ttl never expires.
func (c *Cache) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	e := entry{data: data}
	if ttl > 0 {
		e.expiresAt = c.now().Add(ttl)
	}

	now := c.now()
	c.mu.Lock()
	if now.Sub(c.lastSweep) >= sweepEvery {
		c.lastSweep = now
		for k, old := range c.items {
			if old.expired(now) {
				delete(c.items, k)
			}
		}
	}
	c.items[key] = e
	c.mu.Unlock()
	return nil
}

// Get decodes a value into dest; missing or expired keys yield errors.ErrNotFound
func (c *Cache) Get(_ context.Context, key string, dest interface{}) error {
	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		return errors.ErrNotFound
	}
	if e.expired(c.now()) {
		c.evict(key, e)
		return errors.ErrNotFound
	}
	return json.Unmarshal(e.data, dest)
}

// Delete removes keys
func (c *Cache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	for _, k := range keys {
		delete(c.items, k)
	}
	c.mu.Unlock()
	return nil
}

// Exists reports whether an unexpired key is present
func (c *Cache) Exists(_ context.Context, key string) (bool, error) {
	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()
	if ok && e.expired(c.now()) {
		c.evict(key, e)
		return false, nil
	}
	return ok, nil
}

// evict deletes key unless it was rewritten since e was read
func (c *Cache) evict(key string, e entry) {
	c.mu.Lock()
	if cur, ok := c.items[key]; ok && cur.expiresAt.Equal(e.expiresAt) {
		delete(c.items, key)
	}
	c.mu.Unlock()
}

func (c *Cache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
