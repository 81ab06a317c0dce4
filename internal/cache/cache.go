package cache

import (
	"sync"
	"time"

	"github.com/smallbiznis/inkpost/internal/clock"
)

// Cache is a small keyed store with per-entry expiry.
type Cache[K comparable, V any] interface {
	Get(key K) (V, bool)
	Set(key K, value V, ttl time.Duration)
	// Take returns the value and removes it in one step.
	Take(key K) (V, bool)
	Delete(key K)
}

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

type ttlCache[K comparable, V any] struct {
	mu    sync.Mutex
	clock clock.Clock
	items map[K]entry[V]
}

// NewTTLCache returns an in-memory Cache. Expired entries are dropped lazily
// on access and on every Set.
func NewTTLCache[K comparable, V any](clk clock.Clock) Cache[K, V] {
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &ttlCache[K, V]{
		clock: clk,
		items: make(map[K]entry[V]),
	}
}

func (c *ttlCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lookup(key, false)
}

func (c *ttlCache[K, V]) Take(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lookup(key, true)
}

func (c *ttlCache[K, V]) Set(key K, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	for k, e := range c.items {
		if !now.Before(e.expiresAt) {
			delete(c.items, k)
		}
	}
	if ttl <= 0 {
		return
	}
	c.items[key] = entry[V]{value: value, expiresAt: now.Add(ttl)}
}

func (c *ttlCache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

func (c *ttlCache[K, V]) lookup(key K, remove bool) (V, bool) {
	var zero V
	e, ok := c.items[key]
	if !ok {
		return zero, false
	}
	if !c.clock.Now().Before(e.expiresAt) {
		delete(c.items, key)
		return zero, false
	}
	if remove {
		delete(c.items, key)
	}
	return e.value, true
}
