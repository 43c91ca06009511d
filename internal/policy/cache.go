// Bounded prediction cache. The policy is deterministic per observation, so
// identical (quantized) observations can skip inference entirely.
package policy

import (
	"container/list"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/talgya/whisker/internal/cat"
)

// Cache is an LRU over quantized observations.
type Cache struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]*list.Element
	order    *list.List // front = most recent

	hits   atomic.Uint64
	misses atomic.Uint64
}

type cacheEntry struct {
	key    string
	action cat.Action
}

// NewCache creates a cache holding up to capacity entries.
func NewCache(capacity int) *Cache {
	return &Cache{
		capacity: capacity,
		entries:  make(map[string]*list.Element, capacity),
		order:    list.New(),
	}
}

// quantize rounds the observation so near-identical states share a key.
// Gauges to the nearest unit, traits to two decimals.
func quantize(obs Observation) string {
	return fmt.Sprintf("%.0f|%.0f|%.1f|%.1f|%.0f|%.2f|%.2f|%.2f",
		obs[ObsHunger], obs[ObsEnergy],
		obs[ObsDistanceFood], obs[ObsDistanceToy],
		obs[ObsMood], obs[ObsLazy], obs[ObsFoodie], obs[ObsPlayful])
}

// Get returns the cached action for an observation, if present.
func (c *Cache) Get(obs Observation) (cat.Action, bool) {
	key := quantize(obs)

	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		c.misses.Add(1)
		return 0, false
	}
	c.order.MoveToFront(el)
	c.hits.Add(1)
	return el.Value.(*cacheEntry).action, true
}

// Put stores an action for an observation, evicting the least recently used
// entry at capacity.
func (c *Cache) Put(obs Observation, action cat.Action) {
	key := quantize(obs)

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		el.Value.(*cacheEntry).action = action
		c.order.MoveToFront(el)
		return
	}

	c.entries[key] = c.order.PushFront(&cacheEntry{key: key, action: action})
	if c.order.Len() > c.capacity {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}
}

// Stats returns lifetime hit and miss counts.
func (c *Cache) Stats() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}

// Cached wraps a predictor with the cache.
type Cached struct {
	inner Predictor
	cache *Cache
}

// NewCached wraps pred with an LRU prediction cache.
func NewCached(pred Predictor, capacity int) *Cached {
	return &Cached{inner: pred, cache: NewCache(capacity)}
}

func (c *Cached) Name() string { return c.inner.Name() }

// CacheStats exposes the underlying cache counters.
func (c *Cached) CacheStats() (hits, misses uint64) {
	return c.cache.Stats()
}

func (c *Cached) Predict(obs Observation) (cat.Action, error) {
	if a, ok := c.cache.Get(obs); ok {
		return a, nil
	}
	a, err := c.inner.Predict(obs)
	if err != nil {
		return 0, err
	}
	c.cache.Put(obs, a)
	return a, nil
}
