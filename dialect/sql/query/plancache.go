package query

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// PlanCache is a bounded LRU cache of compiled plans keyed by the printed
// form of the query tree. Plans built after a parameter value was inspected
// are never stored. It is safe for concurrent use.
type PlanCache[V any] struct {
	lru    *lru.Cache[string, V]
	hits   atomic.Int64
	misses atomic.Int64
}

// NewPlanCache returns a cache holding up to size plans. A zero size
// returns a cache that stores nothing.
func NewPlanCache[V any](size int) (*PlanCache[V], error) {
	c := &PlanCache[V]{}
	if size == 0 {
		return c, nil
	}
	l, err := lru.New[string, V](size)
	if err != nil {
		return nil, err
	}
	c.lru = l
	return c, nil
}

// Get returns the plan stored under key.
func (c *PlanCache[V]) Get(key string) (V, bool) {
	if c.lru != nil {
		if v, ok := c.lru.Get(key); ok {
			c.hits.Add(1)
			return v, true
		}
	}
	c.misses.Add(1)
	var zero V
	return zero, false
}

// Set stores v under key unless building it inspected parameter values of
// bag. It reports whether v was stored.
func (c *PlanCache[V]) Set(key string, v V, bag *ParameterBag) bool {
	if c.lru == nil || bag != nil && bag.CachingDisabled() {
		return false
	}
	c.lru.Add(key, v)
	return true
}

// Delete removes the plan stored under key.
func (c *PlanCache[V]) Delete(key string) {
	if c.lru != nil {
		c.lru.Remove(key)
	}
}

// Clear removes all plans.
func (c *PlanCache[V]) Clear() {
	if c.lru != nil {
		c.lru.Purge()
	}
}

// Len returns the number of stored plans.
func (c *PlanCache[V]) Len() int {
	if c.lru == nil {
		return 0
	}
	return c.lru.Len()
}

// CacheStats is a snapshot of the cache counters.
type CacheStats struct {
	Hits, Misses int64
	Len          int
}

// Stats returns a snapshot of the cache counters.
func (c *PlanCache[V]) Stats() CacheStats {
	return CacheStats{Hits: c.hits.Load(), Misses: c.misses.Load(), Len: c.Len()}
}
