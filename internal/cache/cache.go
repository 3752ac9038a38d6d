// Package cache provides a keyed TTL cache with idle-based eviction.
//
// Entries stay alive while they are being used: every Get or Put refreshes
// the entry's idle timer, and a background sweep evicts entries that have
// been idle longer than the TTL. The sweep timer is re-armed for the
// earliest remaining deadline, so repeated touches keep pushing eviction
// back instead of piling up timers.
package cache

import (
	"sync"
	"time"
)

// DefaultTTL is used when New is given a non-positive TTL.
const DefaultTTL = 5 * time.Minute

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

type entry[V any] struct {
	value   V
	touched time.Time
}

// Cache is a mutex-guarded map whose entries expire after sitting idle
// for the configured TTL. Construct one per process and pass it by
// reference; all methods are safe for concurrent use.
type Cache[K comparable, V any] struct {
	ttl     time.Duration
	maxSize int
	onEvict func(key K, value V)
	clock   Clock

	mu      sync.Mutex
	entries map[K]*entry[V]
	timer   *time.Timer
	armed   bool
}

// Option configures a Cache.
type Option[K comparable, V any] func(*Cache[K, V])

// WithMaxSize bounds the cache; inserting beyond the bound evicts the
// entry that has been idle the longest.
func WithMaxSize[K comparable, V any](n int) Option[K, V] {
	return func(c *Cache[K, V]) {
		c.maxSize = n
	}
}

// WithOnEvict registers a hook invoked whenever an entry leaves the cache,
// whether by idle expiry, capacity pressure, Delete, Flush or Close. The
// hook runs without the cache lock held and may call back into the cache.
func WithOnEvict[K comparable, V any](fn func(key K, value V)) Option[K, V] {
	return func(c *Cache[K, V]) {
		c.onEvict = fn
	}
}

// withClock replaces the wall clock (for testing).
func withClock[K comparable, V any](clock Clock) Option[K, V] {
	return func(c *Cache[K, V]) {
		c.clock = clock
	}
}

// New creates a cache whose entries expire after ttl of inactivity.
func New[K comparable, V any](ttl time.Duration, opts ...Option[K, V]) *Cache[K, V] {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Cache[K, V]{
		ttl:     ttl,
		clock:   realClock{},
		entries: make(map[K]*entry[V]),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Put stores value under key, replacing any existing entry and resetting
// its idle timer.
func (c *Cache[K, V]) Put(key K, value V) {
	var evictedKey K
	var evictedVal V
	evicted := false

	c.mu.Lock()
	if _, exists := c.entries[key]; !exists && c.maxSize > 0 && len(c.entries) >= c.maxSize {
		evictedKey, evictedVal, evicted = c.evictIdlest()
	}
	c.entries[key] = &entry[V]{value: value, touched: c.clock.Now()}
	c.armLocked(c.ttl)
	c.mu.Unlock()

	if evicted && c.onEvict != nil {
		c.onEvict(evictedKey, evictedVal)
	}
}

// Get returns the live value for key and refreshes its idle timer.
// An entry past its deadline counts as a miss and is evicted on the spot.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		c.mu.Unlock()
		var zero V
		return zero, false
	}
	now := c.clock.Now()
	if !now.Before(e.touched.Add(c.ttl)) {
		delete(c.entries, key)
		c.mu.Unlock()
		if c.onEvict != nil {
			c.onEvict(key, e.value)
		}
		var zero V
		return zero, false
	}
	e.touched = now
	c.mu.Unlock()
	return e.value, true
}

// GetOrNew returns the live value for key, creating it with fn when absent.
// Concurrent callers may race fn for the same key; the last Put wins.
func (c *Cache[K, V]) GetOrNew(key K, fn func() V) V {
	if v, ok := c.Get(key); ok {
		return v
	}
	v := fn()
	c.Put(key, v)
	return v
}

// Delete removes key, invoking the eviction hook if an entry was present.
func (c *Cache[K, V]) Delete(key K) bool {
	c.mu.Lock()
	e, ok := c.entries[key]
	if ok {
		delete(c.entries, key)
	}
	c.mu.Unlock()

	if ok && c.onEvict != nil {
		c.onEvict(key, e.value)
	}
	return ok
}

// Len returns the number of entries, including any not yet swept.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Flush evicts every entry.
func (c *Cache[K, V]) Flush() {
	c.mu.Lock()
	old := c.entries
	c.entries = make(map[K]*entry[V])
	c.mu.Unlock()

	if c.onEvict != nil {
		for k, e := range old {
			c.onEvict(k, e.value)
		}
	}
}

// Close stops the background sweep and evicts all entries.
func (c *Cache[K, V]) Close() {
	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
	}
	c.armed = false
	c.mu.Unlock()
	c.Flush()
}

// sweep evicts idle entries and re-arms the timer for the next deadline.
func (c *Cache[K, V]) sweep() {
	type pair struct {
		key   K
		value V
	}
	var evicted []pair

	c.mu.Lock()
	c.armed = false
	now := c.clock.Now()
	var next time.Time
	for k, e := range c.entries {
		deadline := e.touched.Add(c.ttl)
		if !now.Before(deadline) {
			delete(c.entries, k)
			evicted = append(evicted, pair{k, e.value})
			continue
		}
		if next.IsZero() || deadline.Before(next) {
			next = deadline
		}
	}
	if !next.IsZero() {
		c.armLocked(next.Sub(now))
	}
	c.mu.Unlock()

	if c.onEvict != nil {
		for _, p := range evicted {
			c.onEvict(p.key, p.value)
		}
	}
}

// armLocked schedules a sweep after d unless one is already pending.
// Caller holds mu. The pending sweep may be armed for an earlier deadline
// than d; it re-arms itself for whatever deadline remains.
func (c *Cache[K, V]) armLocked(d time.Duration) {
	if c.armed {
		return
	}
	c.armed = true
	if c.timer == nil {
		c.timer = time.AfterFunc(d, c.sweep)
		return
	}
	c.timer.Reset(d)
}

// evictIdlest removes the entry idle the longest. Caller holds mu.
func (c *Cache[K, V]) evictIdlest() (K, V, bool) {
	var oldestKey K
	var oldest *entry[V]
	for k, e := range c.entries {
		if oldest == nil || e.touched.Before(oldest.touched) {
			oldestKey, oldest = k, e
		}
	}
	if oldest == nil {
		var zero V
		return oldestKey, zero, false
	}
	delete(c.entries, oldestKey)
	return oldestKey, oldest.value, true
}
