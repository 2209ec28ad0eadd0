package cache

import (
	"sync"
	"time"
)

type ttlEntry[V any] struct {
	value     V
	expiresAt time.Time
}

func (e ttlEntry[V]) expired(now time.Time) bool {
	return now.After(e.expiresAt)
}

// TTLCache is a thread-safe cache whose entries expire after a per-entry
// time-to-live. Expired entries are invisible to Get and removed lazily.
type TTLCache[K comparable, V any] struct {
	defaultTTL time.Duration
	items      map[K]ttlEntry[V]
	mu         sync.Mutex
	janitor    *time.Ticker
	done       chan struct{}
	closeOnce  sync.Once
}

// TTLOption configures a TTLCache.
type TTLOption func(*ttlConfig)

type ttlConfig struct {
	cleanupInterval time.Duration
}

// WithCleanupInterval starts a background janitor that sweeps expired
// entries at the given interval. Without it, expired entries are only
// reclaimed when their key is accessed again.
func WithCleanupInterval(interval time.Duration) TTLOption {
	return func(c *ttlConfig) {
		c.cleanupInterval = interval
	}
}

// NewTTLCache creates a TTL cache with the given default TTL.
// The TTL must be positive, otherwise it panics.
func NewTTLCache[K comparable, V any](defaultTTL time.Duration, opts ...TTLOption) *TTLCache[K, V] {
	if defaultTTL <= 0 {
		panic("TTL cache default TTL must be positive")
	}

	cfg := &ttlConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	c := &TTLCache[K, V]{
		defaultTTL: defaultTTL,
		items:      make(map[K]ttlEntry[V]),
		done:       make(chan struct{}),
	}

	if cfg.cleanupInterval > 0 {
		c.janitor = time.NewTicker(cfg.cleanupInterval)
		go c.cleanupLoop()
	}

	return c
}

// Set stores a value with the default TTL, replacing any existing entry.
func (c *TTLCache[K, V]) Set(key K, value V) {
	c.SetWithTTL(key, value, c.defaultTTL)
}

// SetWithTTL stores a value with an explicit TTL, replacing any existing entry.
// Non-positive TTLs fall back to the default.
func (c *TTLCache[K, V]) SetWithTTL(key K, value V, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = ttlEntry[V]{value: value, expiresAt: time.Now().Add(ttl)}
}

// Get retrieves a value if present and not expired.
// Returns the value and true if found, zero value and false otherwise.
func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	if entry.expired(time.Now()) {
		delete(c.items, key)
		var zero V
		return zero, false
	}
	return entry.value, true
}

// Delete removes an entry. Returns true if the key existed and had not expired.
func (c *TTLCache[K, V]) Delete(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.items[key]
	if !ok {
		return false
	}
	delete(c.items, key)
	return !entry.expired(time.Now())
}

// DeleteFunc removes every entry whose key matches the predicate and
// returns the number of removed entries. Used to invalidate key families,
// e.g. all gating decisions for one user.
func (c *TTLCache[K, V]) DeleteFunc(match func(key K) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key := range c.items {
		if match(key) {
			delete(c.items, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of non-expired entries.
func (c *TTLCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	n := 0
	for _, entry := range c.items {
		if !entry.expired(now) {
			n++
		}
	}
	return n
}

// Clear removes all entries.
func (c *TTLCache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[K]ttlEntry[V])
}

// Close stops the background janitor if one was started.
// The cache remains usable after Close; only the sweeping stops.
func (c *TTLCache[K, V]) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.janitor != nil {
			c.janitor.Stop()
		}
	})
}

func (c *TTLCache[K, V]) cleanupLoop() {
	for {
		select {
		case <-c.done:
			return
		case <-c.janitor.C:
			c.removeExpired()
		}
	}
}

func (c *TTLCache[K, V]) removeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for key, entry := range c.items {
		if entry.expired(now) {
			delete(c.items, key)
		}
	}
}
