// Package cache provides a generic, thread-safe TTL (time-to-live) cache
// for short-lived memoization of expensive or racy lookups.
//
// The cache is the backing store for two hot paths of the notification
// engine: delivery idempotency keys (preventing duplicate concurrent
// delivery of the same notification) and per-user gating decisions
// (preference and category checks memoized between preference updates).
//
// # Key Features
//
//   - Generic implementation supporting any comparable key type and any value type
//   - Thread-safe operations with mutex-based synchronization
//   - Per-entry TTL with a configurable default
//   - Lazy expiry on read plus an optional background janitor
//   - Zero dependencies - uses only Go standard library
//
// # Usage
//
// Create a cache with a default TTL:
//
//	c := cache.NewTTLCache[string, bool](30 * time.Second)
//	defer c.Close()
//
//	c.Set("delivery_123", true)
//	ok, found := c.Get("delivery_123")
//
// Entries can override the default TTL:
//
//	c.SetWithTTL("gating_7_social", true, 5*time.Minute)
//
// # Expiry
//
// Expired entries are treated as absent by Get and removed lazily on
// access. When constructed with WithCleanupInterval, a background janitor
// additionally sweeps expired entries so memory is reclaimed even for keys
// that are never read again. Close stops the janitor; it is safe to call
// Close on a cache without one.
package cache
