package preferences

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrymomot/notifykit/pkg/cache"
)

// DefaultCacheTTL bounds how stale a memoized preference read may be when
// preferences are changed outside this process.
const DefaultCacheTTL = 30 * time.Second

// CachedStore wraps a Store with short-TTL memoization of Get.
// Update writes through, invalidates the cached entry, and notifies
// registered invalidation listeners so dependents (e.g. the orchestrator's
// gating cache) can drop derived decisions for the user.
type CachedStore struct {
	store     Store
	cache     *cache.TTLCache[string, Preferences]
	listeners []func(userID string)
	mu        sync.RWMutex
}

// CachedStoreOption configures a CachedStore.
type CachedStoreOption func(*cachedStoreConfig)

type cachedStoreConfig struct {
	ttl time.Duration
}

// WithCacheTTL overrides the default memoization TTL.
func WithCacheTTL(ttl time.Duration) CachedStoreOption {
	return func(c *cachedStoreConfig) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// NewCachedStore wraps the given store with TTL memoization.
func NewCachedStore(store Store, opts ...CachedStoreOption) *CachedStore {
	cfg := &cachedStoreConfig{ttl: DefaultCacheTTL}
	for _, opt := range opts {
		opt(cfg)
	}

	return &CachedStore{
		store: store,
		cache: cache.NewTTLCache[string, Preferences](cfg.ttl),
	}
}

func (s *CachedStore) Get(ctx context.Context, userID string) (Preferences, error) {
	if p, ok := s.cache.Get(userID); ok {
		return p, nil
	}

	p, err := s.store.Get(ctx, userID)
	if err != nil {
		return Preferences{}, err
	}
	s.cache.Set(userID, p)
	return p, nil
}

func (s *CachedStore) Update(ctx context.Context, p Preferences) error {
	if err := s.store.Update(ctx, p); err != nil {
		return err
	}
	s.Invalidate(p.UserID)
	return nil
}

// Invalidate drops the cached entry for a user and notifies listeners.
// Called by Update and by external preference-change collaborators.
func (s *CachedStore) Invalidate(userID string) {
	s.cache.Delete(userID)

	s.mu.RLock()
	listeners := s.listeners
	s.mu.RUnlock()
	for _, fn := range listeners {
		fn(userID)
	}
}

// OnInvalidate registers a listener called with the user id whenever the
// cached entry for that user is invalidated.
func (s *CachedStore) OnInvalidate(fn func(userID string)) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Close releases the underlying cache resources.
func (s *CachedStore) Close() {
	s.cache.Close()
}
