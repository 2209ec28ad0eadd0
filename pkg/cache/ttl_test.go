package cache_test

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/cache"
)

func TestTTLCache_SetGet(t *testing.T) {
	c := cache.NewTTLCache[string, int](time.Minute)
	defer c.Close()

	c.Set("a", 1)
	c.Set("b", 2)

	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	v, ok = c.Get("b")
	require.True(t, ok)
	assert.Equal(t, 2, v)

	_, ok = c.Get("missing")
	assert.False(t, ok)

	// Overwrite replaces the value.
	c.Set("a", 10)
	v, ok = c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 10, v)
}

func TestTTLCache_Expiry(t *testing.T) {
	c := cache.NewTTLCache[string, string](10 * time.Millisecond)
	defer c.Close()

	c.Set("short", "gone soon")
	c.SetWithTTL("long", "still here", time.Minute)

	_, ok := c.Get("short")
	require.True(t, ok)

	time.Sleep(25 * time.Millisecond)

	_, ok = c.Get("short")
	assert.False(t, ok, "expired entry must be invisible")

	v, ok := c.Get("long")
	require.True(t, ok)
	assert.Equal(t, "still here", v)
}

func TestTTLCache_Delete(t *testing.T) {
	c := cache.NewTTLCache[string, int](time.Minute)
	defer c.Close()

	c.Set("a", 1)
	assert.True(t, c.Delete("a"))
	assert.False(t, c.Delete("a"), "second delete is a miss")

	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestTTLCache_DeleteFunc(t *testing.T) {
	c := cache.NewTTLCache[string, bool](time.Minute)
	defer c.Close()

	c.Set("gating_7_social", true)
	c.Set("gating_7_system", false)
	c.Set("gating_9_social", true)

	removed := c.DeleteFunc(func(key string) bool {
		return strings.HasPrefix(key, "gating_7_")
	})
	assert.Equal(t, 2, removed)

	_, ok := c.Get("gating_7_social")
	assert.False(t, ok)
	_, ok = c.Get("gating_9_social")
	assert.True(t, ok)
}

func TestTTLCache_Janitor(t *testing.T) {
	c := cache.NewTTLCache[string, int](5*time.Millisecond, cache.WithCleanupInterval(10*time.Millisecond))
	defer c.Close()

	c.Set("a", 1)
	c.Set("b", 2)

	assert.Eventually(t, func() bool {
		return c.Len() == 0
	}, time.Second, 10*time.Millisecond, "janitor should sweep expired entries")
}

func TestTTLCache_Concurrent(t *testing.T) {
	c := cache.NewTTLCache[int, int](time.Minute)
	defer c.Close()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			c.Set(n, n)
			c.Get(n)
			c.Delete(n)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 0, c.Len())
}

func TestTTLCache_InvalidTTLPanics(t *testing.T) {
	assert.Panics(t, func() {
		cache.NewTTLCache[string, int](0)
	})
}
