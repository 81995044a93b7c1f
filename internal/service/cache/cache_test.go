package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	pkgcache "BiasLens/pkg/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTTLCache_ExpiresAtBoundary(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	c := NewTTLCache().WithClock(func() time.Time { return now })

	require.NoError(t, c.SetBytes(ctx, "signals:u1", []byte("body"), 30*time.Second))

	b, ok, err := c.GetBytes(ctx, "signals:u1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "body", string(b))

	now = now.Add(30 * time.Second)
	_, ok, err = c.GetBytes(ctx, "signals:u1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTTLCache_DeletePrefix(t *testing.T) {
	ctx := context.Background()
	c := NewTTLCache()
	require.NoError(t, c.SetBytes(ctx, "signals:u1:latest", []byte("1"), time.Minute))
	require.NoError(t, c.SetBytes(ctx, "signals:u1:page2", []byte("2"), time.Minute))
	require.NoError(t, c.SetBytes(ctx, "signals:u10:latest", []byte("3"), time.Minute))

	require.NoError(t, c.DeletePrefix(ctx, "signals:u1:"))

	_, ok, _ := c.GetBytes(ctx, "signals:u1:latest")
	assert.False(t, ok)
	_, ok, _ = c.GetBytes(ctx, "signals:u1:page2")
	assert.False(t, ok)
	_, ok, _ = c.GetBytes(ctx, "signals:u10:latest")
	assert.True(t, ok, "a user id sharing the prefix characters is untouched")
}

func TestTTLCache_ExpiredReadKeepsFreshWrite(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	c := NewTTLCache().WithClock(clock)
	require.NoError(t, c.SetBytes(ctx, "k", []byte("old"), time.Second))

	mu.Lock()
	now = now.Add(2 * time.Second)
	mu.Unlock()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() { defer wg.Done(); _, _, _ = c.GetBytes(ctx, "k") }()
		go func() { defer wg.Done(); _ = c.SetBytes(ctx, "k", []byte("new"), time.Minute) }()
	}
	wg.Wait()

	b, ok, err := c.GetBytes(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok, "a write racing an expired read must survive")
	assert.Equal(t, "new", string(b))
}

func TestTTLCache_BoundedSize(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	c := NewTTLCache(WithMaxEntries(2)).WithClock(func() time.Time { return now })

	require.NoError(t, c.SetBytes(ctx, "short", []byte("1"), time.Second))
	require.NoError(t, c.SetBytes(ctx, "long", []byte("2"), time.Hour))
	require.NoError(t, c.SetBytes(ctx, "third", []byte("3"), time.Minute))

	assert.Equal(t, 2, c.Len())
	_, ok, _ := c.GetBytes(ctx, "short")
	assert.False(t, ok, "the entry closest to expiry is evicted")

	now = now.Add(2 * time.Minute)
	require.NoError(t, c.SetBytes(ctx, "fourth", []byte("4"), time.Minute))
	assert.Equal(t, 2, c.Len(), "expired entries are swept before evicting live ones")
	_, ok, _ = c.GetBytes(ctx, "long")
	assert.True(t, ok)
}

func TestSharedCache_OverMemoryService(t *testing.T) {
	ctx := context.Background()
	mc := pkgcache.NewMemoryCache(pkgcache.WithMemoryCleanup(0))
	defer mc.Close()
	sc := NewSharedCache(mc)

	_, ok, err := sc.GetBytes(ctx, "signals:u1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, sc.SetBytes(ctx, "signals:u1", []byte(`{"status":"success"}`), time.Minute))
	b, ok, err := sc.GetBytes(ctx, "signals:u1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"status":"success"}`, string(b))

	require.NoError(t, sc.SetBytes(ctx, "signals:u1:page2", []byte(`{}`), time.Minute))
	require.NoError(t, sc.SetBytes(ctx, "signals:u10", []byte(`{}`), time.Minute))
	require.NoError(t, sc.DeletePrefix(ctx, "signals:u1:"))
	_, ok, _ = sc.GetBytes(ctx, "signals:u1:page2")
	assert.False(t, ok)
	_, ok, _ = sc.GetBytes(ctx, "signals:u10")
	assert.True(t, ok)
}
