package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayeredCache_BackfillKeepsRemainingTTL(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	l2 := newTestMemory(clock)
	lc := NewLayeredCache(l2, WithLayeredMemory(WithMemoryCleanup(0), WithMemoryClock(clock.Now)))
	defer lc.Close()

	// Written behind the layered cache's back, as another replica would.
	require.NoError(t, l2.Set(ctx, "quote:AAPL", sample{Symbol: "AAPL", Price: 10}, 30*time.Second))
	clock.Advance(20 * time.Second)

	var got sample
	require.NoError(t, lc.Get(ctx, "quote:AAPL", &got))
	assert.Equal(t, "AAPL", got.Symbol)

	ttl, err := lc.memCache.TTL(ctx, "quote:AAPL")
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, ttl)

	clock.Advance(10 * time.Second)
	assert.ErrorIs(t, lc.Get(ctx, "quote:AAPL", &got), ErrCacheMiss)
}

func TestLayeredCache_WriteThroughAndDelete(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	l2 := newTestMemory(clock)
	lc := NewLayeredCache(l2, WithLayeredMemory(WithMemoryCleanup(0), WithMemoryClock(clock.Now)))
	defer lc.Close()

	require.NoError(t, lc.Set(ctx, "signals:u1", []byte(`{"ok":true}`), time.Minute))

	var raw []byte
	require.NoError(t, l2.Get(ctx, "signals:u1", &raw))
	assert.JSONEq(t, `{"ok":true}`, string(raw))

	require.NoError(t, lc.Get(ctx, "signals:u1", &raw))

	require.NoError(t, lc.DeleteByPattern(ctx, "signals:*"))
	assert.ErrorIs(t, lc.Get(ctx, "signals:u1", &raw), ErrCacheMiss)
}
