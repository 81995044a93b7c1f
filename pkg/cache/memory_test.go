package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 14, 30, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type sample struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
}

func newTestMemory(clock *fakeClock, opts ...MemoryOption) *MemoryCache {
	opts = append([]MemoryOption{WithMemoryCleanup(0), WithMemoryClock(clock.Now)}, opts...)
	return NewMemoryCache(opts...)
}

func TestMemoryCache_RoundTripStruct(t *testing.T) {
	ctx := context.Background()
	mc := newTestMemory(newFakeClock())
	defer mc.Close()

	require.NoError(t, mc.Set(ctx, "quote:AAPL", sample{Symbol: "AAPL", Price: 185.25}, time.Minute))

	var got sample
	require.NoError(t, mc.Get(ctx, "quote:AAPL", &got))
	assert.Equal(t, sample{Symbol: "AAPL", Price: 185.25}, got)
}

func TestMemoryCache_ExpiryBoundaryIsMiss(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	mc := newTestMemory(clock)
	defer mc.Close()

	require.NoError(t, mc.Set(ctx, "k", "v", 10*time.Second))

	clock.Advance(9 * time.Second)
	var s string
	require.NoError(t, mc.Get(ctx, "k", &s))
	assert.Equal(t, "v", s)

	clock.Advance(time.Second)
	err := mc.Get(ctx, "k", &s)
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.Equal(t, 0, mc.Len(), "expired entry is dropped on read")
}

func TestMemoryCache_StoredValueIsSnapshot(t *testing.T) {
	ctx := context.Background()
	mc := newTestMemory(newFakeClock())
	defer mc.Close()

	buf := []byte("abc")
	require.NoError(t, mc.Set(ctx, "raw", buf, time.Minute))
	buf[0] = 'z'

	var got []byte
	require.NoError(t, mc.Get(ctx, "raw", &got))
	assert.Equal(t, "abc", string(got))
}

func TestMemoryCache_TTL(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	mc := newTestMemory(clock)
	defer mc.Close()

	_, err := mc.TTL(ctx, "missing")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, mc.Set(ctx, "k", 1, 30*time.Second))
	clock.Advance(12 * time.Second)

	ttl, err := mc.TTL(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, 18*time.Second, ttl)
}

func TestMemoryCache_DeleteByPattern(t *testing.T) {
	ctx := context.Background()
	mc := newTestMemory(newFakeClock())
	defer mc.Close()

	for _, k := range []string{"signals:u1", "signals:u1:page2", "signals:u2", "quote:AAPL"} {
		require.NoError(t, mc.Set(ctx, k, k, time.Minute))
	}

	require.NoError(t, mc.DeleteByPattern(ctx, BuildPattern("signals:u1")))

	var s string
	assert.ErrorIs(t, mc.Get(ctx, "signals:u1", &s), ErrCacheMiss)
	assert.ErrorIs(t, mc.Get(ctx, "signals:u1:page2", &s), ErrCacheMiss)
	assert.NoError(t, mc.Get(ctx, "signals:u2", &s))
	assert.NoError(t, mc.Get(ctx, "quote:AAPL", &s))

	assert.Error(t, mc.DeleteByPattern(ctx, "["))
}

func TestMemoryCache_EvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	mc := newTestMemory(clock, WithMemoryMaxSize(2))
	defer mc.Close()

	require.NoError(t, mc.Set(ctx, "a", 1, time.Minute))
	clock.Advance(time.Second)
	require.NoError(t, mc.Set(ctx, "b", 2, time.Minute))
	clock.Advance(time.Second)

	var v int
	require.NoError(t, mc.Get(ctx, "a", &v))
	clock.Advance(time.Second)

	require.NoError(t, mc.Set(ctx, "c", 3, time.Minute))

	assert.Equal(t, 2, mc.Len())
	assert.ErrorIs(t, mc.Get(ctx, "b", &v), ErrCacheMiss)
	require.NoError(t, mc.Get(ctx, "a", &v))
	assert.Equal(t, 1, v)
}

func TestMemoryCache_OverwriteIsLastWriteWins(t *testing.T) {
	ctx := context.Background()
	mc := newTestMemory(newFakeClock(), WithMemoryMaxSize(1))
	defer mc.Close()

	require.NoError(t, mc.Set(ctx, "k", "first", time.Minute))
	require.NoError(t, mc.Set(ctx, "k", "second", time.Minute))

	var s string
	require.NoError(t, mc.Get(ctx, "k", &s))
	assert.Equal(t, "second", s)
}

func TestMemoryCache_SweepRemovesExpired(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	mc := newTestMemory(clock)
	defer mc.Close()

	require.NoError(t, mc.Set(ctx, "short", 1, time.Second))
	require.NoError(t, mc.Set(ctx, "long", 1, time.Hour))
	clock.Advance(2 * time.Second)

	mc.sweep()
	assert.Equal(t, 1, mc.Len())
}

func TestGenerateKeyWithParams(t *testing.T) {
	assert.Equal(t, "intraday:AAPL:5min", GenerateKeyWithParams("intraday", "AAPL", "5min"))
	assert.Equal(t, "quote:MSFT", GenerateKey("quote", "MSFT"))
	assert.Equal(t, "quote:BRK.B*", BuildPattern("quote:BRK.B"))
	assert.Equal(t, `odd\*key\?*`, BuildPattern("odd*key?"))
}
