package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

// DefaultMaxEntries bounds a TTLCache built without WithMaxEntries.
const DefaultMaxEntries = 10000

type entry struct {
	v   []byte
	exp time.Time
}

func (e entry) expiredAt(now time.Time) bool {
	return !e.exp.IsZero() && !now.Before(e.exp)
}

type TTLOption func(*TTLCache)

// WithMaxEntries caps the number of stored bodies; non-positive keeps the default.
func WithMaxEntries(n int) TTLOption {
	return func(c *TTLCache) {
		if n > 0 {
			c.max = n
		}
	}
}

// TTLCache is an in-process BytesCache. Entries whose expiry is at or before now are absent.
// When full, expired entries are swept first, then the entry closest to expiry is evicted.
type TTLCache struct {
	mu  sync.RWMutex
	m   map[string]entry
	max int
	now func() time.Time
}

func NewTTLCache(opts ...TTLOption) *TTLCache {
	c := &TTLCache{m: make(map[string]entry), max: DefaultMaxEntries, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithClock swaps the time source; tests only.
func (c *TTLCache) WithClock(now func() time.Time) *TTLCache {
	c.now = now
	return c
}

func (c *TTLCache) GetBytes(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !e.expiredAt(c.now()) {
		return e.v, true, nil
	}

	c.mu.Lock()
	// A concurrent SetBytes may have replaced the entry since the read lock was released.
	if cur, ok := c.m[key]; ok && cur.expiredAt(c.now()) {
		delete(c.m, key)
	}
	c.mu.Unlock()
	return nil, false, nil
}

func (c *TTLCache) SetBytes(_ context.Context, key string, value []byte, ttl time.Duration) error {
	now := c.now()
	var exp time.Time
	if ttl > 0 {
		exp = now.Add(ttl)
	}
	b := make([]byte, len(value))
	copy(b, value)

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.m[key]; !ok && len(c.m) >= c.max {
		c.makeRoom(now)
	}
	c.m[key] = entry{v: b, exp: exp}
	return nil
}

func (c *TTLCache) DeletePrefix(_ context.Context, prefix string) error {
	c.mu.Lock()
	for k := range c.m {
		if strings.HasPrefix(k, prefix) {
			delete(c.m, k)
		}
	}
	c.mu.Unlock()
	return nil
}

// Len reports the stored entry count, expired ones included until swept.
func (c *TTLCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}

// makeRoom must be called with mu held.
func (c *TTLCache) makeRoom(now time.Time) {
	for k, e := range c.m {
		if e.expiredAt(now) {
			delete(c.m, k)
		}
	}
	if len(c.m) < c.max {
		return
	}

	var (
		victim string
		soon   time.Time
		found  bool
	)
	for k, e := range c.m {
		// Entries without expiry are evicted last.
		if e.exp.IsZero() {
			if !found {
				victim = k
			}
			continue
		}
		if !found || e.exp.Before(soon) {
			victim, soon, found = k, e.exp, true
		}
	}
	delete(c.m, victim)
}
