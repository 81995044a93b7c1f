package cache

import (
	"time"

	"github.com/creasty/defaults"
)

// RedisConfig is filled from `default` tags, then options.
type RedisConfig struct {
	Addr         string        `default:"localhost:6379"`
	PoolSize     int           `default:"10"`
	PoolTimeout  time.Duration `default:"30s"`
	MinIdleConns int           `default:"2"`
	DialTimeout  time.Duration `default:"5s"`
	Prefix       string        `default:"biaslens"`
	Password     string
	DB           int
}

type RedisOption func(*RedisConfig)

func newRedisConfig(opts []RedisOption) *RedisConfig {
	cfg := &RedisConfig{}
	_ = defaults.Set(cfg)
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

func WithRedisAddr(addr string) RedisOption {
	return func(c *RedisConfig) { c.Addr = addr }
}

// WithRedisPassword sets the AUTH password; empty means no AUTH.
func WithRedisPassword(password string) RedisOption {
	return func(c *RedisConfig) { c.Password = password }
}

func WithRedisDB(db int) RedisOption {
	return func(c *RedisConfig) { c.DB = db }
}

// WithRedisPool tunes the connection pool. Non-positive values keep the defaults.
func WithRedisPool(poolSize, minIdleConns int, timeout time.Duration) RedisOption {
	return func(c *RedisConfig) {
		if poolSize > 0 {
			c.PoolSize = poolSize
		}
		if minIdleConns > 0 {
			c.MinIdleConns = minIdleConns
		}
		if timeout > 0 {
			c.PoolTimeout = timeout
		}
	}
}

// WithRedisPrefix namespaces every key as prefix:key so replicas of other services can share a DB.
func WithRedisPrefix(prefix string) RedisOption {
	return func(c *RedisConfig) { c.Prefix = prefix }
}

// MemoryConfig is filled from `default` tags, then options.
type MemoryConfig struct {
	MaxSize         int           `default:"1000"`
	CleanupInterval time.Duration `default:"5m"`
	Clock           func() time.Time
}

type MemoryOption func(*MemoryConfig)

func newMemoryConfig(opts []MemoryOption) *MemoryConfig {
	cfg := &MemoryConfig{}
	_ = defaults.Set(cfg)
	cfg.Clock = time.Now
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// WithMemoryMaxSize caps the entry count; the least recently used entry goes first.
func WithMemoryMaxSize(size int) MemoryOption {
	return func(c *MemoryConfig) {
		if size > 0 {
			c.MaxSize = size
		}
	}
}

// WithMemoryCleanup sets the sweep interval. Zero disables the sweeper.
func WithMemoryCleanup(interval time.Duration) MemoryOption {
	return func(c *MemoryConfig) { c.CleanupInterval = interval }
}

// WithMemoryClock overrides time.Now, used by tests to step past expiry.
func WithMemoryClock(now func() time.Time) MemoryOption {
	return func(c *MemoryConfig) {
		if now != nil {
			c.Clock = now
		}
	}
}

// LayeredOption configures the L1 of a LayeredCache.
type LayeredOption func(*[]MemoryOption)

// WithLayeredMemory passes options to the L1 memory cache.
func WithLayeredMemory(opts ...MemoryOption) LayeredOption {
	return func(l1 *[]MemoryOption) { *l1 = append(*l1, opts...) }
}
