package repository

import (
	"context"
	"errors"
	"time"

	drepo "BiasLens/internal/domain/repository"
	pkgcache "BiasLens/pkg/cache"
)

// QuoteCache adapts a pkg/cache.Service to the resolver's Cache port.
type QuoteCache struct {
	svc pkgcache.Service
}

var _ drepo.Cache = (*QuoteCache)(nil)

func NewQuoteCache(svc pkgcache.Service) *QuoteCache {
	return &QuoteCache{svc: svc}
}

func (c *QuoteCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if err := c.svc.Get(ctx, key, dest); err != nil {
		if errors.Is(err, pkgcache.ErrCacheMiss) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (c *QuoteCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return c.svc.Set(ctx, key, value, ttl)
}
