package cache

import (
	"context"
	"errors"
	"time"

	pkgcache "BiasLens/pkg/cache"
)

// SharedCache stores response bodies in a pkg/cache.Service (Redis or layered)
// so every replica serves the same cached responses.
type SharedCache struct {
	svc pkgcache.Service
}

func NewSharedCache(svc pkgcache.Service) *SharedCache {
	return &SharedCache{svc: svc}
}

func (s *SharedCache) GetBytes(ctx context.Context, key string) ([]byte, bool, error) {
	var b []byte
	if err := s.svc.Get(ctx, key, &b); err != nil {
		if errors.Is(err, pkgcache.ErrCacheMiss) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return b, true, nil
}

func (s *SharedCache) SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.svc.Set(ctx, key, value, ttl)
}

// DeletePrefix removes every key under prefix with a SCAN-backed pattern delete.
func (s *SharedCache) DeletePrefix(ctx context.Context, prefix string) error {
	return s.svc.DeleteByPattern(ctx, pkgcache.BuildPattern(prefix))
}
