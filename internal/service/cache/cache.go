package cache

import (
	"context"
	"time"
)

// BytesCache is a minimal cache API storing raw response bodies with TTL.
// A miss is (nil, false, nil); err is reserved for backend failures.
type BytesCache interface {
	GetBytes(ctx context.Context, key string) (b []byte, ok bool, err error)
	SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// DeletePrefix drops every entry whose key starts with prefix.
	DeletePrefix(ctx context.Context, prefix string) error
}
