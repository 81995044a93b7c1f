package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var (
	ErrCacheMiss = errors.New("cache: key not found")
)

// DefaultExpiration is applied when Set is called with a non-positive ttl.
const DefaultExpiration = 24 * time.Hour

// Service defines cache operations interface.
type Service interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
	DeleteByPattern(ctx context.Context, pattern string) error
	// TTL returns the remaining lifetime of key, or ErrCacheMiss when absent.
	TTL(ctx context.Context, key string) (time.Duration, error)
	Close() error
}

func encode(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case string:
		return []byte(v), nil
	case *string:
		return []byte(*v), nil
	case []byte:
		out := make([]byte, len(v))
		copy(out, v)
		return out, nil
	case *[]byte:
		return encode(*v)
	default:
		return json.Marshal(value)
	}
}

func decode(data []byte, dest interface{}) error {
	switch d := dest.(type) {
	case *string:
		*d = string(data)
		return nil
	case *[]byte:
		out := make([]byte, len(data))
		copy(out, data)
		*d = out
		return nil
	default:
		return json.Unmarshal(data, dest)
	}
}
