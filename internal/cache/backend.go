package cache

import (
	"context"
	"fmt"
	"time"

	"marquee/internal/config"
	"marquee/internal/services"
)

// Backend stores opaque envelope bytes under string keys. Implementations may
// drop entries at any time (eviction, restart, server-side expiry); the cache
// treats every entry as regenerable.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
	Kind() string
}

// NewBackend constructs the backend selected by configuration.
func NewBackend(cfg *config.Config) (Backend, error) {
	switch cfg.Cache.Backend {
	case "memory":
		return NewMemoryBackend(cfg.Cache.Capacity)
	case "redis":
		return NewRedisBackend(cfg.Cache.Redis)
	default:
		return nil, services.Wrap(services.ErrConfiguration, "cache", "backend",
			fmt.Sprintf("unknown backend %q", cfg.Cache.Backend), nil)
	}
}
