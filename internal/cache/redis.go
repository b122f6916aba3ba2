package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"marquee/internal/config"
)

// redisBackend shares envelopes across process instances. Entries expire
// server-side with the envelope TTL; the envelope timestamp remains the
// authoritative bound, so clock skew between instances heals within one TTL.
type redisBackend struct {
	client *redis.Client
}

// NewRedisBackend connects to the shared cache store.
func NewRedisBackend(cfg config.Redis) (Backend, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &redisBackend{client: client}, nil
}

func (r *redisBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %q: %w", key, err)
	}
	return value, true, nil
}

func (r *redisBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %q: %w", key, err)
	}
	return nil
}

func (r *redisBackend) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del %q: %w", key, err)
	}
	return nil
}

func (r *redisBackend) Close() error {
	return r.client.Close()
}

func (r *redisBackend) Kind() string { return "redis" }
