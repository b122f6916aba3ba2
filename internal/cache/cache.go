package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"marquee/internal/logging"
	"marquee/internal/services"
)

// envelope is the stored entry shape. A negative envelope records a
// not-found result and carries no payload.
type envelope struct {
	Payload   json.RawMessage `json:"payload,omitempty"`
	Negative  bool            `json:"negative,omitempty"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// Cache coordinates envelope storage, tier TTLs, and per-key single-flight.
// Construct one per process at service start; it holds nothing that cannot
// be recomputed from the store and the upstream provider.
type Cache struct {
	backend Backend
	policy  Policy
	logger  *slog.Logger
	clock   func() time.Time

	flights singleflight.Group
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock overrides the time source used for expiry stamping and checks.
func WithClock(clock func() time.Time) Option {
	return func(c *Cache) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// New creates a cache over the supplied backend.
func New(backend Backend, policy Policy, logger *slog.Logger, opts ...Option) (*Cache, error) {
	if backend == nil {
		return nil, services.Wrap(services.ErrConfiguration, "cache", "new", "backend required", nil)
	}
	c := &Cache{
		backend: backend,
		policy:  policy,
		logger:  logging.NewComponentLogger(logger, "cache"),
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Backend reports the backing store kind for diagnostics.
func (c *Cache) Backend() string {
	return c.backend.Kind()
}

// Close releases the backing store.
func (c *Cache) Close() error {
	return c.backend.Close()
}

// GetOrCompute returns the cached value for key, or runs compute under a
// per-key single flight and caches its result with the tier's TTL. The
// returned bool reports whether the value came from a live cache entry.
//
// A not-found result from compute is cached as a negative entry with the
// short negative TTL and the not-found error is returned; any other compute
// error is propagated to every waiter and nothing is cached. Cancellation of
// one waiter's context releases only that waiter; the shared compute keeps
// running for the rest.
func GetOrCompute[T any](ctx context.Context, c *Cache, key string, tier Tier, compute func(context.Context) (T, error)) (T, bool, error) {
	var zero T
	if c == nil {
		return zero, false, services.Wrap(services.ErrConfiguration, "cache", "get", "cache not initialized", nil)
	}
	ttl, ok := c.policy.TTL(tier)
	if !ok {
		return zero, false, services.Wrap(services.ErrValidation, "cache", "get", fmt.Sprintf("unknown tier %q", tier), nil)
	}

	if env := c.lookup(ctx, key); env != nil {
		if env.Negative {
			return zero, true, negativeHit(key)
		}
		var value T
		if err := json.Unmarshal(env.Payload, &value); err == nil {
			return value, true, nil
		}
		// Undecodable envelope, likely written by an older build. Drop it
		// and recompute.
		_ = c.backend.Delete(ctx, key)
	}

	// The flight runs on a detached context so that the triggering caller
	// going away cannot cancel the fetch other waiters share.
	flightCtx := context.WithoutCancel(ctx)
	ch := c.flights.DoChan(key, func() (any, error) {
		return c.fill(flightCtx, key, ttl, func(fctx context.Context) ([]byte, error) {
			value, err := compute(fctx)
			if err != nil {
				return nil, err
			}
			payload, err := json.Marshal(value)
			if err != nil {
				return nil, fmt.Errorf("encode %q: %w", key, err)
			}
			return payload, nil
		})
	})

	select {
	case <-ctx.Done():
		return zero, false, ctx.Err()
	case result := <-ch:
		if result.Err != nil {
			return zero, false, result.Err
		}
		var value T
		if err := json.Unmarshal(result.Val.([]byte), &value); err != nil {
			return zero, false, fmt.Errorf("decode %q: %w", key, err)
		}
		return value, false, nil
	}
}

// fill recomputes one key inside its flight. A shared backend may have been
// populated by another instance while this caller queued, so the entry is
// checked once more before computing.
func (c *Cache) fill(ctx context.Context, key string, ttl time.Duration, compute func(context.Context) ([]byte, error)) ([]byte, error) {
	if env := c.lookup(ctx, key); env != nil {
		if env.Negative {
			return nil, negativeHit(key)
		}
		return env.Payload, nil
	}

	payload, err := compute(ctx)
	switch {
	case err == nil:
		c.write(ctx, key, envelope{Payload: payload, ExpiresAt: c.clock().Add(ttl)}, ttl)
		return payload, nil
	case services.IsNotFound(err):
		negTTL := c.policy.Negative()
		c.write(ctx, key, envelope{Negative: true, ExpiresAt: c.clock().Add(negTTL)}, negTTL)
		return nil, err
	default:
		return nil, err
	}
}

// lookup returns the live envelope for key, or nil on miss. Expired and
// corrupt entries are removed on the way out.
func (c *Cache) lookup(ctx context.Context, key string) *envelope {
	raw, found, err := c.backend.Get(ctx, key)
	if err != nil {
		// A backend outage degrades to recomputing, never to failing reads.
		c.logger.Warn("cache read failed", logging.String(logging.FieldCacheKey, key), logging.Error(err))
		return nil
	}
	if !found {
		return nil
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		_ = c.backend.Delete(ctx, key)
		return nil
	}
	if !env.ExpiresAt.After(c.clock()) {
		_ = c.backend.Delete(ctx, key)
		return nil
	}
	return &env
}

func (c *Cache) write(ctx context.Context, key string, env envelope, ttl time.Duration) {
	raw, err := json.Marshal(env)
	if err != nil {
		c.logger.Warn("cache encode failed", logging.String(logging.FieldCacheKey, key), logging.Error(err))
		return
	}
	if err := c.backend.Set(ctx, key, raw, ttl); err != nil {
		// The computed value is still returned to callers; the next lookup
		// recomputes.
		c.logger.Warn("cache write failed", logging.String(logging.FieldCacheKey, key), logging.Error(err))
	}
}

func negativeHit(key string) error {
	return services.Wrap(services.ErrNotFound, "cache", "get", fmt.Sprintf("%s: negative entry", key), nil)
}
