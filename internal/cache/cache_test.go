package cache_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"marquee/internal/cache"
	"marquee/internal/logging"
	"marquee/internal/services"
	"marquee/internal/testsupport"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestCache(t *testing.T, capacity int) (*cache.Cache, *fakeClock) {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithCacheCapacity(capacity))
	backend, err := cache.NewMemoryBackend(cfg.Cache.Capacity)
	if err != nil {
		t.Fatalf("NewMemoryBackend: %v", err)
	}
	clock := newFakeClock()
	c, err := cache.New(backend, cache.PolicyFromConfig(cfg), logging.NewNop(), cache.WithClock(clock.Now))
	if err != nil {
		t.Fatalf("cache.New: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c, clock
}

func TestGetOrComputeCachesSuccess(t *testing.T) {
	c, _ := newTestCache(t, 16)
	ctx := context.Background()

	var calls atomic.Int32
	compute := func(context.Context) (string, error) {
		calls.Add(1)
		return "value", nil
	}

	value, hit, err := cache.GetOrCompute(ctx, c, "detail:id=550", cache.TierDetail, compute)
	if err != nil {
		t.Fatalf("first GetOrCompute: %v", err)
	}
	if hit {
		t.Fatal("first call reported a cache hit")
	}
	if value != "value" {
		t.Fatalf("value = %q, want %q", value, "value")
	}

	value, hit, err = cache.GetOrCompute(ctx, c, "detail:id=550", cache.TierDetail, compute)
	if err != nil {
		t.Fatalf("second GetOrCompute: %v", err)
	}
	if !hit {
		t.Fatal("second call missed the cache")
	}
	if value != "value" {
		t.Fatalf("cached value = %q, want %q", value, "value")
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("compute ran %d times, want 1", got)
	}
}

func TestSingleFlightCoalescesConcurrentMisses(t *testing.T) {
	c, _ := newTestCache(t, 16)
	ctx := context.Background()

	const waiters = 16
	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	var startOnce sync.Once

	compute := func(context.Context) (int, error) {
		calls.Add(1)
		startOnce.Do(func() { close(started) })
		<-release
		return 42, nil
	}

	results := make(chan int, waiters)
	errs := make(chan error, waiters)
	for i := 0; i < waiters; i++ {
		go func() {
			value, _, err := cache.GetOrCompute(ctx, c, "popular:page=1", cache.TierPopular, compute)
			if err != nil {
				errs <- err
				return
			}
			results <- value
		}()
	}

	<-started
	// Give the remaining goroutines time to join the flight before the
	// compute completes.
	time.Sleep(200 * time.Millisecond)
	close(release)

	for i := 0; i < waiters; i++ {
		select {
		case err := <-errs:
			t.Fatalf("waiter error: %v", err)
		case value := <-results:
			if value != 42 {
				t.Fatalf("waiter value = %d, want 42", value)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for coalesced results")
		}
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("compute ran %d times, want 1", got)
	}
}

func TestTTLExpiryBoundary(t *testing.T) {
	c, clock := newTestCache(t, 16)
	ctx := context.Background()

	var calls atomic.Int32
	compute := func(context.Context) (string, error) {
		calls.Add(1)
		return "trending", nil
	}

	if _, _, err := cache.GetOrCompute(ctx, c, "trending:window=week:page=1", cache.TierTrending, compute); err != nil {
		t.Fatalf("seed: %v", err)
	}

	// Just inside the 1h trending TTL the entry is still served.
	clock.Advance(time.Hour - time.Second)
	_, hit, err := cache.GetOrCompute(ctx, c, "trending:window=week:page=1", cache.TierTrending, compute)
	if err != nil {
		t.Fatalf("within ttl: %v", err)
	}
	if !hit {
		t.Fatal("expected a hit just before expiry")
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("compute ran %d times before expiry, want 1", got)
	}

	// Just past the TTL the entry is dropped and recomputed.
	clock.Advance(2 * time.Second)
	_, hit, err = cache.GetOrCompute(ctx, c, "trending:window=week:page=1", cache.TierTrending, compute)
	if err != nil {
		t.Fatalf("past ttl: %v", err)
	}
	if hit {
		t.Fatal("expected a miss just past expiry")
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("compute ran %d times after expiry, want 2", got)
	}
}

func TestNegativeCacheBound(t *testing.T) {
	c, clock := newTestCache(t, 16)
	ctx := context.Background()

	var calls atomic.Int32
	available := false
	compute := func(context.Context) (string, error) {
		calls.Add(1)
		if !available {
			return "", services.Wrap(services.ErrNotFound, "tmdb", "detail", "resource does not exist", nil)
		}
		return "created", nil
	}

	if _, _, err := cache.GetOrCompute(ctx, c, "detail:id=999", cache.TierDetail, compute); !services.IsNotFound(err) {
		t.Fatalf("first lookup error = %v, want not-found", err)
	}

	// The movie appears upstream, but the negative entry still answers.
	available = true
	_, hit, err := cache.GetOrCompute(ctx, c, "detail:id=999", cache.TierDetail, compute)
	if !services.IsNotFound(err) {
		t.Fatalf("negative-cached lookup error = %v, want not-found", err)
	}
	if !hit {
		t.Fatal("negative entry was not served from cache")
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("compute ran %d times while negative entry live, want 1", got)
	}

	// Past the negative TTL the id is retried and becomes visible.
	clock.Advance(5*time.Minute + time.Second)
	value, hit, err := cache.GetOrCompute(ctx, c, "detail:id=999", cache.TierDetail, compute)
	if err != nil {
		t.Fatalf("post-negative lookup: %v", err)
	}
	if hit {
		t.Fatal("expected recompute after negative TTL")
	}
	if value != "created" {
		t.Fatalf("value = %q, want %q", value, "created")
	}
}

func TestComputeErrorPropagatesToAllWaitersAndIsNotCached(t *testing.T) {
	c, _ := newTestCache(t, 16)
	ctx := context.Background()

	const waiters = 8
	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	var startOnce sync.Once
	boom := &services.UpstreamError{Status: 503, Retryable: true, Err: errors.New("tmdb popular")}

	compute := func(context.Context) (string, error) {
		calls.Add(1)
		startOnce.Do(func() { close(started) })
		<-release
		return "", boom
	}

	errs := make(chan error, waiters)
	for i := 0; i < waiters; i++ {
		go func() {
			_, _, err := cache.GetOrCompute(ctx, c, "popular:page=2", cache.TierPopular, compute)
			errs <- err
		}()
	}
	<-started
	time.Sleep(100 * time.Millisecond)
	close(release)

	for i := 0; i < waiters; i++ {
		select {
		case err := <-errs:
			if !errors.Is(err, services.ErrUpstream) {
				t.Fatalf("waiter error = %v, want upstream", err)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for error propagation")
		}
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("compute ran %d times, want 1", got)
	}

	// Failures are never cached; the next caller recomputes.
	value, hit, err := cache.GetOrCompute(ctx, c, "popular:page=2", cache.TierPopular, func(context.Context) (string, error) {
		return "recovered", nil
	})
	if err != nil {
		t.Fatalf("recovery compute: %v", err)
	}
	if hit {
		t.Fatal("failed result was served from cache")
	}
	if value != "recovered" {
		t.Fatalf("value = %q, want %q", value, "recovered")
	}
}

func TestWaiterCancellationDoesNotCancelFlight(t *testing.T) {
	c, _ := newTestCache(t, 16)

	release := make(chan struct{})
	computeCtxErr := make(chan error, 1)
	compute := func(ctx context.Context) (string, error) {
		<-release
		computeCtxErr <- ctx.Err()
		return "shared", nil
	}

	waiterCtx, cancel := context.WithCancel(context.Background())
	canceled := make(chan error, 1)
	go func() {
		_, _, err := cache.GetOrCompute(waiterCtx, c, "search:q=batman:page=1", cache.TierSearch, compute)
		canceled <- err
	}()

	// Let the flight start, then abandon the first waiter.
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-canceled:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("canceled waiter error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("canceled waiter did not return")
	}

	close(release)
	if err := <-computeCtxErr; err != nil {
		t.Fatalf("shared compute context was canceled: %v", err)
	}

	// The flight finished and populated the cache despite the cancellation.
	deadline := time.Now().Add(2 * time.Second)
	for {
		value, hit, err := cache.GetOrCompute(context.Background(), c, "search:q=batman:page=1", cache.TierSearch, func(context.Context) (string, error) {
			return "recomputed", nil
		})
		if err != nil {
			t.Fatalf("follow-up lookup: %v", err)
		}
		if hit {
			if value != "shared" {
				t.Fatalf("cached value = %q, want %q", value, "shared")
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("flight result never reached the cache")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestUnknownTierRejected(t *testing.T) {
	c, _ := newTestCache(t, 16)
	_, _, err := cache.GetOrCompute(context.Background(), c, "key", cache.Tier("bogus"), func(context.Context) (string, error) {
		return "", nil
	})
	if !services.IsValidation(err) {
		t.Fatalf("error = %v, want validation", err)
	}
}

func TestMemoryBackendEvictsLeastRecentlyUsed(t *testing.T) {
	c, _ := newTestCache(t, 1)
	ctx := context.Background()

	var calls atomic.Int32
	compute := func(context.Context) (string, error) {
		calls.Add(1)
		return "v", nil
	}

	for _, key := range []string{"detail:id=1", "detail:id=2"} {
		if _, _, err := cache.GetOrCompute(ctx, c, key, cache.TierDetail, compute); err != nil {
			t.Fatalf("seed %s: %v", key, err)
		}
	}

	// Capacity 1: the first key was evicted and recomputes.
	_, hit, err := cache.GetOrCompute(ctx, c, "detail:id=1", cache.TierDetail, compute)
	if err != nil {
		t.Fatalf("evicted lookup: %v", err)
	}
	if hit {
		t.Fatal("expected a miss for the evicted key")
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("compute ran %d times, want 3", got)
	}
}
