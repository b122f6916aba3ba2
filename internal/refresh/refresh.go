package refresh

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"

	"marquee/internal/config"
	"marquee/internal/logging"
	"marquee/internal/normalize"
	"marquee/internal/services"
	"marquee/internal/store"
	"marquee/internal/tmdb"
)

// Run summarizes one synchronization pass.
type Run struct {
	ID        string
	StartedAt time.Time
	Duration  time.Duration
	Stats     store.ReconcileStats
	Err       string
}

// Refresher periodically resynchronizes the catalog store from upstream.
type Refresher struct {
	store    *store.Store
	upstream tmdb.Fetcher
	logger   *slog.Logger
	clock    func() time.Time

	enabled  bool
	interval time.Duration
	pages    int
	workers  int
	window   string

	syncing atomic.Bool

	mu      sync.Mutex
	lastRun *Run
	nextRun time.Time
}

// New creates a refresher from configuration.
func New(cfg *config.Config, st *store.Store, upstream tmdb.Fetcher, logger *slog.Logger) (*Refresher, error) {
	if st == nil || upstream == nil {
		return nil, services.Wrap(services.ErrConfiguration, "refresh", "new", "store and upstream required", nil)
	}
	return &Refresher{
		store:    st,
		upstream: upstream,
		logger:   logging.NewComponentLogger(logger, "refresh"),
		clock:    time.Now,
		enabled:  cfg.Sync.Enabled,
		interval: time.Duration(cfg.Sync.IntervalMinutes) * time.Minute,
		pages:    cfg.Sync.Pages,
		workers:  cfg.Sync.Workers,
		window:   cfg.Catalog.TrendingWindow,
	}, nil
}

// Start launches the periodic loop. It returns immediately; the loop stops
// when ctx is canceled. When synchronization is disabled the loop never
// starts and only manual triggers run.
func (r *Refresher) Start(ctx context.Context) {
	if !r.enabled {
		r.logger.Info("background sync disabled")
		return
	}
	go r.loop(ctx)
}

func (r *Refresher) loop(ctx context.Context) {
	// An immediate first pass warms the store at daemon start; afterwards
	// the ticker takes over.
	r.runOnce(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.runOnce(ctx)
		}
	}
}

func (r *Refresher) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if _, err := r.Sync(ctx); err != nil && !services.IsConflict(err) {
		r.logger.Error("background sync failed", logging.Error(err))
	}
}

// Sync performs one synchronization pass and records its summary. A pass
// already in flight is reported as a conflict rather than run twice.
func (r *Refresher) Sync(ctx context.Context) (Run, error) {
	if !r.syncing.CompareAndSwap(false, true) {
		return Run{}, services.Wrap(services.ErrConflict, "refresh", "sync", "a sync run is already in progress", nil)
	}
	defer r.syncing.Store(false)

	run := Run{ID: uuid.NewString(), StartedAt: r.clock()}
	logger := r.logger.With(logging.String(logging.FieldRunID, run.ID))
	logger.Info("sync run started",
		logging.Int("pages", r.pages),
		logging.Int("workers", r.workers))

	stats, err := r.sync(ctx, logger)
	run.Duration = r.clock().Sub(run.StartedAt)
	run.Stats = stats
	if err != nil {
		run.Err = err.Error()
	}

	r.mu.Lock()
	r.lastRun = &run
	if r.enabled {
		r.nextRun = r.clock().Add(r.interval)
	}
	r.mu.Unlock()

	if err != nil {
		logger.Error("sync run finished with errors",
			logging.Duration("duration", run.Duration),
			logging.Error(err))
		return run, err
	}
	logger.Info("sync run finished",
		logging.Duration("duration", run.Duration),
		logging.Int("inserted", stats.Inserted),
		logging.Int("updated", stats.Updated),
		logging.Int("unchanged", stats.Unchanged),
		logging.Int("skipped", stats.Skipped))
	return run, nil
}

func (r *Refresher) sync(ctx context.Context, logger *slog.Logger) (store.ReconcileStats, error) {
	var stats store.ReconcileStats

	fetched, err := r.upstream.GenreList(ctx)
	if err != nil {
		return stats, fmt.Errorf("sync genres: %w", err)
	}
	genres := normalize.Genres(fetched)
	if err := r.store.UpsertGenres(ctx, genres); err != nil {
		return stats, fmt.Errorf("store genres: %w", err)
	}
	names := normalize.NameIndex(genres)

	type fetchPage func(context.Context, int) (*tmdb.Page, error)
	classes := map[string]fetchPage{
		"trending": func(fctx context.Context, page int) (*tmdb.Page, error) {
			return r.upstream.Trending(fctx, r.window, page)
		},
		"popular": func(fctx context.Context, page int) (*tmdb.Page, error) {
			return r.upstream.Popular(fctx, page)
		},
	}

	var statsMu sync.Mutex
	workers := pool.New().
		WithMaxGoroutines(r.workers).
		WithErrors().
		WithContext(ctx)

	for class, fetch := range classes {
		for page := 1; page <= r.pages; page++ {
			workers.Go(func(fctx context.Context) error {
				fetchedPage, err := fetch(fctx, page)
				if err != nil {
					return fmt.Errorf("%s page %d: %w", class, page, err)
				}
				records, invalid := normalize.MoviePage(fetchedPage, names)
				for _, recordErr := range invalid {
					logger.Warn("skipping invalid upstream record",
						logging.String("class", class),
						logging.Int(logging.FieldPage, page),
						logging.Error(recordErr))
				}
				pageStats, err := r.store.ReconcileMovies(fctx, records)
				statsMu.Lock()
				stats.Inserted += pageStats.Inserted
				stats.Updated += pageStats.Updated
				stats.Unchanged += pageStats.Unchanged
				stats.Skipped += pageStats.Skipped
				statsMu.Unlock()
				if err != nil {
					return fmt.Errorf("%s page %d: %w", class, page, err)
				}
				return nil
			})
		}
	}

	return stats, workers.Wait()
}

// LastRun returns the most recent run summary, or nil before the first run.
func (r *Refresher) LastRun() *Run {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.lastRun == nil {
		return nil
	}
	run := *r.lastRun
	return &run
}

// NextRun returns the next scheduled run time, zero when the loop is
// disabled or has not started.
func (r *Refresher) NextRun() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.nextRun
}
