package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"marquee/internal/api"
	"marquee/internal/cache"
	"marquee/internal/config"
	"marquee/internal/logging"
	"marquee/internal/refresh"
	"marquee/internal/store"
)

// Catalog is the query surface the HTTP API exposes.
type Catalog interface {
	Trending(ctx context.Context, window string, page int) (*api.MoviePage, bool, error)
	Popular(ctx context.Context, page int) (*api.MoviePage, bool, error)
	Search(ctx context.Context, query string, page int) (*api.MoviePage, bool, error)
	ByGenre(ctx context.Context, genreID int64, page int) (*api.MoviePage, bool, error)
	Detail(ctx context.Context, tmdbID int64) (*api.Movie, bool, error)
	Genres(ctx context.Context) (*api.GenreListResponse, bool, error)
}

// Syncer triggers and reports background synchronization runs.
type Syncer interface {
	Start(ctx context.Context)
	Sync(ctx context.Context) (refresh.Run, error)
	LastRun() *refresh.Run
	NextRun() time.Time
}

// Daemon owns the background services and enforces single-instance execution.
type Daemon struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     *store.Store
	cache     *cache.Cache
	catalog   Catalog
	refresher Syncer
	apiServer *apiServer

	lockPath string
	lock     *flock.Flock

	startedAt time.Time
	running   atomic.Bool
	cancel    context.CancelFunc
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, st *store.Store, qc *cache.Cache, catalog Catalog, refresher Syncer, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || st == nil || qc == nil || catalog == nil || refresher == nil {
		return nil, errors.New("daemon requires config, store, cache, catalog, and refresher")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	lockPath := cfg.LockPath()
	d := &Daemon{
		cfg:       cfg,
		logger:    logger,
		store:     st,
		cache:     qc,
		catalog:   catalog,
		refresher: refresher,
		lockPath:  lockPath,
		lock:      flock.New(lockPath),
	}
	d.apiServer = newAPIServer(cfg.Paths.APIBind, d, logger)
	return d, nil
}

// Start acquires the instance lock and launches the refresh loop and the
// HTTP API. It returns once both are running.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another marquee daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	d.refresher.Start(runCtx)
	if err := d.apiServer.start(runCtx); err != nil {
		cancel()
		d.cancel = nil
		_ = d.lock.Unlock()
		return err
	}

	d.startedAt = time.Now()
	d.running.Store(true)
	d.logger.Info("marquee daemon started",
		logging.String("lock", d.lockPath),
		logging.String("address", d.apiServer.addr()))
	return nil
}

// Stop shuts down background services and releases the instance lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.apiServer.stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("marquee daemon stopped")
}

// Close stops the daemon and releases the store and cache.
func (d *Daemon) Close() error {
	d.Stop()
	errs := []error{d.cache.Close(), d.store.Close()}
	return errors.Join(errs...)
}

// Addr reports the HTTP API listen address, empty before Start.
func (d *Daemon) Addr() string {
	return d.apiServer.addr()
}

// Status snapshots daemon runtime information.
func (d *Daemon) Status(ctx context.Context) api.DaemonStatus {
	status := api.DaemonStatus{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		StorePath:    d.store.Path(),
		CacheBackend: d.cache.Backend(),
	}
	if status.Running {
		status.UptimeSec = int64(time.Since(d.startedAt).Seconds())
	}
	if counts, err := d.store.Counts(ctx); err == nil {
		status.Movies = counts.Movies
		status.Genres = counts.Genres
		status.Associations = counts.Associations
	} else {
		d.logger.Warn("store counts unavailable", logging.Error(err))
	}
	if last := d.refresher.LastRun(); last != nil {
		status.LastSync = convertRun(*last)
	}
	if next := d.refresher.NextRun(); !next.IsZero() {
		status.NextSync = api.FormatTime(next)
	}
	return status
}

func convertRun(run refresh.Run) *api.SyncRun {
	return &api.SyncRun{
		ID:         run.ID,
		StartedAt:  api.FormatTime(run.StartedAt),
		DurationMS: run.Duration.Milliseconds(),
		Inserted:   run.Stats.Inserted,
		Updated:    run.Stats.Updated,
		Unchanged:  run.Stats.Unchanged,
		Skipped:    run.Stats.Skipped,
		Error:      run.Err,
	}
}
