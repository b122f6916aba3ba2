// Package daemonrun wires configuration, storage, cache, the TMDB client,
// and the HTTP API into a running daemon. Both the standalone marqueed
// binary and the CLI's daemon subcommand share this bootstrap.
package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"marquee/internal/cache"
	"marquee/internal/catalog"
	"marquee/internal/config"
	"marquee/internal/daemon"
	"marquee/internal/logging"
	"marquee/internal/refresh"
	"marquee/internal/store"
	"marquee/internal/tmdb"
)

// Run boots the daemon from the config at cfgPath and blocks until ctx is
// cancelled. All resources are released before it returns.
func Run(ctx context.Context, cfgPath string) error {
	cfg, resolvedPath, _, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	logger.Info("starting marquee daemon", logging.String("config", resolvedPath))

	d, err := Build(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := d.Close(); closeErr != nil {
			logger.Warn("shutdown cleanup failed", logging.Error(closeErr))
		}
	}()

	if err := d.Start(ctx); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}

	<-ctx.Done()
	logger.Info("shutdown signal received")
	d.Stop()
	return nil
}

// Build assembles a daemon and its dependency graph from configuration. The
// caller owns the returned daemon and must Close it.
func Build(cfg *config.Config, logger *slog.Logger) (*daemon.Daemon, error) {
	st, err := store.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	backend, err := cache.NewBackend(cfg)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("open cache backend: %w", err)
	}
	qc, err := cache.New(backend, cache.PolicyFromConfig(cfg), logger)
	if err != nil {
		backend.Close()
		st.Close()
		return nil, fmt.Errorf("build cache: %w", err)
	}

	upstream, err := newTMDBClient(cfg)
	if err != nil {
		qc.Close()
		st.Close()
		return nil, fmt.Errorf("build tmdb client: %w", err)
	}

	svc, err := catalog.New(cfg, st, upstream, qc, logger)
	if err != nil {
		qc.Close()
		st.Close()
		return nil, fmt.Errorf("build catalog: %w", err)
	}

	refresher, err := refresh.New(cfg, st, upstream, logger)
	if err != nil {
		qc.Close()
		st.Close()
		return nil, fmt.Errorf("build refresher: %w", err)
	}

	d, err := daemon.New(cfg, st, qc, svc, refresher, logger)
	if err != nil {
		qc.Close()
		st.Close()
		return nil, err
	}
	return d, nil
}

func newLogger(cfg *config.Config) (*slog.Logger, error) {
	return logging.New(logging.Options{
		Level:            cfg.Logging.Level,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout", cfg.LogPath()},
		ErrorOutputPaths: []string{"stderr"},
		RotateMaxSizeMB:  cfg.Logging.MaxSizeMB,
		RotateMaxBackups: cfg.Logging.MaxBackups,
		RotateMaxAgeDays: cfg.Logging.MaxAgeDays,
	})
}

func newTMDBClient(cfg *config.Config) (*tmdb.Client, error) {
	opts := []tmdb.Option{
		tmdb.WithRetryMaxAttempts(cfg.TMDB.RetryAttempts),
		tmdb.WithRetryBackoff(time.Duration(cfg.TMDB.RetryBaseDelayMS)*time.Millisecond, 0),
	}
	if cfg.TMDB.RequestTimeout > 0 {
		opts = append(opts, tmdb.WithHTTPClient(&http.Client{
			Timeout: time.Duration(cfg.TMDB.RequestTimeout) * time.Second,
		}))
	}
	return tmdb.New(cfg.TMDB.APIKey, cfg.TMDB.BaseURL, cfg.TMDB.Language, opts...)
}
