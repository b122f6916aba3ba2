package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeTMDB(); err != nil {
		return err
	}
	if err := c.normalizeStore(); err != nil {
		return err
	}
	c.normalizeCache()
	c.normalizeCatalog()
	c.normalizeSync()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	return nil
}

func (c *Config) normalizeTMDB() error {
	if c.TMDB.APIKey == "" {
		if value, ok := os.LookupEnv("TMDB_API_KEY"); ok {
			c.TMDB.APIKey = strings.TrimSpace(value)
		}
	}
	c.TMDB.BaseURL = strings.TrimRight(strings.TrimSpace(c.TMDB.BaseURL), "/")
	if c.TMDB.BaseURL == "" {
		c.TMDB.BaseURL = defaultTMDBBaseURL
	}
	c.TMDB.Language = strings.TrimSpace(c.TMDB.Language)
	if c.TMDB.Language == "" {
		c.TMDB.Language = defaultTMDBLanguage
	}
	if c.TMDB.RequestTimeout <= 0 {
		c.TMDB.RequestTimeout = defaultRequestTimeout
	}
	if c.TMDB.RetryAttempts <= 0 {
		c.TMDB.RetryAttempts = defaultRetryAttempts
	}
	if c.TMDB.RetryBaseDelayMS <= 0 {
		c.TMDB.RetryBaseDelayMS = defaultRetryBaseDelayMS
	}
	return nil
}

func (c *Config) normalizeStore() error {
	var err error
	if strings.TrimSpace(c.Store.Path) == "" {
		c.Store.Path = filepath.Join(c.Paths.DataDir, "catalog.db")
	}
	if c.Store.Path, err = expandPath(c.Store.Path); err != nil {
		return fmt.Errorf("store.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeCache() {
	c.Cache.Backend = strings.ToLower(strings.TrimSpace(c.Cache.Backend))
	if c.Cache.Backend == "" {
		c.Cache.Backend = defaultCacheBackend
	}
	if c.Cache.Capacity <= 0 {
		c.Cache.Capacity = defaultCacheCapacity
	}
	ttl := &c.Cache.TTL
	for _, field := range []struct {
		value    *int
		fallback int
	}{
		{&ttl.Trending, defaultTrendingTTL},
		{&ttl.Popular, defaultPopularTTL},
		{&ttl.Search, defaultSearchTTL},
		{&ttl.Genre, defaultGenreTTL},
		{&ttl.GenreList, defaultGenreListTTL},
		{&ttl.Detail, defaultDetailTTL},
		{&ttl.Negative, defaultNegativeTTL},
	} {
		if *field.value <= 0 {
			*field.value = field.fallback
		}
	}
	c.Cache.Redis.Addr = strings.TrimSpace(c.Cache.Redis.Addr)
}

func (c *Config) normalizeCatalog() {
	if c.Catalog.PageSize <= 0 {
		c.Catalog.PageSize = defaultPageSize
	}
	if c.Catalog.DetailFreshnessHours <= 0 {
		c.Catalog.DetailFreshnessHours = defaultDetailFreshness
	}
	c.Catalog.TrendingWindow = strings.ToLower(strings.TrimSpace(c.Catalog.TrendingWindow))
	if c.Catalog.TrendingWindow == "" {
		c.Catalog.TrendingWindow = defaultTrendingWindow
	}
	c.Catalog.PosterBaseURL = strings.TrimRight(strings.TrimSpace(c.Catalog.PosterBaseURL), "/")
	if c.Catalog.PosterBaseURL == "" {
		c.Catalog.PosterBaseURL = defaultPosterBaseURL
	}
	c.Catalog.BackdropBaseURL = strings.TrimRight(strings.TrimSpace(c.Catalog.BackdropBaseURL), "/")
	if c.Catalog.BackdropBaseURL == "" {
		c.Catalog.BackdropBaseURL = defaultBackdropBaseURL
	}
}

func (c *Config) normalizeSync() {
	if c.Sync.IntervalMinutes <= 0 {
		c.Sync.IntervalMinutes = defaultSyncInterval
	}
	if c.Sync.Pages <= 0 {
		c.Sync.Pages = defaultSyncPages
	}
	if c.Sync.Workers <= 0 {
		c.Sync.Workers = defaultSyncWorkers
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "console", "json", "auto":
	case "":
		c.Logging.Format = defaultLogFormat
	default:
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.MaxSizeMB <= 0 {
		c.Logging.MaxSizeMB = defaultLogMaxSizeMB
	}
	if c.Logging.MaxBackups < 0 {
		c.Logging.MaxBackups = defaultLogMaxBackups
	}
	if c.Logging.MaxAgeDays < 0 {
		c.Logging.MaxAgeDays = defaultLogMaxAgeDays
	}
}
