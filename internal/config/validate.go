package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTMDB(); err != nil {
		return err
	}
	if err := c.validateCache(); err != nil {
		return err
	}
	if err := c.validateCatalog(); err != nil {
		return err
	}
	if err := c.validateSync(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateTMDB() error {
	if c.TMDB.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/marquee/config.toml"
		}
		return fmt.Errorf("tmdb.api_key is required. Set TMDB_API_KEY env var or edit %s (create with 'marquee config init')", defaultPath)
	}
	if c.TMDB.RequestTimeout <= 0 {
		return errors.New("tmdb.request_timeout must be positive (seconds)")
	}
	if c.TMDB.RetryAttempts < 1 {
		return errors.New("tmdb.retry_attempts must be at least 1")
	}
	return nil
}

func (c *Config) validateCache() error {
	switch c.Cache.Backend {
	case "memory":
	case "redis":
		if c.Cache.Redis.Addr == "" {
			return errors.New("cache.redis.addr must be set when cache.backend is \"redis\"")
		}
	default:
		return fmt.Errorf("cache.backend must be \"memory\" or \"redis\", got %q", c.Cache.Backend)
	}
	if c.Cache.Capacity <= 0 {
		return errors.New("cache.capacity must be positive")
	}
	if err := ensurePositiveMap(map[string]int{
		"cache.ttl.trending":   c.Cache.TTL.Trending,
		"cache.ttl.popular":    c.Cache.TTL.Popular,
		"cache.ttl.search":     c.Cache.TTL.Search,
		"cache.ttl.genre":      c.Cache.TTL.Genre,
		"cache.ttl.genre_list": c.Cache.TTL.GenreList,
		"cache.ttl.detail":     c.Cache.TTL.Detail,
		"cache.ttl.negative":   c.Cache.TTL.Negative,
	}); err != nil {
		return err
	}
	// Negative entries suppress repeat lookups for ids that may be created
	// upstream at any moment; a long TTL would mask them.
	if c.Cache.TTL.Negative > maxNegativeTTL {
		return fmt.Errorf("cache.ttl.negative must be at most %d seconds", maxNegativeTTL)
	}
	return nil
}

func (c *Config) validateCatalog() error {
	if c.Catalog.PageSize < 1 || c.Catalog.PageSize > 100 {
		return errors.New("catalog.page_size must be between 1 and 100")
	}
	if c.Catalog.DetailFreshnessHours <= 0 {
		return errors.New("catalog.detail_freshness_hours must be positive")
	}
	switch c.Catalog.TrendingWindow {
	case "day", "week":
	default:
		return fmt.Errorf("catalog.trending_window must be \"day\" or \"week\", got %q", c.Catalog.TrendingWindow)
	}
	return nil
}

func (c *Config) validateSync() error {
	if !c.Sync.Enabled {
		return nil
	}
	return ensurePositiveMap(map[string]int{
		"sync.interval_minutes": c.Sync.IntervalMinutes,
		"sync.pages":            c.Sync.Pages,
		"sync.workers":          c.Sync.Workers,
	})
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
