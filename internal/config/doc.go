// Package config loads, normalizes, and validates the TOML configuration
// shared by the daemon and CLI. Load resolves the file from an explicit path,
// ~/.config/marquee/config.toml, or ./marquee.toml, applies defaults for
// every omitted key, expands ~ in paths, and rejects configurations the
// service cannot run with (missing TMDB credentials, unknown cache backends,
// out-of-range TTLs).
package config
