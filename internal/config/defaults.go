package config

const (
	defaultDataDir          = "~/.local/share/marquee"
	defaultLogDir           = "~/.local/share/marquee/logs"
	defaultAPIBind          = "127.0.0.1:7625"
	defaultTMDBBaseURL      = "https://api.themoviedb.org/3"
	defaultTMDBLanguage     = "en-US"
	defaultRequestTimeout   = 10
	defaultRetryAttempts    = 3
	defaultRetryBaseDelayMS = 300
	defaultCacheBackend     = "memory"
	defaultCacheCapacity    = 4096
	defaultTrendingTTL      = 3600
	defaultPopularTTL       = 3600
	defaultSearchTTL        = 600
	defaultGenreTTL         = 3600
	defaultGenreListTTL     = 604800
	defaultDetailTTL        = 86400
	defaultNegativeTTL      = 300
	maxNegativeTTL          = 300
	defaultPageSize         = 20
	defaultDetailFreshness  = 24
	defaultTrendingWindow   = "week"
	defaultPosterBaseURL    = "https://image.tmdb.org/t/p/w500"
	defaultBackdropBaseURL  = "https://image.tmdb.org/t/p/w1280"
	defaultSyncInterval     = 360
	defaultSyncPages        = 3
	defaultSyncWorkers      = 4
	defaultLogFormat        = "auto"
	defaultLogLevel         = "info"
	defaultLogMaxSizeMB     = 50
	defaultLogMaxBackups    = 5
	defaultLogMaxAgeDays    = 30
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		TMDB: TMDB{
			BaseURL:          defaultTMDBBaseURL,
			Language:         defaultTMDBLanguage,
			RequestTimeout:   defaultRequestTimeout,
			RetryAttempts:    defaultRetryAttempts,
			RetryBaseDelayMS: defaultRetryBaseDelayMS,
		},
		Cache: Cache{
			Backend:  defaultCacheBackend,
			Capacity: defaultCacheCapacity,
			TTL: TTL{
				Trending:  defaultTrendingTTL,
				Popular:   defaultPopularTTL,
				Search:    defaultSearchTTL,
				Genre:     defaultGenreTTL,
				GenreList: defaultGenreListTTL,
				Detail:    defaultDetailTTL,
				Negative:  defaultNegativeTTL,
			},
		},
		Catalog: Catalog{
			PageSize:             defaultPageSize,
			DetailFreshnessHours: defaultDetailFreshness,
			TrendingWindow:       defaultTrendingWindow,
			PosterBaseURL:        defaultPosterBaseURL,
			BackdropBaseURL:      defaultBackdropBaseURL,
		},
		Sync: Sync{
			Enabled:         true,
			IntervalMinutes: defaultSyncInterval,
			Pages:           defaultSyncPages,
			Workers:         defaultSyncWorkers,
		},
		Logging: Logging{
			Format:     defaultLogFormat,
			Level:      defaultLogLevel,
			MaxSizeMB:  defaultLogMaxSizeMB,
			MaxBackups: defaultLogMaxBackups,
			MaxAgeDays: defaultLogMaxAgeDays,
		},
	}
}
