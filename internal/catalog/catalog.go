package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"marquee/internal/api"
	"marquee/internal/cache"
	"marquee/internal/config"
	"marquee/internal/logging"
	"marquee/internal/normalize"
	"marquee/internal/services"
	"marquee/internal/store"
	"marquee/internal/tmdb"
)

// Service answers the catalog query classes by orchestrating the cache, the
// store, and the upstream client.
type Service struct {
	store    *store.Store
	upstream tmdb.Fetcher
	cache    *cache.Cache
	logger   *slog.Logger
	clock    func() time.Time

	pageSize        int
	detailFreshness time.Duration
	defaultWindow   string
	posterBase      string
	backdropBase    string
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source used for the detail freshness check.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// New creates the catalog service.
func New(cfg *config.Config, st *store.Store, upstream tmdb.Fetcher, qc *cache.Cache, logger *slog.Logger, opts ...Option) (*Service, error) {
	if st == nil || upstream == nil || qc == nil {
		return nil, services.Wrap(services.ErrConfiguration, "catalog", "new", "store, upstream, and cache required", nil)
	}
	s := &Service{
		store:           st,
		upstream:        upstream,
		cache:           qc,
		logger:          logging.NewComponentLogger(logger, "catalog"),
		clock:           time.Now,
		pageSize:        cfg.Catalog.PageSize,
		detailFreshness: time.Duration(cfg.Catalog.DetailFreshnessHours) * time.Hour,
		defaultWindow:   cfg.Catalog.TrendingWindow,
		posterBase:      cfg.Catalog.PosterBaseURL,
		backdropBase:    cfg.Catalog.BackdropBaseURL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Trending returns one page of trending movies for the day or week window.
// An empty window falls back to the configured default.
func (s *Service) Trending(ctx context.Context, window string, page int) (*api.MoviePage, bool, error) {
	window = strings.ToLower(strings.TrimSpace(window))
	if window == "" {
		window = s.defaultWindow
	}
	if window != tmdb.WindowDay && window != tmdb.WindowWeek {
		return nil, false, services.Wrap(services.ErrValidation, "catalog", "trending", fmt.Sprintf("unknown window %q", window), nil)
	}
	page = clampPage(page)
	ctx = services.WithOperation(ctx, "trending")
	return cachedValue(ctx, s, trendingKey(window, page), cache.TierTrending, func(fctx context.Context) (*api.MoviePage, error) {
		fetched, err := s.upstream.Trending(fctx, window, page)
		if err != nil {
			return nil, err
		}
		return s.syncPage(fctx, fetched)
	})
}

// Popular returns one page of the popularity ranking.
func (s *Service) Popular(ctx context.Context, page int) (*api.MoviePage, bool, error) {
	page = clampPage(page)
	ctx = services.WithOperation(ctx, "popular")
	return cachedValue(ctx, s, popularKey(page), cache.TierPopular, func(fctx context.Context) (*api.MoviePage, error) {
		fetched, err := s.upstream.Popular(fctx, page)
		if err != nil {
			return nil, err
		}
		return s.syncPage(fctx, fetched)
	})
}

// Search returns one page of search results for the query. The cache key is
// built from the case-folded, whitespace-collapsed query, so equivalent
// spellings share an entry.
func (s *Service) Search(ctx context.Context, query string, page int) (*api.MoviePage, bool, error) {
	trimmed := strings.Join(strings.Fields(query), " ")
	if trimmed == "" {
		return nil, false, services.Wrap(services.ErrValidation, "catalog", "search", "query must not be empty", nil)
	}
	page = clampPage(page)
	ctx = services.WithOperation(ctx, "search")
	return cachedValue(ctx, s, searchKey(trimmed, page), cache.TierSearch, func(fctx context.Context) (*api.MoviePage, error) {
		fetched, err := s.upstream.Search(fctx, trimmed, page)
		if err != nil {
			return nil, err
		}
		return s.syncPage(fctx, fetched)
	})
}

// ByGenre returns one page of stored movies carrying the genre, most popular
// first. The reconciled store is the source of truth here: a movie synced via
// any other query class appears under its genres, and drops out once a
// reconciliation removes the association. Upstream discover only seeds
// genres with no local rows yet.
func (s *Service) ByGenre(ctx context.Context, genreID int64, page int) (*api.MoviePage, bool, error) {
	if genreID <= 0 {
		return nil, false, services.Wrap(services.ErrValidation, "catalog", "by-genre", "genre id must be positive", nil)
	}
	page = clampPage(page)
	ctx = services.WithOperation(ctx, "by-genre")
	return cachedValue(ctx, s, genreKey(genreID, page), cache.TierGenre, func(fctx context.Context) (*api.MoviePage, error) {
		movies, total, err := s.store.MoviesByGenre(fctx, genreID, page, s.pageSize)
		if err != nil {
			return nil, err
		}
		if total == 0 {
			seed, err := s.upstream.DiscoverByGenre(fctx, genreID, page)
			if err != nil {
				return nil, err
			}
			if _, err := s.syncPage(fctx, seed); err != nil {
				return nil, err
			}
			if movies, total, err = s.store.MoviesByGenre(fctx, genreID, page, s.pageSize); err != nil {
				return nil, err
			}
		}

		out := &api.MoviePage{
			Page:         page,
			TotalPages:   ceilDiv(total, int64(s.pageSize)),
			TotalResults: total,
			Results:      make([]api.Movie, 0, len(movies)),
		}
		for _, movie := range movies {
			converted, err := s.movieFromStore(fctx, movie)
			if err != nil {
				return nil, err
			}
			out.Results = append(out.Results, *converted)
		}
		return out, nil
	})
}

// Detail returns the full record for one movie. A stored row synced within
// the freshness threshold is served without touching upstream; otherwise the
// detail payload is fetched and reconciled first. A movie TMDB does not know
// surfaces as not-found and is negative-cached.
func (s *Service) Detail(ctx context.Context, tmdbID int64) (*api.Movie, bool, error) {
	if tmdbID <= 0 {
		return nil, false, services.Wrap(services.ErrValidation, "catalog", "detail", "movie id must be positive", nil)
	}
	ctx = services.WithOperation(ctx, "detail")
	return cachedValue(ctx, s, detailKey(tmdbID), cache.TierDetail, func(fctx context.Context) (*api.Movie, error) {
		existing, err := s.store.MovieByTMDBID(fctx, tmdbID)
		if err != nil {
			return nil, err
		}
		if existing != nil && s.clock().Sub(existing.SyncedAt) < s.detailFreshness {
			return s.movieFromStore(fctx, existing)
		}

		payload, err := s.upstream.MovieDetail(fctx, tmdbID)
		if err != nil {
			return nil, err
		}
		record, err := normalize.Movie(payload, nil)
		if err != nil {
			return nil, err
		}
		movie, err := s.store.ReconcileMovie(fctx, record)
		if err != nil {
			return nil, err
		}
		return s.movieFromStore(fctx, movie)
	})
}

// Genres returns the genre dictionary, refreshed from upstream under the
// week-scale genre list tier.
func (s *Service) Genres(ctx context.Context) (*api.GenreListResponse, bool, error) {
	ctx = services.WithOperation(ctx, "genres")
	return cachedValue(ctx, s, genreListKey, cache.TierGenreList, func(fctx context.Context) (*api.GenreListResponse, error) {
		rows, err := s.syncGenres(fctx)
		if err != nil {
			return nil, err
		}
		return &api.GenreListResponse{Genres: storeGenres(rows)}, nil
	})
}

func cachedValue[T any](ctx context.Context, s *Service, key string, tier cache.Tier, compute func(context.Context) (T, error)) (T, bool, error) {
	value, hit, err := cache.GetOrCompute(ctx, s.cache, key, tier, compute)
	if err != nil {
		var zero T
		return zero, hit, err
	}
	s.logger.Debug("catalog query answered",
		logging.String(logging.FieldCacheKey, key),
		logging.String(logging.FieldTier, string(tier)),
		logging.Bool("cache_hit", hit))
	return value, hit, nil
}

// syncPage normalizes and reconciles every result on a fetched list page and
// assembles the transport page from the reconciled rows. Invalid results are
// logged and skipped without failing the batch.
func (s *Service) syncPage(ctx context.Context, fetched *tmdb.Page) (*api.MoviePage, error) {
	names, err := s.genreNames(ctx)
	if err != nil {
		// List payloads only need names for display; ids still persist and a
		// later genre sync names them. Proceed without the dictionary.
		s.logger.Warn("genre dictionary unavailable", logging.Error(err))
		names = nil
	}

	records, invalid := normalize.MoviePage(fetched, names)
	for _, recordErr := range invalid {
		s.logger.Warn("skipping invalid upstream record", logging.Error(recordErr))
	}

	out := &api.MoviePage{
		Page:         fetched.Page,
		TotalPages:   fetched.TotalPages,
		TotalResults: int64(fetched.TotalResults),
		Results:      make([]api.Movie, 0, len(records)),
	}
	for i := range records {
		movie, err := s.store.ReconcileMovie(ctx, &records[i])
		if err != nil {
			s.logger.Warn("skipping record that failed reconciliation",
				logging.Int64(logging.FieldTMDBID, records[i].TMDBID),
				logging.Error(err))
			continue
		}
		converted := s.toAPIMovie(movie)
		converted.Genres = recordGenres(records[i].Genres)
		out.Results = append(out.Results, converted)
	}
	return out, nil
}

// genreNames loads the id-to-name dictionary, syncing it from upstream the
// first time the store is empty.
func (s *Service) genreNames(ctx context.Context) (map[int64]string, error) {
	rows, err := s.store.Genres(ctx)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		if rows, err = s.syncGenres(ctx); err != nil {
			return nil, err
		}
	}
	names := make(map[int64]string, len(rows))
	for _, g := range rows {
		names[g.TMDBGenreID] = g.Name
	}
	return names, nil
}

func (s *Service) syncGenres(ctx context.Context) ([]store.Genre, error) {
	fetched, err := s.upstream.GenreList(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.store.UpsertGenres(ctx, normalize.Genres(fetched)); err != nil {
		return nil, err
	}
	return s.store.Genres(ctx)
}

func ceilDiv(total, pageSize int64) int {
	if pageSize <= 0 {
		return 0
	}
	return int((total + pageSize - 1) / pageSize)
}
