package catalog

import (
	"context"

	"marquee/internal/api"
	"marquee/internal/normalize"
	"marquee/internal/store"
)

func (s *Service) movieFromStore(ctx context.Context, movie *store.Movie) (*api.Movie, error) {
	genres, err := s.store.MovieGenres(ctx, movie.ID)
	if err != nil {
		return nil, err
	}
	out := s.toAPIMovie(movie)
	out.Genres = storeGenres(genres)
	return &out, nil
}

func (s *Service) toAPIMovie(movie *store.Movie) api.Movie {
	return api.Movie{
		ID:               movie.ID,
		TMDBID:           movie.TMDBID,
		Title:            movie.Title,
		Overview:         movie.Overview,
		ReleaseDate:      movie.ReleaseDate,
		PosterURL:        imageURL(s.posterBase, movie.PosterPath),
		BackdropURL:      imageURL(s.backdropBase, movie.BackdropPath),
		OriginalLanguage: movie.OriginalLanguage,
		Popularity:       movie.Popularity,
		VoteAverage:      movie.VoteAverage,
		VoteCount:        movie.VoteCount,
		Runtime:          movie.Runtime,
		Tagline:          movie.Tagline,
		Adult:            movie.Adult,
		Genres:           []api.Genre{},
		SyncedAt:         api.FormatTime(movie.SyncedAt),
	}
}

// recordGenres converts the genre pairs a normalized record carries. Ids the
// genre dictionary has not named yet are omitted from display; they are still
// persisted and surface once a genre sync fills the name in.
func recordGenres(genres []normalize.Genre) []api.Genre {
	out := make([]api.Genre, 0, len(genres))
	for _, g := range genres {
		if g.Name == "" {
			continue
		}
		out = append(out, api.Genre{ID: g.TMDBGenreID, Name: g.Name})
	}
	return out
}

func storeGenres(genres []store.Genre) []api.Genre {
	out := make([]api.Genre, 0, len(genres))
	for _, g := range genres {
		if g.Name == "" {
			continue
		}
		out = append(out, api.Genre{ID: g.TMDBGenreID, Name: g.Name})
	}
	return out
}

// imageURL joins a configured base with a provider artwork path. Provider
// paths carry a leading slash; an empty path yields an empty URL.
func imageURL(base, path string) string {
	if path == "" || base == "" {
		return ""
	}
	return base + path
}
