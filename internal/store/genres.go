package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"marquee/internal/normalize"
)

// UpsertGenres reconciles the genre dictionary against an upstream catalog.
// Existing rows keep their id; names are overwritten with the fetched ones.
func (s *Store) UpsertGenres(ctx context.Context, genres []normalize.Genre) error {
	if len(genres) == 0 {
		return nil
	}
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		return s.withTx(ctx, func(tx *sql.Tx) error {
			for _, g := range genres {
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO genres (tmdb_genre_id, name) VALUES (?, ?)
                     ON CONFLICT (tmdb_genre_id) DO UPDATE SET name = excluded.name`,
					g.TMDBGenreID, g.Name,
				); err != nil {
					return fmt.Errorf("upsert genre %d: %w", g.TMDBGenreID, err)
				}
			}
			return nil
		})
	})
}

// Genres lists the named genre dictionary ordered by name. Placeholder rows
// created from list payloads before a genre sync carry empty names and are
// excluded.
func (s *Store) Genres(ctx context.Context) ([]Genre, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT tmdb_genre_id, name FROM genres WHERE name != '' ORDER BY name, tmdb_genre_id`)
	if err != nil {
		return nil, fmt.Errorf("query genres: %w", err)
	}
	defer rows.Close()

	var genres []Genre
	for rows.Next() {
		var g Genre
		if err := rows.Scan(&g.TMDBGenreID, &g.Name); err != nil {
			return nil, err
		}
		genres = append(genres, g)
	}
	return genres, rows.Err()
}

// GenreByID fetches a single genre row. A missing genre returns (nil, nil).
func (s *Store) GenreByID(ctx context.Context, genreID int64) (*Genre, error) {
	row := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT tmdb_genre_id, name FROM genres WHERE tmdb_genre_id = ?`, genreID)
	var g Genre
	err := row.Scan(&g.TMDBGenreID, &g.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get genre: %w", err)
	}
	return &g, nil
}
