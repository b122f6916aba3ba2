package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"marquee/internal/normalize"
	"marquee/internal/services"
)

const movieColumns = "id, tmdb_id, title, overview, release_date, poster_path, backdrop_path, original_language, popularity, vote_average, vote_count, runtime, tagline, adult, checksum, created_at, updated_at, synced_at"

type reconcileOutcome int

const (
	outcomeInserted reconcileOutcome = iota
	outcomeUpdated
	outcomeUnchanged
)

// ReconcileMovie persists a normalized record and returns the stored row.
// Matching checksums only refresh the sync timestamp; differing checksums
// rewrite the mutable columns and replace the genre associations atomically.
func (s *Store) ReconcileMovie(ctx context.Context, record *normalize.Record) (*Movie, error) {
	if _, err := s.reconcileMovie(ctx, record); err != nil {
		return nil, err
	}
	return s.MovieByTMDBID(ctx, record.TMDBID)
}

// ReconcileMovies persists a batch of normalized records. Each record is
// reconciled independently: a failing record is counted as skipped and the
// rest of the batch proceeds. The joined error reports every failure.
func (s *Store) ReconcileMovies(ctx context.Context, records []normalize.Record) (ReconcileStats, error) {
	ctx = ensureContext(ctx)
	var stats ReconcileStats
	var errs []error
	for i := range records {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		outcome, err := s.reconcileMovie(ctx, &records[i])
		if err != nil {
			stats.Skipped++
			errs = append(errs, err)
			continue
		}
		switch outcome {
		case outcomeInserted:
			stats.Inserted++
		case outcomeUpdated:
			stats.Updated++
		case outcomeUnchanged:
			stats.Unchanged++
		}
	}
	return stats, errors.Join(errs...)
}

func (s *Store) reconcileMovie(ctx context.Context, record *normalize.Record) (reconcileOutcome, error) {
	ctx = ensureContext(ctx)
	if record == nil {
		return 0, services.Wrap(services.ErrValidation, "store", "reconcile", "record missing", nil)
	}
	if record.TMDBID <= 0 {
		return 0, services.Wrap(services.ErrValidation, "store", "reconcile", "tmdb id must be positive", nil)
	}
	if record.Checksum == "" {
		return 0, services.Wrap(services.ErrValidation, "store", "reconcile", fmt.Sprintf("tmdb id %d: checksum missing", record.TMDBID), nil)
	}

	var outcome reconcileOutcome
	attempt := func() error {
		return retryOnBusy(ctx, func() error {
			return s.withTx(ctx, func(tx *sql.Tx) error {
				var err error
				outcome, err = reconcileInTx(ctx, tx, record)
				return err
			})
		})
	}

	err := attempt()
	if err != nil && isUniqueViolation(err) {
		// Lost an insert race on tmdb_id; the rerun takes the update path.
		if err = attempt(); err != nil && isUniqueViolation(err) {
			return 0, services.Wrap(services.ErrConflict, "store", "reconcile", fmt.Sprintf("tmdb id %d: concurrent insert", record.TMDBID), err)
		}
	}
	if err != nil {
		return 0, fmt.Errorf("reconcile movie %d: %w", record.TMDBID, err)
	}
	return outcome, nil
}

func reconcileInTx(ctx context.Context, tx *sql.Tx, record *normalize.Record) (reconcileOutcome, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)

	var (
		movieID  int64
		checksum string
	)
	err := tx.QueryRowContext(ctx, `SELECT id, checksum FROM movies WHERE tmdb_id = ?`, record.TMDBID).Scan(&movieID, &checksum)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		res, insertErr := tx.ExecContext(ctx,
			`INSERT INTO movies (
                tmdb_id, title, overview, release_date, poster_path, backdrop_path,
                original_language, popularity, vote_average, vote_count, runtime,
                tagline, adult, checksum, created_at, updated_at, synced_at
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			record.TMDBID,
			record.Title,
			record.Overview,
			record.ReleaseDate,
			record.PosterPath,
			record.BackdropPath,
			record.OriginalLanguage,
			record.Popularity,
			record.VoteAverage,
			record.VoteCount,
			record.Runtime,
			record.Tagline,
			boolToInt(record.Adult),
			record.Checksum,
			now,
			now,
			now,
		)
		if insertErr != nil {
			return 0, fmt.Errorf("insert movie: %w", insertErr)
		}
		movieID, insertErr = res.LastInsertId()
		if insertErr != nil {
			return 0, fmt.Errorf("last insert id: %w", insertErr)
		}
		if err := replaceGenresInTx(ctx, tx, movieID, record.Genres); err != nil {
			return 0, err
		}
		return outcomeInserted, nil

	case err != nil:
		return 0, fmt.Errorf("lookup movie: %w", err)

	case checksum == record.Checksum:
		if _, err := tx.ExecContext(ctx, `UPDATE movies SET synced_at = ? WHERE id = ?`, now, movieID); err != nil {
			return 0, fmt.Errorf("touch synced_at: %w", err)
		}
		return outcomeUnchanged, nil

	default:
		if _, err := tx.ExecContext(ctx,
			`UPDATE movies
             SET title = ?, overview = ?, release_date = ?, poster_path = ?,
                 backdrop_path = ?, original_language = ?, popularity = ?,
                 vote_average = ?, vote_count = ?, runtime = ?, tagline = ?,
                 adult = ?, checksum = ?, updated_at = ?, synced_at = ?
             WHERE id = ?`,
			record.Title,
			record.Overview,
			record.ReleaseDate,
			record.PosterPath,
			record.BackdropPath,
			record.OriginalLanguage,
			record.Popularity,
			record.VoteAverage,
			record.VoteCount,
			record.Runtime,
			record.Tagline,
			boolToInt(record.Adult),
			record.Checksum,
			now,
			now,
			movieID,
		); err != nil {
			return 0, fmt.Errorf("update movie: %w", err)
		}
		if err := replaceGenresInTx(ctx, tx, movieID, record.Genres); err != nil {
			return 0, err
		}
		return outcomeUpdated, nil
	}
}

// replaceGenresInTx reconciles the association rows wholesale: the previous
// set is removed and the fetched set inserted, so stale links never linger.
// Genre dictionary names are only overwritten by non-empty incoming names.
func replaceGenresInTx(ctx context.Context, tx *sql.Tx, movieID int64, genres []normalize.Genre) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM movie_genres WHERE movie_id = ?`, movieID); err != nil {
		return fmt.Errorf("clear genre links: %w", err)
	}
	for _, g := range genres {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO genres (tmdb_genre_id, name) VALUES (?, ?)
             ON CONFLICT (tmdb_genre_id) DO UPDATE SET name = excluded.name WHERE excluded.name != ''`,
			g.TMDBGenreID, g.Name,
		); err != nil {
			return fmt.Errorf("upsert genre %d: %w", g.TMDBGenreID, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO movie_genres (movie_id, genre_id) VALUES (?, ?)`,
			movieID, g.TMDBGenreID,
		); err != nil {
			return fmt.Errorf("link genre %d: %w", g.TMDBGenreID, err)
		}
	}
	return nil
}

// MovieByTMDBID fetches a movie by its upstream id. A missing movie returns
// (nil, nil).
func (s *Store) MovieByTMDBID(ctx context.Context, tmdbID int64) (*Movie, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+movieColumns+` FROM movies WHERE tmdb_id = ?`, tmdbID)
	movie, err := scanMovie(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get movie: %w", err)
	}
	return movie, nil
}

// MovieGenres returns the genres associated with a movie, ordered by name.
func (s *Store) MovieGenres(ctx context.Context, movieID int64) ([]Genre, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT g.tmdb_genre_id, g.name
         FROM movie_genres mg
         JOIN genres g ON g.tmdb_genre_id = mg.genre_id
         WHERE mg.movie_id = ?
         ORDER BY g.name, g.tmdb_genre_id`,
		movieID,
	)
	if err != nil {
		return nil, fmt.Errorf("query movie genres: %w", err)
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

// MoviesByGenre returns one page of movies carrying the genre, most popular
// first, along with the total association count for pagination.
func (s *Store) MoviesByGenre(ctx context.Context, genreID int64, page, pageSize int) ([]*Movie, int64, error) {
	ctx = ensureContext(ctx)
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	var total int64
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM movie_genres WHERE genre_id = ?`, genreID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count movies by genre: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+prefixedMovieColumns("m")+`
         FROM movies m
         JOIN movie_genres mg ON mg.movie_id = m.id
         WHERE mg.genre_id = ?
         ORDER BY m.popularity DESC, m.tmdb_id
         LIMIT ? OFFSET ?`,
		genreID, pageSize, (page-1)*pageSize,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("query movies by genre: %w", err)
	}
	defer rows.Close()

	var movies []*Movie
	for rows.Next() {
		movie, err := scanMovie(rows)
		if err != nil {
			return nil, 0, err
		}
		movies = append(movies, movie)
	}
	return movies, total, rows.Err()
}

// Counts aggregates catalog sizes for diagnostics.
func (s *Store) Counts(ctx context.Context) (Counts, error) {
	ctx = ensureContext(ctx)
	var counts Counts
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM movies`).Scan(&counts.Movies); err != nil {
		return counts, fmt.Errorf("count movies: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM genres WHERE name != ''`).Scan(&counts.Genres); err != nil {
		return counts, fmt.Errorf("count genres: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM movie_genres`).Scan(&counts.Associations); err != nil {
		return counts, fmt.Errorf("count associations: %w", err)
	}
	return counts, nil
}

func scanMovie(scanner interface{ Scan(dest ...any) error }) (*Movie, error) {
	var (
		movie      Movie
		adult      int64
		createdRaw string
		updatedRaw string
		syncedRaw  string
	)
	if err := scanner.Scan(
		&movie.ID,
		&movie.TMDBID,
		&movie.Title,
		&movie.Overview,
		&movie.ReleaseDate,
		&movie.PosterPath,
		&movie.BackdropPath,
		&movie.OriginalLanguage,
		&movie.Popularity,
		&movie.VoteAverage,
		&movie.VoteCount,
		&movie.Runtime,
		&movie.Tagline,
		&adult,
		&movie.Checksum,
		&createdRaw,
		&updatedRaw,
		&syncedRaw,
	); err != nil {
		return nil, err
	}
	movie.Adult = adult != 0
	if created, err := parseTimeString(createdRaw); err == nil {
		movie.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		movie.UpdatedAt = updated
	}
	if synced, err := parseTimeString(syncedRaw); err == nil {
		movie.SyncedAt = synced
	}
	return &movie, nil
}

func prefixedMovieColumns(alias string) string {
	cols := strings.Split(movieColumns, ", ")
	for i, col := range cols {
		cols[i] = alias + "." + col
	}
	return strings.Join(cols, ", ")
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
