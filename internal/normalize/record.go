package normalize

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"marquee/internal/services"
	"marquee/internal/tmdb"
)

const releaseDateLayout = "2006-01-02"

// Record is the canonical movie representation handed to the store. Checksum
// covers every mutable field, so two records with equal checksums carry
// identical metadata.
type Record struct {
	TMDBID           int64
	Title            string
	Overview         string
	ReleaseDate      string
	PosterPath       string
	BackdropPath     string
	OriginalLanguage string
	Popularity       float64
	VoteAverage      float64
	VoteCount        int64
	Runtime          int
	Tagline          string
	Adult            bool
	Genres           []Genre
	Checksum         string
}

// Movie validates a single TMDB payload and produces the canonical record.
// genreNames resolves genre ids on list payloads, which carry ids only;
// detail payloads embed full genre objects and win when present. Unknown ids
// keep an empty name until a later genre sync or detail fetch fills it in.
func Movie(payload *tmdb.Movie, genreNames map[int64]string) (*Record, error) {
	if payload == nil {
		return nil, services.Wrap(services.ErrValidation, "normalize", "movie", "payload missing", nil)
	}
	if payload.ID <= 0 {
		return nil, services.Wrap(services.ErrValidation, "normalize", "movie", "tmdb id must be positive", nil)
	}
	title := strings.TrimSpace(payload.Title)
	if title == "" {
		return nil, services.Wrap(services.ErrValidation, "normalize", "movie", fmt.Sprintf("tmdb id %d: title must not be empty", payload.ID), nil)
	}
	if payload.Popularity < 0 {
		return nil, services.Wrap(services.ErrValidation, "normalize", "movie", fmt.Sprintf("tmdb id %d: popularity must not be negative", payload.ID), nil)
	}
	if payload.VoteAverage < 0 {
		return nil, services.Wrap(services.ErrValidation, "normalize", "movie", fmt.Sprintf("tmdb id %d: vote average must not be negative", payload.ID), nil)
	}
	if payload.VoteCount < 0 {
		return nil, services.Wrap(services.ErrValidation, "normalize", "movie", fmt.Sprintf("tmdb id %d: vote count must not be negative", payload.ID), nil)
	}
	if payload.Runtime < 0 {
		return nil, services.Wrap(services.ErrValidation, "normalize", "movie", fmt.Sprintf("tmdb id %d: runtime must not be negative", payload.ID), nil)
	}

	record := &Record{
		TMDBID:           payload.ID,
		Title:            title,
		Overview:         strings.TrimSpace(payload.Overview),
		ReleaseDate:      normalizeReleaseDate(payload.ReleaseDate),
		PosterPath:       strings.TrimSpace(payload.PosterPath),
		BackdropPath:     strings.TrimSpace(payload.BackdropPath),
		OriginalLanguage: strings.ToLower(strings.TrimSpace(payload.OriginalLanguage)),
		Popularity:       payload.Popularity,
		VoteAverage:      payload.VoteAverage,
		VoteCount:        payload.VoteCount,
		Runtime:          payload.Runtime,
		Tagline:          strings.TrimSpace(payload.Tagline),
		Adult:            payload.Adult,
		Genres:           movieGenres(payload, genreNames),
	}
	record.Checksum = checksum(record)
	return record, nil
}

// MoviePage normalizes every result on a TMDB list page. Invalid results are
// skipped and reported in the returned error slice; they never fail the
// batch. Duplicate ids keep the first occurrence.
func MoviePage(page *tmdb.Page, genreNames map[int64]string) ([]Record, []error) {
	if page == nil || len(page.Results) == 0 {
		return nil, nil
	}
	records := make([]Record, 0, len(page.Results))
	var errs []error
	seen := make(map[int64]struct{}, len(page.Results))
	for i := range page.Results {
		record, err := Movie(&page.Results[i], genreNames)
		if err != nil {
			errs = append(errs, fmt.Errorf("result %d: %w", i, err))
			continue
		}
		if _, dup := seen[record.TMDBID]; dup {
			continue
		}
		seen[record.TMDBID] = struct{}{}
		records = append(records, *record)
	}
	return records, errs
}

func movieGenres(payload *tmdb.Movie, genreNames map[int64]string) []Genre {
	if len(payload.Genres) > 0 {
		pairs := make([]Genre, 0, len(payload.Genres))
		seen := make(map[int64]struct{}, len(payload.Genres))
		for _, g := range payload.Genres {
			if g.ID <= 0 {
				continue
			}
			if _, dup := seen[g.ID]; dup {
				continue
			}
			seen[g.ID] = struct{}{}
			pairs = append(pairs, Genre{TMDBGenreID: g.ID, Name: strings.TrimSpace(g.Name)})
		}
		return pairs
	}
	pairs := make([]Genre, 0, len(payload.GenreIDs))
	seen := make(map[int64]struct{}, len(payload.GenreIDs))
	for _, id := range payload.GenreIDs {
		if id <= 0 {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		pairs = append(pairs, Genre{TMDBGenreID: id, Name: strings.TrimSpace(genreNames[id])})
	}
	return pairs
}

func normalizeReleaseDate(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if _, err := time.Parse(releaseDateLayout, value); err != nil {
		return ""
	}
	return value
}

// checksum hashes the canonical fields with a separator between components so
// adjacent values cannot collide. Genres contribute in id order regardless of
// payload ordering.
func checksum(r *Record) string {
	hasher := sha256.New()
	writeComponent(hasher, strconv.FormatInt(r.TMDBID, 10))
	writeComponent(hasher, r.Title)
	writeComponent(hasher, r.Overview)
	writeComponent(hasher, r.ReleaseDate)
	writeComponent(hasher, r.PosterPath)
	writeComponent(hasher, r.BackdropPath)
	writeComponent(hasher, r.OriginalLanguage)
	writeComponent(hasher, strconv.FormatFloat(r.Popularity, 'f', -1, 64))
	writeComponent(hasher, strconv.FormatFloat(r.VoteAverage, 'f', -1, 64))
	writeComponent(hasher, strconv.FormatInt(r.VoteCount, 10))
	writeComponent(hasher, strconv.Itoa(r.Runtime))
	writeComponent(hasher, r.Tagline)
	writeComponent(hasher, strconv.FormatBool(r.Adult))

	genres := append([]Genre(nil), r.Genres...)
	sort.Slice(genres, func(i, j int) bool { return genres[i].TMDBGenreID < genres[j].TMDBGenreID })
	for _, g := range genres {
		writeComponent(hasher, strconv.FormatInt(g.TMDBGenreID, 10))
		writeComponent(hasher, g.Name)
	}
	return hex.EncodeToString(hasher.Sum(nil))
}

func writeComponent(hasher hashWriter, value string) {
	_, _ = hasher.Write([]byte(value))
	_, _ = hasher.Write([]byte{0})
}

type hashWriter interface {
	Write(p []byte) (int, error)
}
