package store

import "time"

// Movie is a persisted catalog row. SyncedAt records the last time upstream
// confirmed this metadata, whether or not anything changed; UpdatedAt only
// moves when a column was actually rewritten.
type Movie struct {
	ID               int64
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
	Checksum         string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	SyncedAt         time.Time
}

// Genre is a persisted genre dictionary row keyed by TMDB genre id.
type Genre struct {
	TMDBGenreID int64
	Name        string
}

// ReconcileStats summarizes a batch reconciliation.
type ReconcileStats struct {
	Inserted  int
	Updated   int
	Unchanged int
	Skipped   int
}

// Total returns the number of records the batch attempted.
func (s ReconcileStats) Total() int {
	return s.Inserted + s.Updated + s.Unchanged + s.Skipped
}

// Counts aggregates catalog size for diagnostics.
type Counts struct {
	Movies       int64
	Genres       int64
	Associations int64
}
