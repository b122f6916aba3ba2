package api

import "time"

// Genre is a genre dictionary entry keyed by the provider id.
type Genre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Movie describes one catalog movie in a transport-friendly format. PosterURL
// and BackdropURL are absolute; the raw provider paths are not exposed.
type Movie struct {
	ID               int64   `json:"id"`
	TMDBID           int64   `json:"tmdbId"`
	Title            string  `json:"title"`
	Overview         string  `json:"overview,omitempty"`
	ReleaseDate      string  `json:"releaseDate,omitempty"`
	PosterURL        string  `json:"posterUrl,omitempty"`
	BackdropURL      string  `json:"backdropUrl,omitempty"`
	OriginalLanguage string  `json:"originalLanguage,omitempty"`
	Popularity       float64 `json:"popularity"`
	VoteAverage      float64 `json:"voteAverage"`
	VoteCount        int64   `json:"voteCount"`
	Runtime          int     `json:"runtime,omitempty"`
	Tagline          string  `json:"tagline,omitempty"`
	Adult            bool    `json:"adult,omitempty"`
	Genres           []Genre `json:"genres"`
	SyncedAt         string  `json:"syncedAt,omitempty"`
}

// MoviePage is one page of movie results plus the pagination envelope.
type MoviePage struct {
	Page         int     `json:"page"`
	TotalPages   int     `json:"totalPages"`
	TotalResults int64   `json:"totalResults"`
	Results      []Movie `json:"results"`
}

// GenreListResponse wraps the genre dictionary.
type GenreListResponse struct {
	Genres []Genre `json:"genres"`
}

// SyncRun reports one background synchronization run.
type SyncRun struct {
	ID         string `json:"id"`
	StartedAt  string `json:"startedAt"`
	DurationMS int64  `json:"durationMs"`
	Inserted   int    `json:"inserted"`
	Updated    int    `json:"updated"`
	Unchanged  int    `json:"unchanged"`
	Skipped    int    `json:"skipped"`
	Error      string `json:"error,omitempty"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool     `json:"running"`
	PID          int      `json:"pid"`
	UptimeSec    int64    `json:"uptimeSec"`
	StorePath    string   `json:"storePath"`
	CacheBackend string   `json:"cacheBackend"`
	Movies       int64    `json:"movies"`
	Genres       int64    `json:"genres"`
	Associations int64    `json:"associations"`
	LastSync     *SyncRun `json:"lastSync,omitempty"`
	NextSync     string   `json:"nextSync,omitempty"`
}

// SyncResponse acknowledges a manual sync trigger.
type SyncResponse struct {
	Run SyncRun `json:"run"`
}

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// FormatTime renders timestamps the way API payloads carry them. Zero times
// render as the empty string.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
