package normalize

import (
	"strings"

	"marquee/internal/tmdb"
)

// Genre pairs a TMDB genre id with its display name.
type Genre struct {
	TMDBGenreID int64
	Name        string
}

// Genres validates and dedupes a TMDB genre catalog. Entries without a
// positive id or a non-empty name are dropped; duplicates keep the first
// occurrence.
func Genres(genres []tmdb.Genre) []Genre {
	out := make([]Genre, 0, len(genres))
	seen := make(map[int64]struct{}, len(genres))
	for _, g := range genres {
		name := strings.TrimSpace(g.Name)
		if g.ID <= 0 || name == "" {
			continue
		}
		if _, dup := seen[g.ID]; dup {
			continue
		}
		seen[g.ID] = struct{}{}
		out = append(out, Genre{TMDBGenreID: g.ID, Name: name})
	}
	return out
}

// NameIndex builds a genre id to name lookup for list-payload normalization.
func NameIndex(genres []Genre) map[int64]string {
	index := make(map[int64]string, len(genres))
	for _, g := range genres {
		index[g.TMDBGenreID] = g.Name
	}
	return index
}
