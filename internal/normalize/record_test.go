package normalize

import (
	"strings"
	"testing"

	"marquee/internal/services"
	"marquee/internal/tmdb"
)

func samplePayload() *tmdb.Movie {
	return &tmdb.Movie{
		ID:               550,
		Title:            "Fight Club",
		Overview:         "An insomniac office worker...",
		ReleaseDate:      "1999-10-15",
		PosterPath:       "/poster.jpg",
		BackdropPath:     "/backdrop.jpg",
		OriginalLanguage: "EN",
		Popularity:       61.4,
		VoteAverage:      8.4,
		VoteCount:        26280,
		GenreIDs:         []int64{18, 53},
	}
}

func TestMovieNormalizesFields(t *testing.T) {
	names := map[int64]string{18: "Drama", 53: "Thriller"}
	record, err := Movie(samplePayload(), names)
	if err != nil {
		t.Fatalf("Movie returned error: %v", err)
	}
	if record.TMDBID != 550 || record.Title != "Fight Club" {
		t.Fatalf("unexpected identity fields: %#v", record)
	}
	if record.OriginalLanguage != "en" {
		t.Fatalf("expected lowercased language, got %q", record.OriginalLanguage)
	}
	if len(record.Genres) != 2 {
		t.Fatalf("expected 2 genres, got %#v", record.Genres)
	}
	if record.Genres[0].Name != "Drama" || record.Genres[1].Name != "Thriller" {
		t.Fatalf("expected genre names resolved, got %#v", record.Genres)
	}
	if len(record.Checksum) != 64 {
		t.Fatalf("expected sha256 hex checksum, got %q", record.Checksum)
	}
}

func TestMovieRequiresIDAndTitle(t *testing.T) {
	payload := samplePayload()
	payload.ID = 0
	if _, err := Movie(payload, nil); !services.IsValidation(err) {
		t.Fatalf("expected validation error for missing id, got %v", err)
	}

	payload = samplePayload()
	payload.Title = "   "
	if _, err := Movie(payload, nil); !services.IsValidation(err) {
		t.Fatalf("expected validation error for blank title, got %v", err)
	}

	if _, err := Movie(nil, nil); !services.IsValidation(err) {
		t.Fatalf("expected validation error for nil payload, got %v", err)
	}
}

func TestMovieRejectsNegativeMetrics(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*tmdb.Movie)
	}{
		{"popularity", func(m *tmdb.Movie) { m.Popularity = -1 }},
		{"vote average", func(m *tmdb.Movie) { m.VoteAverage = -0.5 }},
		{"vote count", func(m *tmdb.Movie) { m.VoteCount = -10 }},
		{"runtime", func(m *tmdb.Movie) { m.Runtime = -90 }},
	}
	for _, tc := range cases {
		payload := samplePayload()
		tc.mutate(payload)
		if _, err := Movie(payload, nil); !services.IsValidation(err) {
			t.Errorf("%s: expected validation error, got %v", tc.name, err)
		}
	}
}

func TestMovieClearsMalformedReleaseDate(t *testing.T) {
	payload := samplePayload()
	payload.ReleaseDate = "15/10/1999"
	record, err := Movie(payload, nil)
	if err != nil {
		t.Fatalf("Movie returned error: %v", err)
	}
	if record.ReleaseDate != "" {
		t.Fatalf("expected malformed date cleared, got %q", record.ReleaseDate)
	}

	payload = samplePayload()
	payload.ReleaseDate = ""
	if record, err = Movie(payload, nil); err != nil {
		t.Fatalf("Movie returned error for missing date: %v", err)
	}
}

func TestMoviePrefersDetailGenres(t *testing.T) {
	payload := samplePayload()
	payload.Genres = []tmdb.Genre{{ID: 18, Name: "Drama"}}
	payload.GenreIDs = []int64{53}
	record, err := Movie(payload, map[int64]string{53: "Thriller"})
	if err != nil {
		t.Fatalf("Movie returned error: %v", err)
	}
	if len(record.Genres) != 1 || record.Genres[0].TMDBGenreID != 18 {
		t.Fatalf("expected embedded genres to win, got %#v", record.Genres)
	}
}

func TestMovieUnknownGenreKeepsEmptyName(t *testing.T) {
	payload := samplePayload()
	payload.GenreIDs = []int64{18, 9999}
	record, err := Movie(payload, map[int64]string{18: "Drama"})
	if err != nil {
		t.Fatalf("Movie returned error: %v", err)
	}
	if len(record.Genres) != 2 {
		t.Fatalf("expected both genres kept, got %#v", record.Genres)
	}
	if record.Genres[1].Name != "" {
		t.Fatalf("expected unknown genre to keep empty name, got %q", record.Genres[1].Name)
	}
}

func TestChecksumStability(t *testing.T) {
	names := map[int64]string{18: "Drama", 53: "Thriller"}
	first, err := Movie(samplePayload(), names)
	if err != nil {
		t.Fatalf("Movie returned error: %v", err)
	}
	second, err := Movie(samplePayload(), names)
	if err != nil {
		t.Fatalf("Movie returned error: %v", err)
	}
	if first.Checksum != second.Checksum {
		t.Fatal("expected identical payloads to produce identical checksums")
	}

	reordered := samplePayload()
	reordered.GenreIDs = []int64{53, 18}
	third, err := Movie(reordered, names)
	if err != nil {
		t.Fatalf("Movie returned error: %v", err)
	}
	if third.Checksum != first.Checksum {
		t.Fatal("expected genre order not to affect the checksum")
	}

	changed := samplePayload()
	changed.Overview = "A different synopsis."
	fourth, err := Movie(changed, names)
	if err != nil {
		t.Fatalf("Movie returned error: %v", err)
	}
	if fourth.Checksum == first.Checksum {
		t.Fatal("expected changed overview to change the checksum")
	}
}

func TestChecksumSeparatesAdjacentFields(t *testing.T) {
	// Title and overview are adjacent in the hash layout; without a separator
	// these two would collide.
	a := samplePayload()
	a.Title = "Fight Clubx"
	a.Overview = "yz"
	b := samplePayload()
	b.Title = "Fight Club"
	b.Overview = "xyz"
	first, err := Movie(a, nil)
	if err != nil {
		t.Fatalf("Movie returned error: %v", err)
	}
	second, err := Movie(b, nil)
	if err != nil {
		t.Fatalf("Movie returned error: %v", err)
	}
	if first.Checksum == second.Checksum {
		t.Fatal("expected component separator to prevent field bleed")
	}
}

func TestMoviePageSkipsInvalidRecords(t *testing.T) {
	page := &tmdb.Page{
		Page: 1,
		Results: []tmdb.Movie{
			{ID: 1, Title: "First"},
			{ID: 2, Title: "   "},
			{ID: 3, Title: "Third"},
		},
	}
	records, errs := MoviePage(page, nil)
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %d", len(errs))
	}
	if !services.IsValidation(errs[0]) {
		t.Fatalf("expected validation error, got %v", errs[0])
	}
	if !strings.Contains(errs[0].Error(), "result 1") {
		t.Fatalf("expected error to name the failing result, got %v", errs[0])
	}
	if records[0].TMDBID != 1 || records[1].TMDBID != 3 {
		t.Fatalf("unexpected surviving records: %#v", records)
	}
}

func TestMoviePageDedupes(t *testing.T) {
	page := &tmdb.Page{
		Page: 1,
		Results: []tmdb.Movie{
			{ID: 1, Title: "First"},
			{ID: 1, Title: "First Again"},
		},
	}
	records, errs := MoviePage(page, nil)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(records) != 1 || records[0].Title != "First" {
		t.Fatalf("expected first occurrence kept, got %#v", records)
	}
}

func TestMoviePageEmpty(t *testing.T) {
	records, errs := MoviePage(nil, nil)
	if records != nil || errs != nil {
		t.Fatalf("expected nil page to normalize to nothing, got %#v %v", records, errs)
	}
	records, errs = MoviePage(&tmdb.Page{Page: 1}, nil)
	if len(records) != 0 || len(errs) != 0 {
		t.Fatalf("expected empty page to normalize to nothing, got %#v %v", records, errs)
	}
}

func TestGenresValidatesAndDedupes(t *testing.T) {
	genres := Genres([]tmdb.Genre{
		{ID: 28, Name: "Action"},
		{ID: 28, Name: "Action Again"},
		{ID: 0, Name: "Broken"},
		{ID: 18, Name: "   "},
		{ID: 12, Name: " Adventure "},
	})
	if len(genres) != 2 {
		t.Fatalf("expected 2 surviving genres, got %#v", genres)
	}
	if genres[0].Name != "Action" || genres[1].Name != "Adventure" {
		t.Fatalf("unexpected genres: %#v", genres)
	}

	index := NameIndex(genres)
	if index[28] != "Action" || index[12] != "Adventure" {
		t.Fatalf("unexpected name index: %#v", index)
	}
}
