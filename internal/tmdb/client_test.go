package tmdb

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"marquee/internal/services"
)

func newTestClient(t *testing.T, server *httptest.Server) *Client {
	t.Helper()
	client, err := New("test-key", server.URL, "en-US",
		WithHTTPClient(server.Client()),
		WithRetryBackoff(time.Millisecond, 4*time.Millisecond),
	)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return client
}

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := New("", "https://example.com", "en-US"); err == nil {
		t.Fatal("expected error when api key missing")
	}
	if _, err := New("key", "   ", "en-US"); err == nil {
		t.Fatal("expected error when base url missing")
	}
}

func TestTrendingDecodesPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/trending/movie/week" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("api_key") != "test-key" {
			t.Fatalf("expected api_key query parameter, got %q", r.URL.RawQuery)
		}
		if r.URL.Query().Get("language") != "en-US" {
			t.Fatalf("expected language query parameter, got %q", r.URL.RawQuery)
		}
		if r.URL.Query().Get("page") != "1" {
			t.Fatalf("expected page=1, got %q", r.URL.Query().Get("page"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"page":1,"results":[{"id":550,"title":"Fight Club","popularity":61.4,"genre_ids":[18,53]}],"total_pages":10,"total_results":200}`))
	}))
	t.Cleanup(server.Close)

	client := newTestClient(t, server)
	page, err := client.Trending(context.Background(), "", 0)
	if err != nil {
		t.Fatalf("Trending returned error: %v", err)
	}
	if page.Page != 1 || page.TotalPages != 10 || page.TotalResults != 200 {
		t.Fatalf("unexpected page envelope: %#v", page)
	}
	if len(page.Results) != 1 || page.Results[0].ID != 550 || page.Results[0].Title != "Fight Club" {
		t.Fatalf("unexpected results: %#v", page.Results)
	}
	if len(page.Results[0].GenreIDs) != 2 {
		t.Fatalf("expected genre ids decoded, got %#v", page.Results[0].GenreIDs)
	}
}

func TestTrendingRejectsUnknownWindow(t *testing.T) {
	client, err := New("key", "https://example.com", "")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	_, err = client.Trending(context.Background(), "month", 1)
	if err == nil {
		t.Fatal("expected error for unknown window")
	}
	if !services.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSearchEncodesQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/movie" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		query := r.URL.Query()
		if query.Get("query") != "batman begins" {
			t.Fatalf("unexpected query param %q", query.Get("query"))
		}
		if query.Get("page") != "2" {
			t.Fatalf("unexpected page param %q", query.Get("page"))
		}
		if query.Get("include_adult") != "false" {
			t.Fatalf("expected include_adult=false, got %q", query.Get("include_adult"))
		}
		_, _ = w.Write([]byte(`{"page":2,"results":[],"total_pages":2,"total_results":21}`))
	}))
	t.Cleanup(server.Close)

	client := newTestClient(t, server)
	page, err := client.Search(context.Background(), "batman begins", 2)
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if page.Page != 2 {
		t.Fatalf("expected page 2, got %d", page.Page)
	}
	if page.Results == nil {
		// An empty results array decodes to a non-nil empty slice.
		t.Fatal("expected decoded results slice")
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	client, err := New("key", "https://example.com", "")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, err := client.Search(context.Background(), "  ", 1); err == nil {
		t.Fatal("expected error for empty query")
	}
}

func TestDiscoverByGenreSetsFilter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/discover/movie" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		query := r.URL.Query()
		if query.Get("with_genres") != "28" {
			t.Fatalf("unexpected with_genres %q", query.Get("with_genres"))
		}
		if query.Get("sort_by") != "popularity.desc" {
			t.Fatalf("unexpected sort_by %q", query.Get("sort_by"))
		}
		_, _ = w.Write([]byte(`{"page":1,"results":[{"id":155,"title":"The Dark Knight"}],"total_pages":1,"total_results":1}`))
	}))
	t.Cleanup(server.Close)

	client := newTestClient(t, server)
	page, err := client.DiscoverByGenre(context.Background(), 28, 1)
	if err != nil {
		t.Fatalf("DiscoverByGenre returned error: %v", err)
	}
	if len(page.Results) != 1 || page.Results[0].ID != 155 {
		t.Fatalf("unexpected results: %#v", page.Results)
	}

	if _, err := client.DiscoverByGenre(context.Background(), 0, 1); !services.IsValidation(err) {
		t.Fatalf("expected validation error for genre id 0, got %v", err)
	}
}

func TestGenreListDecodes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/genre/movie/list" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"genres":[{"id":28,"name":"Action"},{"id":18,"name":"Drama"}]}`))
	}))
	t.Cleanup(server.Close)

	client := newTestClient(t, server)
	genres, err := client.GenreList(context.Background())
	if err != nil {
		t.Fatalf("GenreList returned error: %v", err)
	}
	if len(genres) != 2 || genres[0].Name != "Action" || genres[1].ID != 18 {
		t.Fatalf("unexpected genres: %#v", genres)
	}
}

func TestMovieDetailNotFound(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"status_code":34,"status_message":"The resource you requested could not be found."}`))
	}))
	t.Cleanup(server.Close)

	client := newTestClient(t, server)
	_, err := client.MovieDetail(context.Background(), 999999)
	if err == nil {
		t.Fatal("expected error for missing movie")
	}
	if !services.IsNotFound(err) {
		t.Fatalf("expected not-found classification, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected no retries on 404, got %d calls", calls)
	}
}

func TestRetryExhaustsToUpstreamError(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status_message":"overloaded"}`))
	}))
	t.Cleanup(server.Close)

	client := newTestClient(t, server)
	_, err := client.Popular(context.Background(), 1)
	if err == nil {
		t.Fatal("expected error after retries exhausted")
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
	var upstream *services.UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected UpstreamError, got %T: %v", err, err)
	}
	if upstream.Status != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", upstream.Status)
	}
	if !upstream.Retryable {
		t.Fatal("expected failure class to be marked retryable")
	}
	if !services.IsUpstream(err) {
		t.Fatalf("expected upstream classification, got %v", err)
	}
}

func TestRetryRecoversAfterServerError(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"page":1,"results":[{"id":1,"title":"Recovered"}],"total_pages":1,"total_results":1}`))
	}))
	t.Cleanup(server.Close)

	client := newTestClient(t, server)
	page, err := client.Popular(context.Background(), 1)
	if err != nil {
		t.Fatalf("Popular returned error: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
	if len(page.Results) != 1 || page.Results[0].Title != "Recovered" {
		t.Fatalf("unexpected results: %#v", page.Results)
	}
}

func TestRetryRecoversAfterRateLimit(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"page":1,"results":[],"total_pages":0,"total_results":0}`))
	}))
	t.Cleanup(server.Close)

	client := newTestClient(t, server)
	if _, err := client.Popular(context.Background(), 1); err != nil {
		t.Fatalf("Popular returned error: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
}

func TestMalformedPayloadNotRetried(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = w.Write([]byte(`{"page":1,"results":[`))
	}))
	t.Cleanup(server.Close)

	client := newTestClient(t, server)
	_, err := client.Popular(context.Background(), 1)
	if err == nil {
		t.Fatal("expected decode error")
	}
	if calls != 1 {
		t.Fatalf("expected no retries on malformed payload, got %d calls", calls)
	}
	if services.IsRetryable(err) {
		t.Fatalf("expected non-retryable decode error, got %v", err)
	}
}

func TestClientErrorNotRetried(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"status_message":"Invalid API key"}`))
	}))
	t.Cleanup(server.Close)

	client := newTestClient(t, server)
	_, err := client.Popular(context.Background(), 1)
	if err == nil {
		t.Fatal("expected error for 401")
	}
	if calls != 1 {
		t.Fatalf("expected single attempt on 401, got %d", calls)
	}
	var upstream *services.UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected UpstreamError, got %T", err)
	}
	if upstream.Retryable {
		t.Fatal("expected 401 to be non-retryable")
	}
}

func TestRetryDelayHonorsRetryAfter(t *testing.T) {
	client, err := New("key", "https://example.com", "",
		WithRetryBackoff(time.Millisecond, 2*time.Second))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	hinted := &services.UpstreamError{Status: 429, Retryable: true, RetryAfter: time.Second}
	if got := client.retryDelay(0, hinted, nil); got != time.Second {
		t.Fatalf("expected Retry-After delay of 1s, got %v", got)
	}

	over := &services.UpstreamError{Status: 503, Retryable: true, RetryAfter: time.Minute}
	if got := client.retryDelay(0, over, nil); got != 2*time.Second {
		t.Fatalf("expected delay capped at 2s, got %v", got)
	}
}

func TestParseRetryAfter(t *testing.T) {
	if d, ok := parseRetryAfter("3"); !ok || d != 3*time.Second {
		t.Fatalf("expected 3s, got %v ok=%v", d, ok)
	}
	if _, ok := parseRetryAfter(""); ok {
		t.Fatal("expected empty header to be ignored")
	}
	if _, ok := parseRetryAfter("-5"); ok {
		t.Fatal("expected negative header to be ignored")
	}
	future := time.Now().Add(90 * time.Second).UTC().Format(http.TimeFormat)
	if d, ok := parseRetryAfter(future); !ok || d < 80*time.Second || d > 91*time.Second {
		t.Fatalf("expected ~90s from http date, got %v ok=%v", d, ok)
	}
	past := time.Now().Add(-time.Minute).UTC().Format(http.TimeFormat)
	if _, ok := parseRetryAfter(past); ok {
		t.Fatal("expected past http date to be ignored")
	}
}
