package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"

	"marquee/internal/services"
)

const (
	defaultHTTPTimeout    = 10 * time.Second
	defaultRetryAttempts  = 3
	defaultRetryBaseDelay = 500 * time.Millisecond
	defaultRetryMaxDelay  = 5 * time.Second

	// WindowDay and WindowWeek are the trending windows TMDB accepts.
	WindowDay  = "day"
	WindowWeek = "week"
)

// Genre is a single TMDB genre entry.
type Genre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Movie represents a TMDB movie payload. List endpoints populate GenreIDs;
// the detail endpoint populates Genres, Runtime, and Tagline instead.
type Movie struct {
	ID               int64   `json:"id"`
	Title            string  `json:"title"`
	Overview         string  `json:"overview"`
	ReleaseDate      string  `json:"release_date"`
	PosterPath       string  `json:"poster_path"`
	BackdropPath     string  `json:"backdrop_path"`
	OriginalLanguage string  `json:"original_language"`
	Popularity       float64 `json:"popularity"`
	VoteAverage      float64 `json:"vote_average"`
	VoteCount        int64   `json:"vote_count"`
	Runtime          int     `json:"runtime"`
	Tagline          string  `json:"tagline"`
	Adult            bool    `json:"adult"`
	GenreIDs         []int64 `json:"genre_ids"`
	Genres           []Genre `json:"genres"`
}

// Page models the TMDB paginated list response.
type Page struct {
	Page         int     `json:"page"`
	Results      []Movie `json:"results"`
	TotalPages   int     `json:"total_pages"`
	TotalResults int     `json:"total_results"`
}

type genreListResponse struct {
	Genres []Genre `json:"genres"`
}

// Fetcher defines the TMDB operations the catalog consumes.
type Fetcher interface {
	Trending(ctx context.Context, window string, page int) (*Page, error)
	Popular(ctx context.Context, page int) (*Page, error)
	Search(ctx context.Context, query string, page int) (*Page, error)
	DiscoverByGenre(ctx context.Context, genreID int64, page int) (*Page, error)
	MovieDetail(ctx context.Context, tmdbID int64) (*Movie, error)
	GenreList(ctx context.Context) ([]Genre, error)
}

// Client provides access to the TMDB API.
type Client struct {
	apiKey     string
	baseURL    string
	language   string
	httpClient *http.Client

	retryMaxAttempts int
	retryBaseDelay   time.Duration
	retryMaxDelay    time.Duration
}

var _ Fetcher = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRetryMaxAttempts overrides the total attempt count (defaults to 3).
func WithRetryMaxAttempts(attempts int) Option {
	return func(c *Client) {
		if attempts > 0 {
			c.retryMaxAttempts = attempts
		}
	}
}

// WithRetryBackoff overrides the retry backoff delays.
func WithRetryBackoff(baseDelay, maxDelay time.Duration) Option {
	return func(c *Client) {
		if baseDelay > 0 {
			c.retryBaseDelay = baseDelay
		}
		if maxDelay > 0 {
			c.retryMaxDelay = maxDelay
		}
	}
}

// New creates a TMDB client.
func New(apiKey, baseURL, language string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, services.Wrap(services.ErrConfiguration, "tmdb", "", "api key required", nil)
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, services.Wrap(services.ErrConfiguration, "tmdb", "", "base url required", nil)
	}
	language = strings.TrimSpace(language)
	client := &Client{
		apiKey:           apiKey,
		baseURL:          strings.TrimRight(baseURL, "/"),
		language:         language,
		httpClient:       &http.Client{Timeout: defaultHTTPTimeout},
		retryMaxAttempts: defaultRetryAttempts,
		retryBaseDelay:   defaultRetryBaseDelay,
		retryMaxDelay:    defaultRetryMaxDelay,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Trending fetches the trending movies for the supplied window ("day" or
// "week"). An empty window defaults to "week".
func (c *Client) Trending(ctx context.Context, window string, page int) (*Page, error) {
	window = strings.ToLower(strings.TrimSpace(window))
	if window == "" {
		window = WindowWeek
	}
	if window != WindowDay && window != WindowWeek {
		return nil, services.Wrap(services.ErrValidation, "tmdb", "trending", fmt.Sprintf("unknown window %q", window), nil)
	}
	params := url.Values{}
	params.Set("page", strconv.Itoa(normalizePage(page)))
	var payload Page
	if err := c.getJSON(ctx, "trending", "/trending/movie/"+window, params, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// Popular fetches the popular movies list.
func (c *Client) Popular(ctx context.Context, page int) (*Page, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(normalizePage(page)))
	var payload Page
	if err := c.getJSON(ctx, "popular", "/movie/popular", params, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// Search performs a TMDB movie search for the supplied query.
func (c *Client) Search(ctx context.Context, query string, page int) (*Page, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, services.Wrap(services.ErrValidation, "tmdb", "search", "query must not be empty", nil)
	}
	params := url.Values{}
	params.Set("query", query)
	params.Set("page", strconv.Itoa(normalizePage(page)))
	params.Set("include_adult", "false")
	var payload Page
	if err := c.getJSON(ctx, "search", "/search/movie", params, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// DiscoverByGenre fetches movies carrying the supplied genre, most popular first.
func (c *Client) DiscoverByGenre(ctx context.Context, genreID int64, page int) (*Page, error) {
	if genreID <= 0 {
		return nil, services.Wrap(services.ErrValidation, "tmdb", "discover", "genre id must be positive", nil)
	}
	params := url.Values{}
	params.Set("with_genres", strconv.FormatInt(genreID, 10))
	params.Set("sort_by", "popularity.desc")
	params.Set("page", strconv.Itoa(normalizePage(page)))
	var payload Page
	if err := c.getJSON(ctx, "discover", "/discover/movie", params, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// MovieDetail fetches full movie details by TMDB ID.
func (c *Client) MovieDetail(ctx context.Context, tmdbID int64) (*Movie, error) {
	if tmdbID <= 0 {
		return nil, services.Wrap(services.ErrValidation, "tmdb", "detail", "movie id must be positive", nil)
	}
	var payload Movie
	if err := c.getJSON(ctx, "detail", fmt.Sprintf("/movie/%d", tmdbID), nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// GenreList fetches the full movie genre catalog.
func (c *Client) GenreList(ctx context.Context) ([]Genre, error) {
	var payload genreListResponse
	if err := c.getJSON(ctx, "genres", "/genre/movie/list", nil, &payload); err != nil {
		return nil, err
	}
	return payload.Genres, nil
}

func normalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

func (c *Client) getJSON(ctx context.Context, op, path string, params url.Values, out any) error {
	endpoint, err := url.Parse(c.baseURL + path)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "tmdb", op, "parse url", err)
	}
	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", c.apiKey)
	if c.language != "" {
		params.Set("language", c.language)
	}
	endpoint.RawQuery = params.Encode()

	attempts := c.retryMaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	return retry.Do(
		func() error {
			return c.getJSONOnce(ctx, op, endpoint.String(), out)
		},
		retry.Context(ctx),
		retry.Attempts(uint(attempts)),
		retry.Delay(c.retryBaseDelay),
		retry.MaxDelay(c.retryMaxDelay),
		retry.DelayType(c.retryDelay),
		retry.RetryIf(services.IsRetryable),
		retry.LastErrorOnly(true),
	)
}

// retryDelay honors an upstream Retry-After hint when present, otherwise
// falls back to exponential backoff. MaxDelay still caps the result.
func (c *Client) retryDelay(n uint, err error, cfg *retry.Config) time.Duration {
	var upstream *services.UpstreamError
	if errors.As(err, &upstream) && upstream.RetryAfter > 0 {
		if c.retryMaxDelay > 0 && upstream.RetryAfter > c.retryMaxDelay {
			return c.retryMaxDelay
		}
		return upstream.RetryAfter
	}
	return retry.BackOffDelay(n, err, cfg)
}

func (c *Client) getJSONOnce(ctx context.Context, op, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return services.Wrap(services.ErrUpstream, "tmdb", op, "build request", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return services.Wrap(services.ErrTimeout, "tmdb", op, "request aborted", err)
		}
		// Per-attempt client timeouts and connection failures are worth retrying.
		return &services.UpstreamError{Retryable: true, Err: fmt.Errorf("tmdb %s: %w", op, err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.statusError(op, resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return services.Wrap(services.ErrUpstream, "tmdb", op, "decode response", err)
	}
	return nil
}

func (c *Client) statusError(op string, resp *http.Response) error {
	snippet := readSnippet(resp.Body)
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return services.Wrap(services.ErrNotFound, "tmdb", op, "resource does not exist", nil)
	case resp.StatusCode == http.StatusRequestTimeout,
		resp.StatusCode == http.StatusTooManyRequests,
		resp.StatusCode >= http.StatusInternalServerError:
		retryAfter, _ := parseRetryAfter(resp.Header.Get("Retry-After"))
		return &services.UpstreamError{
			Status:     resp.StatusCode,
			Retryable:  true,
			RetryAfter: retryAfter,
			Err:        statusDetail(op, snippet),
		}
	default:
		return &services.UpstreamError{
			Status:    resp.StatusCode,
			Retryable: false,
			Err:       statusDetail(op, snippet),
		}
	}
}

func statusDetail(op, snippet string) error {
	if snippet == "" {
		return fmt.Errorf("tmdb %s", op)
	}
	return fmt.Errorf("tmdb %s: %s", op, snippet)
}

// readSnippet captures a short, whitespace-collapsed prefix of the response
// body for error context.
func readSnippet(body io.Reader) string {
	const limit = 256
	raw, err := io.ReadAll(io.LimitReader(body, limit))
	if err != nil {
		return ""
	}
	clean := strings.Join(strings.Fields(string(raw)), " ")
	runes := []rune(clean)
	if len(runes) > 160 {
		clean = string(runes[:160]) + "..."
	}
	return clean
}

func parseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	if when, err := http.ParseTime(value); err == nil {
		delay := time.Until(when)
		if delay < 0 {
			return 0, false
		}
		return delay, true
	}
	return 0, false
}
