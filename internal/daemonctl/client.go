package daemonctl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"marquee/internal/api"
	"marquee/internal/services"
)

const defaultTimeout = 30 * time.Second

// Client talks to the marquee daemon HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

// New builds a client for the daemon listening at bind (host:port or a full
// http URL).
func New(bind string) (*Client, error) {
	bind = strings.TrimSpace(bind)
	if bind == "" {
		return nil, services.Wrap(services.ErrConfiguration, "daemonctl", "new", "daemon address is empty", nil)
	}
	if !strings.Contains(bind, "://") {
		bind = "http://" + bind
	}
	parsed, err := url.Parse(bind)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "daemonctl", "new", fmt.Sprintf("invalid daemon address %q", bind), err)
	}
	return &Client{
		baseURL: strings.TrimRight(parsed.String(), "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}, nil
}

// Status fetches daemon runtime information.
func (c *Client) Status(ctx context.Context) (api.DaemonStatus, error) {
	var out api.DaemonStatus
	err := c.get(ctx, "/api/status", nil, &out)
	return out, err
}

// Trending fetches the trending list for the given window.
func (c *Client) Trending(ctx context.Context, window string, page int) (api.MoviePage, error) {
	query := url.Values{}
	if window != "" {
		query.Set("window", window)
	}
	setPage(query, page)
	var out api.MoviePage
	err := c.get(ctx, "/api/movies/trending", query, &out)
	return out, err
}

// Popular fetches the popularity-ranked list.
func (c *Client) Popular(ctx context.Context, page int) (api.MoviePage, error) {
	query := url.Values{}
	setPage(query, page)
	var out api.MoviePage
	err := c.get(ctx, "/api/movies/popular", query, &out)
	return out, err
}

// Search runs a title search.
func (c *Client) Search(ctx context.Context, queryText string, page int) (api.MoviePage, error) {
	query := url.Values{}
	query.Set("query", queryText)
	setPage(query, page)
	var out api.MoviePage
	err := c.get(ctx, "/api/movies/search", query, &out)
	return out, err
}

// Movie fetches the detail record for one movie.
func (c *Client) Movie(ctx context.Context, tmdbID int64) (api.Movie, error) {
	var out api.Movie
	err := c.get(ctx, "/api/movies/"+strconv.FormatInt(tmdbID, 10), nil, &out)
	return out, err
}

// Genres fetches the genre dictionary.
func (c *Client) Genres(ctx context.Context) (api.GenreListResponse, error) {
	var out api.GenreListResponse
	err := c.get(ctx, "/api/genres", nil, &out)
	return out, err
}

// GenreMovies fetches one page of movies for a genre.
func (c *Client) GenreMovies(ctx context.Context, genreID int64, page int) (api.MoviePage, error) {
	query := url.Values{}
	setPage(query, page)
	var out api.MoviePage
	err := c.get(ctx, fmt.Sprintf("/api/genres/%d/movies", genreID), query, &out)
	return out, err
}

// Sync triggers an immediate synchronization run and waits for it.
func (c *Client) Sync(ctx context.Context) (api.SyncRun, error) {
	var out api.SyncResponse
	if err := c.do(ctx, http.MethodPost, "/api/sync", nil, &out); err != nil {
		return api.SyncRun{}, err
	}
	return out.Run, nil
}

func setPage(query url.Values, page int) {
	if page > 1 {
		query.Set("page", strconv.Itoa(page))
	}
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, out)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return services.Wrap(services.ErrValidation, "daemonctl", "request", fmt.Sprintf("build %s %s", method, path), err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return services.Wrap(services.ErrUpstream, "daemonctl", "request",
			"daemon unreachable, is marqueed running?", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return services.Wrap(services.ErrUpstream, "daemonctl", "decode", fmt.Sprintf("%s %s", method, path), err)
	}
	return nil
}

// decodeError converts the daemon's error payload back into a tagged error so
// callers can branch with the usual classification helpers.
func decodeError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var payload api.ErrorResponse
	message := strings.TrimSpace(string(body))
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		message = payload.Error
	}
	if message == "" {
		message = fmt.Sprintf("daemon returned status %d", resp.StatusCode)
	}

	marker := services.ErrUpstream
	switch resp.StatusCode {
	case http.StatusBadRequest:
		marker = services.ErrValidation
	case http.StatusNotFound:
		marker = services.ErrNotFound
	case http.StatusConflict:
		marker = services.ErrConflict
	case http.StatusGatewayTimeout:
		marker = services.ErrTimeout
	}
	return services.Wrap(marker, "daemon", "", message, nil)
}
