// Package tmdb provides the HTTP client for The Movie Database API.
//
// This package is used by:
//   - Catalog service: trending, popular, search, discover, and detail lookups
//   - Refresh loop: periodic resynchronization of list pages
//
// # Endpoints
//
// The client covers the read-only endpoints the catalog consumes: trending
// (day or week window), popular, movie search, discover-by-genre, movie
// detail, and the genre list. All responses decode into the payload types in
// this package; callers never see raw JSON.
//
// # Retry Behaviour
//
// Requests retry on HTTP 408/429/5xx and transport errors with exponential
// backoff (base 500ms, doubling, capped at 5s, up to 3 attempts by default).
// A Retry-After header on 429/503 responses overrides the computed delay,
// still subject to the cap. Context cancellation aborts retries immediately.
//
// # Error Classification
//
// HTTP 404 maps to services.ErrNotFound. Other failures surface as
// *services.UpstreamError carrying the last observed status and whether the
// failure class was retryable, so callers can distinguish exhausted retries
// from hard rejections. Malformed response bodies are never retried.
package tmdb
