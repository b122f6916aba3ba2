// Package catalog orchestrates the query pipeline: cache lookup, store
// access, upstream fetch, normalization, and reconciliation.
//
// Each of the six query classes (trending, popular, search, by-genre, detail,
// genre list) builds a deterministic cache key from its normalized parameters
// and delegates to the cache layer with a compute function. The compute runs
// at most once per key under single-flight, fetches from TMDB, normalizes the
// payload, reconciles it into the store, and returns the assembled page.
//
// Two classes deviate from the plain fetch path. Detail lookups short-circuit
// to the store when the persisted row was synced recently enough, skipping
// upstream entirely. By-genre queries always answer from the reconciled
// store (so genre membership reflects the latest reconciliation, not a
// provider snapshot) and only reach upstream to seed a genre nobody has
// synced yet.
//
// Errors keep their taxonomy on the way up: an upstream outage is never
// collapsed into an empty result set.
package catalog
