// Package cache implements the tiered, TTL-differentiated query cache that
// fronts the catalog store and the TMDB client.
//
// Every cache entry is a JSON envelope holding the serialized query result
// and an absolute expiry computed at write time from the tier's TTL. Expiry
// is checked lazily on read; a stale envelope is dropped and the query
// recomputed. The cache exposes no direct set operation: entries are written
// only when a compute function succeeds, so the cache can never diverge from
// what the pipeline actually produced.
//
// # Single-flight
//
// Concurrent misses for the same key are coalesced: exactly one compute runs
// per key while every other caller waits on its result. The in-flight compute
// runs on a context detached from the triggering caller, so one waiter's
// cancellation never aborts the shared fetch for the rest. Flight tickets
// live in the singleflight group, never in the backing store, so LRU eviction
// cannot disturb an active flight.
//
// # Negative entries
//
// A compute that reports not-found is recorded as a short-lived negative
// envelope. Repeated lookups for an id that does not exist upstream are
// answered locally until the negative TTL lapses, after which the id is
// retried and a newly created movie becomes visible. Any other compute error
// is never cached.
//
// # Backends
//
// The memory backend bounds its footprint with an LRU over envelope bytes.
// The redis backend shares entries across process instances; it relies on
// server-side expiry plus the envelope timestamp and needs no cross-instance
// locking, since any inconsistency heals within one TTL.
package cache
