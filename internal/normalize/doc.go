// Package normalize validates raw TMDB payloads and converts them into the
// canonical records the store persists.
//
// Validation is per-record: a payload missing its id or title is rejected
// with a validation error while the rest of the batch proceeds. Optional
// fields (overview, artwork paths, release date) are tolerated when absent;
// malformed release dates are cleared rather than rejected. Duplicate ids
// within one page keep the first occurrence.
//
// Each record carries a checksum over its canonical fields so the store can
// skip rewrites when a fetched payload matches what is already persisted.
package normalize
