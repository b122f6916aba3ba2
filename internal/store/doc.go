// Package store manages the movie catalog persisted in SQLite.
//
// The catalog holds one row per TMDB movie keyed by its upstream id, a genre
// dictionary, and the movie-genre associations. Reconciliation is
// checksum-driven: a fetched record whose checksum matches the stored row
// only refreshes the sync timestamp, while a differing checksum rewrites the
// mutable columns and replaces the genre associations in the same
// transaction. Associations are always replaced wholesale, never appended,
// so repeated reconciliation converges on upstream state.
//
// Writers contend on SQLite's single-writer lock; operations retry briefly on
// SQLITE_BUSY and an insert race on the unique tmdb_id is retried once before
// surfacing a conflict.
package store
