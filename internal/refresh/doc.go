// Package refresh runs the background synchronization loop that keeps the
// catalog store warm.
//
// Each run resynchronizes the genre dictionary, then the first N pages of the
// trending and popular rankings through the normal normalize-and-reconcile
// pipeline using a bounded worker pool. Query caches are not touched: they
// refresh lazily on their own TTLs, while the store underneath them stays
// current enough for the detail fast path and genre browsing.
//
// Runs never overlap; a manual trigger while a run is active reports a
// conflict instead of queueing.
package refresh
