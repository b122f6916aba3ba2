// Package services defines the shared error taxonomy and context helpers
// consumed across the catalog pipeline.
//
// Key responsibilities:
//   - Structured error markers plus the Wrap helper so failures classify
//     consistently (validation vs not-found vs conflict vs upstream) no matter
//     which component raised them.
//   - The UpstreamError type that carries provider status and retryability
//     through the cache layer to the API boundary.
//   - Context helpers that stamp request correlation IDs and operation names
//     for logging.
//
// Use these helpers when wiring new catalog logic so error handling and
// observability stay uniform across components.
package services
