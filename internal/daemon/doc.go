// Package daemon coordinates the long-running marquee services: the catalog
// pipeline, the background refresh loop, and the HTTP API, under a
// single-instance file lock.
//
// The HTTP API is a thin translation layer. Handlers parse parameters, invoke
// the catalog service, and map the error taxonomy onto status codes; they
// hold no catalog logic of their own. Every response carries an X-Cache
// header reporting whether the catalog answered from a live cache entry, and
// an X-Request-ID header correlating the response with daemon logs.
package daemon
