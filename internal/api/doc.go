// Package api defines the JSON DTOs shared by the daemon's HTTP surface and
// the CLI client.
//
// These types are the wire shape of catalog results. The catalog service
// assembles them directly, which also makes them the serialized form held by
// the query cache, so a cached page and a freshly computed one are
// byte-identical.
package api
