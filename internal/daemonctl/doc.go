// Package daemonctl provides the HTTP client the CLI uses to talk to a
// running marquee daemon. Responses decode into the shared api types and
// error payloads map back onto the services error taxonomy.
package daemonctl
