// Package main hosts the marquee CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into HTTP
// calls against the daemon API, plus configuration scaffolding and a
// foreground daemon mode. Rendering adapts to the output target: tables for
// terminals, JSON when piped or when --json is set.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
