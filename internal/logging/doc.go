// Package logging wraps log/slog with the handlers and helpers shared across
// the daemon and CLI: a JSON handler for machine consumption, a single-line
// console handler for interactive use, rotating file sinks, component loggers,
// and standardized field names so cache keys, tiers, and provider identifiers
// render consistently everywhere.
package logging
