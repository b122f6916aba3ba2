package logging

import (
	"context"
	"log/slog"

	"marquee/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldCorrelationID is the standardized structured logging key for request correlation identifiers.
	FieldCorrelationID = "correlation_id"
	// FieldOperation is the standardized structured logging key for catalog operation names.
	FieldOperation = "operation"
	// FieldCacheKey is the standardized structured logging key for cache keys.
	FieldCacheKey = "cache_key"
	// FieldTier is the standardized structured logging key for cache tier names.
	FieldTier = "tier"
	// FieldTMDBID is the standardized structured logging key for provider movie identifiers.
	FieldTMDBID = "tmdb_id"
	// FieldGenreID is the standardized structured logging key for provider genre identifiers.
	FieldGenreID = "genre_id"
	// FieldPage is the standardized structured logging key for page numbers.
	FieldPage = "page"
	// FieldQuery is the standardized structured logging key for search query text.
	FieldQuery = "query"
	// FieldAttempt is the standardized structured logging key for retry attempt counters.
	FieldAttempt = "attempt"
	// FieldStatus is the standardized structured logging key for HTTP status codes.
	FieldStatus = "status"
	// FieldRunID is the standardized structured logging key for sync run identifiers.
	FieldRunID = "run_id"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 2)
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, rid))
	}
	if op, ok := services.OperationFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldOperation, op))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
