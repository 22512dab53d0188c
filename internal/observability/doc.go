// Package observability provides logging, metrics, and context propagation
// for the article explorer.
//
// # Logging
//
// Create a logger from configuration:
//
//	logger := observability.NewLogger(observability.LoggingConfig{
//	    Level:  "info",
//	    Format: "json",
//	    Output: "stdout",
//	})
//	logger.Info().Str("session_id", id).Msg("session opened")
//
// Add session or search context to a logger:
//
//	logger = observability.WithSessionContext(logger, sessionID, articleID)
//	logger = observability.WithSearchContext(logger, query, "core")
//
// # Metrics
//
//	metrics := observability.NewMetrics("article_explorer")
//	metrics.RecordSearchStarted("core")
//	metrics.RecordNoteAdded(true)
//
// # Context Helpers
//
//	ctx = observability.WithRequestID(ctx, requestID)
//	ctx = observability.WithSessionID(ctx, sessionID)
//	logger = observability.LoggerFromContext(ctx, logger)
//
// # Standard Fields
//
//   - request_id: HTTP request correlation identifier
//   - session_id: reading session identifier
//   - article_id: normalized article identifier
//   - query: search query as submitted
//   - source: search provider (core)
//   - component: subsystem emitting the entry
//
// All components are safe for concurrent use.
package observability
