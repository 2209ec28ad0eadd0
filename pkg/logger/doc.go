// Package logger provides structured logging built on log/slog with
// context-aware attribute injection and domain attribute helpers for the
// notification engine.
//
// # Basic Usage
//
//	log := logger.New(
//		logger.WithLevel(slog.LevelDebug),
//		logger.WithTextFormatter(),
//	)
//	logger.SetAsDefault(log)
//
// # Domain Attributes
//
// Helpers produce consistently-keyed attributes so that notification ids,
// user ids, and delivery channels are queryable across all components:
//
//	log.LogAttrs(ctx, slog.LevelInfo, "notification delivered",
//		logger.NotificationID(n.ID),
//		logger.UserID(n.UserID),
//		logger.Channel("email"),
//	)
//
// # Context Extraction
//
// Request-scoped values can be injected into every record via extractors:
//
//	log := logger.New(
//		logger.WithContextValue("request_id", requestIDKey),
//	)
package logger
