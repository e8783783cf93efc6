// Package logging provides structured logging using uber/zap.
//
// This package offers production-ready logging with two modes:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Log Levels:
//   - Debug: Verbose debugging information
//   - Info: General informational messages
//   - Warn: Warning messages
//   - Error: Error messages
//   - Fatal: Fatal errors (exits process)
//
// The logging section of the bridge config (LOG_LEVEL, LOG_DEV, LOG_FILE)
// selects the level, the mode and an optional file sink.
//
// Example Usage:
//
//	logger := logging.FromConfig(cfg.Logging)
//	logger.Info("Bridge starting", zap.String("channel", name))
//	writerLog := logger.Component("writer")
package logging
