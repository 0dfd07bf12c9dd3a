// Package logging provides structured logging for the LeafLens gateway.
//
// It wraps the standard log/slog package so every component logs with the
// same shape:
//
//   - JSON output for production, text output for development
//   - service and version fields on every entry, timestamps in UTC
//   - durations as milliseconds, credential keys (secret, password, submitted) masked
//   - level filtering (debug, info, warn, error)
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("starting gateway", "port", 3000)
//	logger.Error("query failed", "collection", "Plant_3", "error", err)
//
// # Security
//
// Never log the configured shared secret or store credentials.
package logging
