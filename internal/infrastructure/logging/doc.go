// Package logging provides structured logging for emsconvert.
//
// This package wraps Go's standard log/slog package so every component
// logs the same way.
//
// # Features
//
//   - Text output for terminals, JSON for log collectors
//   - Default fields (service, version) on all log entries
//   - Level-based filtering (debug, info, warn, error)
//   - An optional rotating log file, written through lumberjack
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "text"     # json, text
//	  output: "stderr"   # stdout, stderr
//	  file:
//	    enabled: true
//	    path: ""         # defaults to <output_dir>/conversion.log
//	    max_size: 10     # megabytes
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "2.1.0")
//	defer logger.Close()
//	logger.Info("conversion complete", "buses", 3)
package logging
