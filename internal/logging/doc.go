// Package logging provides structured logging with per-module log level configuration.
//
// # Overview
//
// The logging system uses Go's slog package with automatic output routing:
//   - Logs to systemd journal when available (Linux systems with journald)
//   - Logs to stdout when a terminal, pipe, or file is connected
//   - Logs to both when both are available
//
// # Usage
//
// Initialize the logging system once at startup:
//
//	logging.Initialize(logging.Config{
//		Level:  "info",      // Global log level: debug, info, warn, error
//		Format: "text",      // Output format: text or json
//		Modules: map[string]string{
//			"scheduler": "debug",  // Per-module overrides
//			"api":       "warn",
//		},
//	})
//
// Get a logger for your module:
//
//	logger := logging.GetLogger("mymodule")
//	logger.Info("Starting up", "port", 8080)
//	logger.Debug("Details", "config", cfg)
//	logger.Warn("Something unusual", "error", err)
//	logger.Error("Failed", "error", err)
//
// Add contextual attributes:
//
//	logger := logging.GetLogger("scheduler").With("fixture", name)
//	logger.Info("Tick completed")  // Includes fixture in all logs
//
// # Log Levels
//
//	debug - Verbose debugging information
//	info  - General operational messages
//	warn  - Warning conditions
//	error - Error conditions
//
// # Output Destinations
//
// The system automatically detects available outputs:
//
//	Journal available + stdout available → MultiHandler (stdout, journal, buffer)
//	Journal available only              → MultiHandler (journal, buffer)
//	Stdout available only               → MultiHandler (stdout, buffer)
//
// Every chain ends in a BufferHandler feeding the in-memory ring buffer
// returned by GetBuffer.
//
// Journal availability is checked via [github.com/coreos/go-systemd/v22/journal.Enabled].
//
// # Viewing Logs
//
// When running as a systemd service or on a system with journald:
//
//	journalctl -t kaleidoscope              # All kaleidoscope logs
//	journalctl -t kaleidoscope -f           # Follow live
//	journalctl -t kaleidoscope --since "5m" # Last 5 minutes
//	journalctl -t kaleidoscope -p err       # Errors only
//
// Filter by structured fields:
//
//	journalctl -t kaleidoscope MODULE=scheduler
//	journalctl -t kaleidoscope FIXTURE=test
//
// # Configuration
//
// Log levels can be set globally or per-module. Module-specific levels
// override the global level for that module only.
//
// Example YAML configuration (module levels sit directly under logging):
//
//	logging:
//	  level: info
//	  format: text
//	  scheduler: debug
//	  api: warn
//	  ingest: error
package logging
