// Package logging provides structured logging with per-module log level configuration.
//
// # Overview
//
// The logging system uses Go's slog package with automatic output routing:
//   - Logs to the systemd journal when available (Linux systems with journald)
//   - Logs to stdout when a terminal, pipe, or file is connected
//   - Logs to both when both are available
//   - Always keeps recent history in a ring buffer, served at /api/logs/stream
//
// # Usage
//
// Initialize the logging system once at startup:
//
//	logging.Initialize(logging.Config{
//		Level:  "info",      // Global log level: debug, info, warn, error
//		Format: "text",      // Output format: text or json
//		Modules: map[string]string{
//			"led":    "debug", // Per-module overrides
//			"button": "warn",
//		},
//	})
//
// Get a logger for your module:
//
//	logger := logging.GetLogger("netstack")
//	logger.Info("Starting up", "unit", unit)
//	logger.Debug("Details", "config", cfg)
//	logger.Warn("Something unusual", "error", err)
//	logger.Error("Failed", "error", err)
//
// # Viewing Logs
//
// When running as a systemd service or on a system with journald:
//
//	journalctl -t statusd              # All statusd logs
//	journalctl -t statusd -f           # Follow live
//	journalctl -t statusd --since "5m" # Last 5 minutes
//	journalctl -t statusd -p err       # Errors only
//
// Filter by structured fields:
//
//	journalctl -t statusd MODULE=led
//	journalctl -t statusd MODULE=netstack
//
// # Configuration
//
// Log levels can be set globally or per-module. Module-specific levels
// override the global level for that module only.
//
// Example TOML configuration (keys other than level and format name
// modules):
//
//	[logging]
//	level = "info"
//	format = "text"
//	led = "debug"
//	api = "warn"
package logging
