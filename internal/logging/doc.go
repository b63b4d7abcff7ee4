// Package logging provides structured logging for the wifiprov daemon and CLI.
//
// This package wraps a global zap logger with convenience functions for the
// logging patterns used throughout the provisioning code: state machine
// transitions, network layer events and the provisioning portal's HTTP
// traffic.
//
// # Log Levels
//
//   - Debug: storage reads, raw request bodies, watchdog ticks
//   - Info: transitions, connect requests, submissions
//   - Warn: failed connect requests, rejected requests
//   - Error: storage failures, listener failures
//
// # Configuration
//
// Initialize logging once at startup:
//
//	if err := logging.Initialize(logging.Options{Level: "info"}); err != nil {
//	    return err
//	}
//	defer logging.Sync()
//
// When no level is given the WIFIPROV_LOG_LEVEL environment variable is
// consulted. When neither is set the logger is a no-op, which keeps CLI
// commands quiet by default.
//
// # Log Files
//
// A headless device usually has nobody watching stdout. Setting Options.File
// routes output through a size-rotated file (lumberjack) so logs survive
// reboots without filling the flash.
package logging
