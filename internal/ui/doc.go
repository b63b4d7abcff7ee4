// Package ui provides terminal output for the wifiprov CLI.
//
// Most commands follow a "print once and exit" pattern using Printer, which
// renders lipgloss headers, success boxes and error boxes with
// troubleshooting tips. The watch command is the one interactive view: a
// Bubble Tea model fed by the monitor's event stream, with a spinner while
// the device is connecting.
//
// # Logging Integration
//
// Logging is controlled via the WIFIPROV_LOG_LEVEL environment variable.
// When unset or empty, zap logging is silent so the styled output is
// displayed cleanly.
package ui
