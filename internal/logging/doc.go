// Package logging assembles the slog loggers used by the daemon and CLI.
//
// It owns the console and JSON handlers, level parsing (including a trace
// level below debug), and output fan-out to stdout plus the daemon log file.
// Context helpers tag lines with the current reconciliation tick and the
// Discord client id bound to the presence channel.
package logging
