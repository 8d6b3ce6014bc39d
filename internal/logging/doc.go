// Package logging assembles structured slog loggers and formatting helpers used
// across ridiexport.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so export code can tag log lines
// with job and book identifiers. The package also provides a no-op logger for
// tests and wiring code that cannot fail.
package logging
