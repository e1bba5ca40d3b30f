// Package logging builds the structured loggers used by the bridge engine and CLI.
// Records are written as JSON by default using the standard library log/slog.
package logging
