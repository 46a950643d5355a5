// Package logging assembles the structured slog loggers used across mupacs.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes standardized field keys so ingest and query code tag
// log lines consistently. A no-op logger is provided for tests and wiring
// code that cannot fail.
package logging
