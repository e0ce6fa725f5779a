// Package logging assembles structured slog loggers and formatting helpers used
// across mochapipe.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so publish plugins automatically
// tag log lines with the instance and plugin they run for. The package also
// provides a no-op logger for tests and wiring code that cannot fail.
package logging
