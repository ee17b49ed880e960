// Package logging assembles the structured slog loggers used across
// photoshuttle components.
//
// It owns the console/JSON handlers, centralizes level and output plumbing,
// and exposes attribute helpers so pipeline code tags log lines with worker
// names and artifact ids in a uniform shape. The package also provides a
// no-op logger for tests and wiring code that cannot fail.
package logging
