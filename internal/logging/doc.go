// Package logging assembles structured slog loggers and formatting helpers used
// across zxmeta.
//
// It owns the configurable console/JSON handlers, routes file output through a
// size-rotated writer, and exposes context-aware helpers so pipeline code can
// tag log lines with run IDs, game paths, content hashes, and pipeline states.
// The package also provides a no-op logger for tests and wiring code that
// cannot fail.
package logging
