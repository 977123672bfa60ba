// Package main hosts the zxmeta CLI entrypoint and command graph.
//
// The Cobra-based command tree resolves configuration once, applies flag
// overrides, and wires the scanner, enrichment pipeline, and document codec
// for each command. Keep this package lean: behaviour lives in the internal
// packages and is surfaced here through dedicated commands or flags.
package main
