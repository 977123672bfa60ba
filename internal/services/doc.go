// Package services defines shared utilities consumed by the enrichment
// pipeline and the external lookup clients.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, game paths, content hashes, and
//     pipeline states for logging.
//   - Structured error markers plus the Wrap helper that separate fatal setup
//     failures from per-file lookup failures.
//
// The HTTP clients for the catalog, encyclopedia, and game database live in
// subpackages so each can be exercised against httptest servers in isolation.
package services
