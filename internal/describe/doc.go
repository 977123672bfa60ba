// Package describe fills missing game summaries, descriptions, and box art
// from secondary sources.
//
// A Chain queries its sources in order and only fills fields that are still
// empty, so earlier sources take precedence. Source errors are logged and
// skipped; they never fail a game. Results are memoized per source and query
// key in a SQLite database so the same title found under several hashes is
// only looked up once.
package describe
