// Package config loads, normalizes, and validates zxmeta configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// IGDB_CLIENT_ID and IGDB_CLIENT_SECRET. The Config type is passed explicitly
// to every component that needs a setting; nothing reads configuration from
// package-level state.
package config
