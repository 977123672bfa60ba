// Package igdb provides a minimal IGDB client for game summaries.
//
// Requests authenticate with a Twitch client-credentials token that is fetched
// on first use and kept in memory until it expires. The ZX Spectrum platform
// IDs are looked up once per client and used to narrow every game search.
package igdb
