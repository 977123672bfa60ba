// Package wikipedia fetches article summaries used to fill missing game
// descriptions and box art.
package wikipedia
