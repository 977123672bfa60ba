// Package textutil provides title fingerprinting and similarity scoring.
//
// Fingerprints are term-frequency vectors over lowercased tokens split on
// anything that is not a letter or digit; English articles are dropped so
// "The Hobbit" and "Hobbit" compare as equal. BestMatch picks the candidate
// title closest to a wanted one, used to choose among fuzzy search results.
package textutil
