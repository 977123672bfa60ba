// Package fetch downloads remote assets to local files.
package fetch
