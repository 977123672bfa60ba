// Package assets materializes remote game images into the local asset tree.
//
// Files live under <root>/assets/{titles,screens,covers} and are named after
// the game's content hash, so a file that already exists is reused without a
// network call. A failed download leaves the slot pointing at its remote URL.
package assets
