// Package scan finds ZX Spectrum games below a source directory and computes
// the content hash used to identify them.
//
// Plain images are hashed directly. Zip archives are read in process; other
// archive formats are unpacked with the configured 7-Zip binary into a
// temporary directory. In both cases the first payload with a Spectrum
// extension, in name order, is hashed and the archive is reported as the
// game's path.
package scan
