// Package hashcache persists resolved game metadata on disk so repeated runs
// skip remote lookups.
//
// Each entry is a flat "key = value" text file named after the MD5 of the
// game's path joined with the payload's content hash. The same content found
// at two paths therefore yields two entries. Load treats any read or parse
// failure as a miss; Clear wipes the whole tree.
package hashcache
