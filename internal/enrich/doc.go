// Package enrich turns scanned games into metadata document entries.
//
// Each game moves through an explicit state machine:
//
//	Unresolved -> CacheHit | CacheMiss -> Enriching -> AssetResolving -> Merged -> Appended
//
// with Failed reachable from any state. A cache hit skips every remote call.
// A miss queries the ZXInfo catalog and the secondary description chain.
// Results are merged three ways with the entry already in the document and
// the cached record, assets are materialized, and the cache entry is written
// once after asset resolution.
//
// Games are processed by a bounded worker pool. The document is assembled
// after the pool drains: entries from the previous document that were not
// seen in this run are kept, and all entries are sorted by title.
package enrich
