// Package zxinfo provides the ZXInfo API client used to identify games by
// content hash.
//
// A lookup is two requests: the filecheck endpoint maps an MD5 to a catalog
// entry ID, then the games endpoint returns the entry in compact mode. Catalog
// converts the entry into a record with absolute remote asset URLs. HTTP
// failures are tagged with the services sentinels so the enrichment pipeline
// can classify them as per-file lookup failures.
package zxinfo
