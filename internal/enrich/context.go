package enrich

import (
	"context"
	"log/slog"
	"time"

	"zxmeta/internal/describe"
	"zxmeta/internal/hashcache"
	"zxmeta/internal/record"
	"zxmeta/internal/scan"
	"zxmeta/internal/services/zxinfo"
)

// CacheStore persists resolved records per game identity.
type CacheStore interface {
	Load(gamePath, hash string) (hashcache.Entry, bool)
	Save(entry hashcache.Entry, gamePath, hash string) error
}

// Describer fills missing narrative text and box art.
type Describer interface {
	Describe(ctx context.Context, q describe.Query, have describe.Descriptions) describe.Descriptions
}

// AssetResolver materializes asset slots.
type AssetResolver interface {
	Resolve(ctx context.Context, rec record.Record) record.Record
}

// Context carries everything a run needs. It replaces process-wide settings:
// each pipeline gets its own collaborators and options.
type Context struct {
	Cache     CacheStore
	Lookup    zxinfo.Lookup
	Describer Describer
	Assets    AssetResolver
	Logger    *slog.Logger
	Progress  scan.Progress

	// MediaBaseURL resolves catalog-relative screen paths.
	MediaBaseURL string
	// Timeout bounds each catalog request. Zero leaves deadlines to ctx.
	Timeout time.Duration
	// Workers bounds concurrent resolutions. Values below 1 mean 1.
	Workers int
	// SourceTag is written as the provenance trailer of new records.
	SourceTag string

	// SourceRoot is the scanned directory; failed files are moved relative to it.
	SourceRoot string
	// MoveFailedDir receives files that could not be identified. Empty disables moving.
	MoveFailedDir string
	// FailedLogPath is where failures are listed. Empty disables the log.
	FailedLogPath string
}
