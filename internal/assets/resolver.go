package assets

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"zxmeta/internal/logging"
	"zxmeta/internal/record"
	"zxmeta/internal/services/fetch"
)

const defaultExt = ".png"

var imageExts = map[string]struct{}{
	".png": {}, ".jpg": {}, ".jpeg": {}, ".gif": {}, ".webp": {}, ".bmp": {},
}

// Stats counts resolver outcomes across a run.
type Stats struct {
	Downloaded int64
	Reused     int64
	Failed     int64
}

// Resolver downloads and reuses asset files.
type Resolver struct {
	root    string
	fetcher fetch.Fetcher
	timeout time.Duration
	logger  *slog.Logger

	downloaded atomic.Int64
	reused     atomic.Int64
	failed     atomic.Int64
}

// NewResolver returns a resolver writing below root/assets. A zero timeout
// leaves deadlines to ctx.
func NewResolver(root string, fetcher fetch.Fetcher, timeout time.Duration, logger *slog.Logger) *Resolver {
	return &Resolver{
		root:    root,
		fetcher: fetcher,
		timeout: timeout,
		logger:  logging.NewComponentLogger(logger, "assets"),
	}
}

// Dir returns the directory holding files for slot.
func (r *Resolver) Dir(slot record.Slot) string {
	return filepath.Join(r.root, "assets", slot.Dir())
}

// Target returns the local file name for hash in slot, taking the extension
// from remote.
func (r *Resolver) Target(slot record.Slot, hash, remote string) string {
	return filepath.Join(r.Dir(slot), hash+Ext(remote))
}

// Stats returns the counters accumulated so far.
func (r *Resolver) Stats() Stats {
	return Stats{
		Downloaded: r.downloaded.Load(),
		Reused:     r.reused.Load(),
		Failed:     r.failed.Load(),
	}
}

// Resolve materializes every slot of rec. A local file that still exists is
// kept; otherwise the hash-named target is reused when present, and the remote
// is downloaded as a last resort. Download failures are logged and leave the
// slot remote-only.
func (r *Resolver) Resolve(ctx context.Context, rec record.Record) record.Record {
	for _, slot := range record.Slots {
		rec.SetAsset(slot, r.resolveSlot(ctx, slot, rec.Hash, rec.Asset(slot)))
	}
	return rec
}

func (r *Resolver) resolveSlot(ctx context.Context, slot record.Slot, hash string, a record.Asset) record.Asset {
	if a.Local != "" {
		if fileExists(a.Local) {
			r.reused.Add(1)
			return a
		}
		a.Local = ""
	}
	if a.Remote == "" || hash == "" {
		return a
	}

	target := r.Target(slot, hash, a.Remote)
	if fileExists(target) {
		r.reused.Add(1)
		a.Local = target
		return a
	}
	if r.fetcher == nil {
		return a
	}

	if err := r.download(ctx, a.Remote, target); err != nil {
		r.failed.Add(1)
		logging.WarnWithContext(logging.WithContext(ctx, r.logger), "asset download failed", "asset_download_failed",
			logging.String("slot", slot.String()),
			logging.String("url", a.Remote),
			logging.String(logging.FieldErrorHint, "the remote image may have moved; rerun later"),
			logging.String(logging.FieldImpact, "entry keeps the remote reference"),
			logging.Error(err),
		)
		return a
	}
	r.downloaded.Add(1)
	r.logger.Debug("asset downloaded", logging.String("slot", slot.String()), logging.String("path", target))
	a.Local = target
	return a
}

func (r *Resolver) download(ctx context.Context, remote, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create asset directory: %w", err)
	}
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	return r.fetcher.Download(ctx, remote, target)
}

// BoxArt picks the cover reference: a secondary source's direct URL wins
// over the catalog's cover.
func BoxArt(secondary, catalog string) string {
	if secondary = strings.TrimSpace(secondary); secondary != "" {
		return secondary
	}
	return strings.TrimSpace(catalog)
}

// Ext returns the image extension of a remote reference. Mirror URLs that
// carry the file name in a "file" query parameter use that name. Unknown
// extensions fall back to .png.
func Ext(remote string) string {
	name := remote
	if u, err := url.Parse(strings.ReplaceAll(remote, " ", "%20")); err == nil {
		name = u.Path
		if f := u.Query().Get("file"); f != "" {
			name = f
		}
	}
	ext := strings.ToLower(path.Ext(name))
	if _, ok := imageExts[ext]; ok {
		return ext
	}
	return defaultExt
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}
