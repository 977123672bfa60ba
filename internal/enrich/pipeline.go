package enrich

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"zxmeta/internal/assets"
	"zxmeta/internal/describe"
	"zxmeta/internal/hashcache"
	"zxmeta/internal/logging"
	"zxmeta/internal/metafile"
	"zxmeta/internal/record"
	"zxmeta/internal/scan"
	"zxmeta/internal/services"
	"zxmeta/internal/services/zxinfo"
)

// Failure is a game that could not be resolved.
type Failure struct {
	Path    string
	Hash    string
	Err     error
	MovedTo string
}

// Reason returns the short failure label used in summaries.
func (f Failure) Reason() string {
	return services.FailureReason(f.Err)
}

// Report summarizes a run.
type Report struct {
	Document   *metafile.Document
	Merged     int
	CacheHits  int
	Lookups    int
	Preserved  int
	Duplicates int
	Failed     []Failure
}

// Pipeline resolves scanned games into document entries.
type Pipeline struct {
	ec       Context
	logger   *slog.Logger
	progress scan.Progress
}

// New returns a pipeline bound to ec.
func New(ec Context) *Pipeline {
	logger := ec.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	progress := ec.Progress
	if progress == nil {
		progress = scan.NopProgress{}
	}
	if ec.SourceTag == "" {
		ec.SourceTag = metafile.DefaultSourceTag
	}
	if ec.MediaBaseURL == "" {
		ec.MediaBaseURL = zxinfo.DefaultMediaBaseURL
	}
	return &Pipeline{
		ec:       ec,
		logger:   logging.NewComponentLogger(logger, "enrich"),
		progress: progress,
	}
}

// Run resolves games against existing and returns the assembled document.
// Per-game failures are reported, never returned; the error is non-nil only
// when ctx ends before the run completes.
func (p *Pipeline) Run(ctx context.Context, games []scan.Game, existing *metafile.Document) (*Report, error) {
	if existing == nil {
		existing = &metafile.Document{}
	}
	index := existing.Index()

	unique, dupes := dedupe(games)
	report := &Report{Duplicates: dupes}

	workers := max(p.ec.Workers, 1)
	pl := newPool(ctx, workers, p.logger, p.resolve)
	pl.start()
	go func() {
		defer pl.shutdown()
		for _, g := range unique {
			if !pl.submit(job{game: g, existing: index[g.Hash]}) {
				return
			}
		}
	}()

	p.progress.Start(len(unique), "2/2: Resolving metadata")
	outcomes := make([]Outcome, 0, len(unique))
	for out := range pl.results {
		outcomes = append(outcomes, out)
		p.progress.Step(filepath.Base(out.Game.Path))
	}
	p.progress.Finish()

	slices.SortFunc(outcomes, func(a, b Outcome) int {
		return strings.Compare(a.Game.Path, b.Game.Path)
	})

	resolved := make([]record.Record, 0, len(outcomes))
	for _, out := range outcomes {
		if out.State == StateFailed {
			report.Failed = append(report.Failed, Failure{Path: out.Game.Path, Hash: out.Game.Hash, Err: out.Err})
			continue
		}
		if out.CacheHit {
			report.CacheHits++
		} else {
			report.Lookups++
		}
		resolved = append(resolved, out.Record)
	}
	before := len(resolved)
	resolved = record.UniqueByHash(resolved)
	report.Duplicates += before - len(resolved)
	report.Merged = len(resolved)

	doc := &metafile.Document{Header: existing.Header}
	doc.Entries = append(doc.Entries, resolved...)
	seen := make(map[string]struct{}, len(resolved))
	for _, rec := range resolved {
		seen[rec.Hash] = struct{}{}
	}
	for _, rec := range existing.Entries {
		if _, ok := seen[rec.Hash]; ok && rec.Hash != "" {
			continue
		}
		doc.Entries = append(doc.Entries, rec.Clone())
		report.Preserved++
	}
	record.Sort(doc.Entries)
	report.Document = doc

	for _, rec := range doc.Entries {
		p.logger.Debug("entry appended",
			logging.String(logging.FieldHash, rec.Hash),
			logging.String("title", rec.Title),
			logging.String("state", StateAppended.String()))
	}

	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("enrich run interrupted: %w", err)
	}

	p.moveFailed(report.Failed)
	if err := WriteFailedLog(p.ec.FailedLogPath, report.Failed); err != nil {
		logging.WarnWithContext(p.logger, "failed-file log not written", "failed_log_write_failed",
			logging.String("path", p.ec.FailedLogPath),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check permissions on the output directory"))
	}
	return report, nil
}

// resolve drives one game through the state machine.
func (p *Pipeline) resolve(ctx context.Context, j job) Outcome {
	g := j.game
	ctx = services.WithGame(ctx, g.Path, g.Hash)
	state := StateUnresolved

	var (
		cached record.Record
		fresh  record.Record
	)
	entry, hit := p.loadCache(g)
	if hit {
		state = StateCacheHit
		cached = record.FromCacheEntry(entry)
	} else {
		state = StateCacheMiss
		rec, err := p.lookup(services.WithStage(ctx, state.String()), g)
		if err != nil {
			return p.fail(ctx, g, state, err)
		}
		state = StateEnriching
		fresh = p.describe(services.WithStage(ctx, state.String()), rec, j.existing)
	}

	merged := record.Merge(dropMissingLocals(j.existing), fresh, cached)
	merged.File = g.Path
	merged.Hash = g.Hash

	state = StateAssetResolving
	if p.ec.Assets != nil {
		merged = p.ec.Assets.Resolve(services.WithStage(ctx, state.String()), merged)
	}
	state = StateMerged

	if err := ctx.Err(); err != nil {
		return p.fail(ctx, g, state, err)
	}
	p.saveCache(ctx, g, entry, hit, merged)

	logging.WithContext(services.WithStage(ctx, state.String()), p.logger).Debug("game resolved",
		logging.String("title", merged.Title),
		logging.Bool("cache_hit", hit))
	return Outcome{Game: g, State: state, Record: merged, CacheHit: hit}
}

func (p *Pipeline) loadCache(g scan.Game) (hashcache.Entry, bool) {
	if p.ec.Cache == nil {
		return hashcache.Entry{}, false
	}
	return p.ec.Cache.Load(g.Path, g.Hash)
}

// saveCache writes merged when it differs from what was loaded.
func (p *Pipeline) saveCache(ctx context.Context, g scan.Game, loaded hashcache.Entry, hit bool, merged record.Record) {
	if p.ec.Cache == nil {
		return
	}
	next := merged.CacheEntry()
	if hit && sameEntry(loaded, next) {
		return
	}
	if err := p.ec.Cache.Save(next, g.Path, g.Hash); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, p.logger), "cache entry not saved", "cache_save_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check permissions on the cache directory"),
			logging.String(logging.FieldImpact, "game will be looked up again next run"))
	}
}

func (p *Pipeline) lookup(ctx context.Context, g scan.Game) (record.Record, error) {
	if p.ec.Lookup == nil {
		return record.Record{}, services.Wrap(services.ErrConfiguration, "enrich", "lookup", "no catalog configured", nil)
	}
	lookupCtx := ctx
	if p.ec.Timeout > 0 {
		var cancel context.CancelFunc
		lookupCtx, cancel = context.WithTimeout(ctx, p.ec.Timeout)
		defer cancel()
	}
	game, err := p.ec.Lookup.LookupByHash(lookupCtx, g.Hash)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, services.ErrTimeout) {
			err = services.Wrap(services.ErrTimeout, "enrich", "lookup", "catalog lookup timed out", err)
		}
		return record.Record{}, err
	}
	rec := game.Catalog(g.Path, g.Hash, p.ec.MediaBaseURL)
	rec.SourceTag = p.ec.SourceTag
	return rec, nil
}

// describe fills narrative text and box art the catalog left empty. Values
// already present on the document entry count as known, so they are never
// replaced and never trigger a lookup.
func (p *Pipeline) describe(ctx context.Context, rec, existing record.Record) record.Record {
	if p.ec.Describer == nil {
		return rec
	}
	have := describe.Descriptions{
		Summary:     firstNonEmpty(existing.Summary, rec.Summary),
		Description: firstNonEmpty(existing.Description, rec.Description),
	}
	if local := existing.Asset(record.SlotBoxFront).Local; local != "" && fileExists(local) {
		have.BoxArt = local
	}
	got := p.ec.Describer.Describe(ctx, describe.Query{Title: rec.Title, Links: rec.SourceLinks}, have)

	record.FillEmpty(&rec, got.Summary, got.Description)
	if got.BoxArt != have.BoxArt {
		front := rec.Asset(record.SlotBoxFront)
		front.Remote = assets.BoxArt(got.BoxArt, front.Remote)
		rec.SetAsset(record.SlotBoxFront, front)
	}
	return rec
}

func (p *Pipeline) fail(ctx context.Context, g scan.Game, state State, err error) Outcome {
	logging.WarnWithContext(logging.WithContext(ctx, p.logger), "game not resolved", "resolve_failed",
		logging.String("state", state.String()),
		logging.String("reason", services.FailureReason(err)),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "listed in the failed-file log"),
		logging.String(logging.FieldImpact, "game omitted from this run"))
	return Outcome{Game: g, State: StateFailed, Err: err}
}

// dedupe drops repeated (path, hash) identities, keeping first occurrence.
func dedupe(games []scan.Game) ([]scan.Game, int) {
	type identity struct{ path, hash string }
	seen := make(map[identity]struct{}, len(games))
	out := make([]scan.Game, 0, len(games))
	for _, g := range games {
		id := identity{g.Path, g.Hash}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, g)
	}
	return out, len(games) - len(out)
}

// dropMissingLocals clears local asset references whose files are gone.
func dropMissingLocals(rec record.Record) record.Record {
	for _, slot := range record.Slots {
		a := rec.Asset(slot)
		if a.Local != "" && !fileExists(a.Local) {
			a.Local = ""
			rec.SetAsset(slot, a)
		}
	}
	return rec
}

func sameEntry(a, b hashcache.Entry) bool {
	left, err := hashcache.Format(a)
	if err != nil {
		return false
	}
	right, err := hashcache.Format(b)
	if err != nil {
		return false
	}
	return bytes.Equal(left, right)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
