package enrich_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"zxmeta/internal/assets"
	"zxmeta/internal/describe"
	"zxmeta/internal/enrich"
	"zxmeta/internal/metafile"
	"zxmeta/internal/record"
	"zxmeta/internal/scan"
	"zxmeta/internal/services"
	"zxmeta/internal/services/zxinfo"
	"zxmeta/internal/testsupport"
)

type fakeLookup struct {
	mu    sync.Mutex
	calls map[string]int
	games map[string]*zxinfo.Game
	errs  map[string]error
	block bool
}

func (f *fakeLookup) LookupByHash(ctx context.Context, hash string) (*zxinfo.Game, error) {
	f.mu.Lock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[hash]++
	f.mu.Unlock()

	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err, ok := f.errs[hash]; ok {
		return nil, err
	}
	if g, ok := f.games[hash]; ok {
		return g, nil
	}
	return nil, services.Wrap(services.ErrNotFound, "zxinfo", "filecheck", "no entry for "+hash, nil)
}

func (f *fakeLookup) count(hash string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[hash]
}

type fakeDescriber struct {
	calls atomic.Int32
	got   describe.Descriptions
}

func (f *fakeDescriber) Describe(_ context.Context, _ describe.Query, have describe.Descriptions) describe.Descriptions {
	f.calls.Add(1)
	if have.Summary == "" {
		have.Summary = f.got.Summary
	}
	if have.Description == "" {
		have.Description = f.got.Description
	}
	if have.BoxArt == "" {
		have.BoxArt = f.got.BoxArt
	}
	return have
}

type fakeFetcher struct {
	calls atomic.Int32
}

func (f *fakeFetcher) Download(_ context.Context, rawURL, dest string) error {
	f.calls.Add(1)
	return os.WriteFile(dest, []byte(rawURL), 0o644)
}

func knightLore() *zxinfo.Game {
	return &zxinfo.Game{
		ID:                    "0002746",
		Title:                 "Knight Lore",
		OriginalYearOfRelease: 1984,
		Score:                 &zxinfo.Score{Score: 8.2},
		Genre:                 "Arcade: Adventure",
		NumberOfPlayers:       "1",
		Authors:               []zxinfo.Author{{Name: "Tim Stamper", Type: "Creator"}},
		Publishers:            []zxinfo.Publisher{{Name: "Ashby Computers & Graphics, Ltd.", PublisherSeq: 1}},
		Screens: []zxinfo.Screen{
			{URL: "/zxscreens/0002746/KnightLore-load.png", Type: "Loading screen"},
			{URL: "/zxscreens/0002746/KnightLore-run.gif", Type: "Running screen"},
		},
		RelatedLinks: []zxinfo.RelatedLink{{SiteName: "Wikipedia", URL: "https://en.wikipedia.org/wiki/Knight_Lore"}},
	}
}

type harness struct {
	lookup    *fakeLookup
	describer *fakeDescriber
	fetcher   *fakeFetcher
	resolver  *assets.Resolver
	ec        enrich.Context
	srcDir    string
	outDir    string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	base := testsupport.BaseDir(cfg)
	h := &harness{
		lookup:    &fakeLookup{games: map[string]*zxinfo.Game{"aaa": knightLore()}},
		describer: &fakeDescriber{got: describe.Descriptions{Summary: "Isometric classic.", Description: "Sabreman must find a cure."}},
		fetcher:   &fakeFetcher{},
		srcDir:    filepath.Join(base, "roms"),
		outDir:    filepath.Join(base, "out"),
	}
	h.resolver = assets.NewResolver(h.outDir, h.fetcher, time.Second, nil)
	h.ec = enrich.Context{
		Cache:         testsupport.MustOpenCache(t, cfg),
		Lookup:        h.lookup,
		Describer:     h.describer,
		Assets:        h.resolver,
		MediaBaseURL:  "https://media.test",
		Timeout:       time.Second,
		Workers:       3,
		SourceRoot:    h.srcDir,
		FailedLogPath: filepath.Join(h.outDir, "failed.log"),
	}
	return h
}

func (h *harness) game(t *testing.T, rel, hash string) scan.Game {
	t.Helper()
	path := filepath.Join(h.srcDir, rel)
	testsupport.WriteFile(t, path, []byte(hash))
	return scan.Game{Path: path, Hash: hash, Payload: path}
}

func render(t *testing.T, doc *metafile.Document) []byte {
	t.Helper()
	gen, err := metafile.NewGenerator(metafile.FormatPegasus, metafile.Options{Collection: "ZX Spectrum", ShortName: "zxspectrum"})
	if err != nil {
		t.Fatal(err)
	}
	out, err := gen.Render(doc)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	return out
}

func TestRunIsIdempotentWithWarmCache(t *testing.T) {
	h := newHarness(t)
	games := []scan.Game{
		h.game(t, "Knight Lore.tzx", "aaa"),
		h.game(t, "Unknown.tap", "bbb"),
	}

	first, err := enrich.New(h.ec).Run(context.Background(), games, nil)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if first.Merged != 1 || first.Lookups != 1 || first.CacheHits != 0 {
		t.Fatalf("unexpected first report: %+v", first)
	}
	if len(first.Failed) != 1 || first.Failed[0].Hash != "bbb" || first.Failed[0].Reason() != "not found" {
		t.Fatalf("unexpected failures: %+v", first.Failed)
	}

	rec := first.Document.Entries[0]
	if rec.Title != "Knight Lore" || rec.Rating != "82%" || rec.Release != "1984" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if want := []string{"Ashby Computers & Graphics, Ltd."}; !reflect.DeepEqual(rec.Publishers, want) {
		t.Fatalf("publishers = %q, want %q", rec.Publishers, want)
	}
	if rec.Summary != "Isometric classic." || rec.Description != "Sabreman must find a cure." {
		t.Fatalf("narrative not filled: %q / %q", rec.Summary, rec.Description)
	}
	title := rec.Asset(record.SlotTitleScreen)
	if title.Remote != "https://media.test/zxscreens/0002746/KnightLore-load.png" {
		t.Fatalf("title remote = %q", title.Remote)
	}
	if want := h.resolver.Target(record.SlotTitleScreen, "aaa", title.Remote); title.Local != want {
		t.Fatalf("title local = %q, want %q", title.Local, want)
	}
	if got := rec.Asset(record.SlotScreenshot).Local; !strings.HasSuffix(got, "aaa.gif") {
		t.Fatalf("screenshot local = %q", got)
	}

	logData, err := os.ReadFile(h.ec.FailedLogPath)
	if err != nil {
		t.Fatalf("read failed log: %v", err)
	}
	if want := games[1].Path + "\nbbb\n\n"; string(logData) != want {
		t.Fatalf("failed log = %q, want %q", logData, want)
	}

	out1 := render(t, first.Document)
	existing, err := metafile.Parse(bytes.NewReader(out1))
	if err != nil {
		t.Fatal(err)
	}
	fetches := h.fetcher.calls.Load()
	describes := h.describer.calls.Load()

	second, err := enrich.New(h.ec).Run(context.Background(), games, existing)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.CacheHits != 1 || second.Lookups != 0 {
		t.Fatalf("unexpected second report: %+v", second)
	}
	if got := h.lookup.count("aaa"); got != 1 {
		t.Fatalf("catalog queried %d times for cached game", got)
	}
	if h.fetcher.calls.Load() != fetches || h.describer.calls.Load() != describes {
		t.Fatal("warm run made remote calls")
	}
	if got := second.Document.Entries[0].Publishers; len(got) != 1 || got[0] != "Ashby Computers & Graphics, Ltd." {
		t.Fatalf("cached publishers = %q", got)
	}
	if out2 := render(t, second.Document); !bytes.Equal(out1, out2) {
		t.Fatalf("output changed between runs\nfirst:\n%s\nsecond:\n%s", out1, out2)
	}
}

func TestRunPreservesCuratedNarrativeAndUnseenEntries(t *testing.T) {
	h := newHarness(t)
	h.describer.got = describe.Descriptions{Summary: "Wiki summary.", Description: "Wiki description."}
	games := []scan.Game{h.game(t, "Knight Lore.tzx", "aaa")}

	existing := &metafile.Document{
		Entries: []record.Record{
			{Title: "Knight Lore", Hash: "aaa", File: games[0].Path, Summary: "Hand written.\n\nSecond paragraph."},
			{Title: "Zzoom", Hash: "zzz", File: "/elsewhere/Zzoom.tap", Summary: "Kept."},
		},
	}

	report, err := enrich.New(h.ec).Run(context.Background(), games, existing)
	if err != nil {
		t.Fatal(err)
	}
	if report.Merged != 1 || report.Preserved != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if len(report.Document.Entries) != 2 {
		t.Fatalf("entries = %d", len(report.Document.Entries))
	}
	got := report.Document.Entries[0]
	if got.Hash != "aaa" {
		t.Fatalf("sort order wrong: %+v", report.Document.Entries)
	}
	if got.Summary != "Hand written.\n\nSecond paragraph." {
		t.Fatalf("curated summary replaced: %q", got.Summary)
	}
	if got.Description != "Wiki description." {
		t.Fatalf("description = %q", got.Description)
	}
	if kept := report.Document.Entries[1]; kept.Hash != "zzz" || kept.Summary != "Kept." {
		t.Fatalf("unseen entry not preserved: %+v", kept)
	}
}

func TestRunMovesOnlyUnknownFiles(t *testing.T) {
	h := newHarness(t)
	h.ec.MoveFailedDir = filepath.Join(t.TempDir(), "failed")
	h.lookup.errs = map[string]error{
		"ccc": services.Wrap(services.ErrTransient, "zxinfo", "filecheck", "status 502", nil),
	}
	games := []scan.Game{
		h.game(t, filepath.Join("misc", "Unknown.tap"), "bbb"),
		h.game(t, "Flaky.tzx", "ccc"),
	}

	report, err := enrich.New(h.ec).Run(context.Background(), games, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Failed) != 2 {
		t.Fatalf("failures = %+v", report.Failed)
	}
	moved := filepath.Join(h.ec.MoveFailedDir, "misc", "Unknown.tap")
	byHash := map[string]enrich.Failure{}
	for _, f := range report.Failed {
		byHash[f.Hash] = f
	}
	if byHash["bbb"].MovedTo != moved {
		t.Fatalf("unknown file moved to %q, want %q", byHash["bbb"].MovedTo, moved)
	}
	if _, err := os.Stat(moved); err != nil {
		t.Fatalf("moved file missing: %v", err)
	}
	if byHash["ccc"].MovedTo != "" {
		t.Fatal("transient failure must not be moved")
	}
	if _, err := os.Stat(games[1].Path); err != nil {
		t.Fatalf("transient failure source removed: %v", err)
	}
	if byHash["ccc"].Reason() != "error" {
		t.Fatalf("reason = %q", byHash["ccc"].Reason())
	}
}

func TestRunTreatsTimeoutAsFailure(t *testing.T) {
	h := newHarness(t)
	h.lookup.block = true
	h.ec.Timeout = 20 * time.Millisecond
	games := []scan.Game{h.game(t, "Slow.tzx", "aaa")}

	report, err := enrich.New(h.ec).Run(context.Background(), games, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Failed) != 1 {
		t.Fatalf("failures = %+v", report.Failed)
	}
	if !errors.Is(report.Failed[0].Err, services.ErrTimeout) || report.Failed[0].Reason() != "timeout" {
		t.Fatalf("expected timeout, got %v", report.Failed[0].Err)
	}
	if len(report.Document.Entries) != 0 {
		t.Fatalf("entries = %+v", report.Document.Entries)
	}
}

func TestRunDeduplicatesIdentities(t *testing.T) {
	h := newHarness(t)
	a := h.game(t, "A/Knight Lore.tzx", "aaa")
	b := h.game(t, "B/Knight Lore.tzx", "aaa")
	games := []scan.Game{b, a, a}

	report, err := enrich.New(h.ec).Run(context.Background(), games, nil)
	if err != nil {
		t.Fatal(err)
	}
	if report.Duplicates != 2 {
		t.Fatalf("duplicates = %d", report.Duplicates)
	}
	if len(report.Document.Entries) != 1 || report.Document.Entries[0].File != a.Path {
		t.Fatalf("expected single entry for %s, got %+v", a.Path, report.Document.Entries)
	}
	if got := h.lookup.count("aaa"); got != 2 {
		t.Fatalf("lookups = %d, want one per distinct path", got)
	}
}

func TestRunRemovesStaleFailedLog(t *testing.T) {
	h := newHarness(t)
	testsupport.WriteFile(t, h.ec.FailedLogPath, []byte("/old\nxyz\n\n"))
	games := []scan.Game{h.game(t, "Knight Lore.tzx", "aaa")}

	if _, err := enrich.New(h.ec).Run(context.Background(), games, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(h.ec.FailedLogPath); !os.IsNotExist(err) {
		t.Fatalf("stale failed log kept: %v", err)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := enrich.New(h.ec).Run(ctx, []scan.Game{h.game(t, "Knight Lore.tzx", "aaa")}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}

func TestStateString(t *testing.T) {
	cases := map[enrich.State]string{
		enrich.StateUnresolved:     "unresolved",
		enrich.StateCacheHit:       "cache_hit",
		enrich.StateAssetResolving: "asset_resolving",
		enrich.StateFailed:         "failed",
		enrich.State(42):           "state(42)",
	}
	for state, want := range cases {
		if got := state.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", int(state), got, want)
		}
	}
}
