package hashcache_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"zxmeta/internal/hashcache"
)

func sampleEntry() hashcache.Entry {
	var e hashcache.Entry
	e.Set("game", "Jet Set Willy")
	e.Set("rating", "80%")
	e.Set("summary", "Miner%20Willy%0Athrows%20a%20party")
	e.Set("x-hash", "abc123")
	return e
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store, err := hashcache.New(filepath.Join(t.TempDir(), "cache"), nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if _, ok := store.Load("/games/jsw.tzx", "abc123"); ok {
		t.Fatal("expected miss before save")
	}
	if err := store.Save(sampleEntry(), "/games/jsw.tzx", "abc123"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, ok := store.Load("/games/jsw.tzx", "abc123")
	if !ok {
		t.Fatal("expected hit after save")
	}
	want := sampleEntry().Fields()
	fields := got.Fields()
	if len(fields) != len(want) {
		t.Fatalf("field count = %d, want %d", len(fields), len(want))
	}
	for i := range want {
		if fields[i] != want[i] {
			t.Fatalf("field %d = %+v, want %+v", i, fields[i], want[i])
		}
	}
}

func TestKeyDependsOnPathAndHash(t *testing.T) {
	a := hashcache.Key("/games/a.tap", "ff00")
	b := hashcache.Key("/other/a.tap", "ff00")
	if a == b {
		t.Fatal("expected different keys for different paths")
	}
	if !strings.HasSuffix(a, "-ff00.ini") {
		t.Fatalf("unexpected key format: %q", a)
	}
	if len(strings.TrimSuffix(a, "-ff00.ini")) != 32 {
		t.Fatalf("expected md5 hex prefix, got %q", a)
	}
}

func TestLoadCorruptEntryIsMiss(t *testing.T) {
	store, err := hashcache.New(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	path := store.Path("/games/x.tap", "beef")
	if err := os.WriteFile(path, []byte("this line has no separator\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, ok := store.Load("/games/x.tap", "beef"); ok {
		t.Fatal("expected corrupt entry to be a miss")
	}
}

func TestSaveReplacesStaleDirectory(t *testing.T) {
	store, err := hashcache.New(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	path := store.Path("/games/x.tap", "beef")
	if err := os.MkdirAll(filepath.Join(path, "junk"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := store.Save(sampleEntry(), "/games/x.tap", "beef"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if !info.Mode().IsRegular() {
		t.Fatalf("expected regular file at %s", path)
	}
}

func TestClearThenSaveRecreatesRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "cache")
	store, err := hashcache.New(root, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := store.Save(sampleEntry(), "/games/a.tap", "1"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, err := os.Stat(root); !os.IsNotExist(err) {
		t.Fatalf("expected root removed, got %v", err)
	}
	if _, ok := store.Load("/games/a.tap", "1"); ok {
		t.Fatal("expected miss after clear")
	}
	if n, err := store.Count(); err != nil || n != 0 {
		t.Fatalf("Count after clear = %d, %v", n, err)
	}
	if err := store.Save(sampleEntry(), "/games/a.tap", "1"); err != nil {
		t.Fatalf("Save after clear failed: %v", err)
	}
	if _, ok := store.Load("/games/a.tap", "1"); !ok {
		t.Fatal("expected hit after re-save")
	}
}

func TestListSortsByTitle(t *testing.T) {
	store, err := hashcache.New(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	for i, title := range []string{"Zax", "alien 8"} {
		var e hashcache.Entry
		e.Set("game", title)
		e.Set("x-hash", string(rune('a'+i)))
		if err := store.Save(e, "/g/"+title, string(rune('a'+i))); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}
	list, err := store.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 2 || list[0].Title != "alien 8" || list[1].Title != "Zax" {
		t.Fatalf("unexpected list: %+v", list)
	}
}

func TestFormatRejectsMultilineValue(t *testing.T) {
	var e hashcache.Entry
	e.Set("summary", "line one\nline two")
	if _, err := hashcache.Format(e); err == nil {
		t.Fatal("expected error for multi-line value")
	}
}

func TestParseIgnoresCommentsAndKeepsEquals(t *testing.T) {
	e, err := hashcache.Parse(strings.NewReader("; comment\n# other\n\ncommand = run a=b\n"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if got := e.Get("command"); got != "run a=b" {
		t.Fatalf("unexpected value %q", got)
	}
}
