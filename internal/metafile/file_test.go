package metafile_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"zxmeta/internal/metafile"
)

func TestLoadMissingFileIsEmpty(t *testing.T) {
	doc, err := metafile.Load(filepath.Join(t.TempDir(), "metadata.pegasus.txt"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if doc != nil {
		t.Fatalf("expected nil document, got %+v", doc)
	}
}

func TestBackupName(t *testing.T) {
	at := time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)
	got := metafile.BackupName("/roms/metadata.pegasus.txt", at)
	if got != "/roms/metadata.pegasus-20240309140507.txt" {
		t.Fatalf("unexpected backup name %q", got)
	}
}

func TestSaveBacksUpExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "metadata.pegasus.txt")
	if err := os.WriteFile(path, []byte("old contents\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	gen, err := metafile.NewGenerator(metafile.FormatPegasus, metafile.Options{
		Collection: "ZX Spectrum", ShortName: "zxspectrum", Launch: `fuse "{file.path}"`, DecodeText: true,
	})
	if err != nil {
		t.Fatalf("NewGenerator failed: %v", err)
	}

	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.Local)
	backup, err := metafile.Save(path, sampleDocument(), gen, now)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if backup == "" {
		t.Fatal("expected backup path")
	}
	old, err := os.ReadFile(backup)
	if err != nil {
		t.Fatalf("read backup: %v", err)
	}
	if string(old) != "old contents\n" {
		t.Fatalf("backup content = %q", old)
	}
	fresh, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read new file: %v", err)
	}
	if !strings.HasPrefix(string(fresh), "collection: ZX Spectrum\n") {
		t.Fatalf("unexpected new content:\n%s", fresh)
	}

	second, err := metafile.Save(path, sampleDocument(), gen, now)
	if err != nil {
		t.Fatalf("second Save failed: %v", err)
	}
	if second == backup {
		t.Fatal("expected a distinct backup name when the timestamp collides")
	}
}

func TestLockIsExclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metadata.pegasus.txt")
	unlock, err := metafile.Lock(path)
	if err != nil {
		t.Fatalf("Lock failed: %v", err)
	}
	if _, err := metafile.Lock(path); err == nil {
		t.Fatal("expected second lock to fail")
	}
	if err := unlock(); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	again, err := metafile.Lock(path)
	if err != nil {
		t.Fatalf("Lock after unlock failed: %v", err)
	}
	_ = again()
}

func TestDiff(t *testing.T) {
	diff, err := metafile.Diff("metadata.pegasus.txt", []byte("a\nb\n"), []byte("a\nc\n"))
	if err != nil {
		t.Fatalf("Diff failed: %v", err)
	}
	if !strings.Contains(diff, "-b") || !strings.Contains(diff, "+c") {
		t.Fatalf("unexpected diff:\n%s", diff)
	}
	if diff, _ := metafile.Diff("x", []byte("same"), []byte("same")); diff != "" {
		t.Fatalf("expected empty diff, got %q", diff)
	}
}
