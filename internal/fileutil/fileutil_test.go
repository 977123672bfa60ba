package fileutil

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, path string, data string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
}

func readTemp(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestCopyFileOverwritesDestination(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "titles", "abc.png")
	dst := filepath.Join(dir, "covers", "abc.png")
	writeTemp(t, src, "title screen")
	writeTemp(t, dst, "old cover with more bytes")

	if err := CopyFile(src, dst); err != nil {
		t.Fatal(err)
	}
	if got := readTemp(t, dst); got != "title screen" {
		t.Fatalf("content = %q", got)
	}
	if got := readTemp(t, src); got != "title screen" {
		t.Fatalf("source changed: %q", got)
	}
}

func TestCopyFileModeSetsPermissions(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "stub.sh")
	dst := filepath.Join(dir, "stub-copy.sh")
	writeTemp(t, src, "#!/bin/sh\n")

	if err := CopyFileMode(src, dst, 0o755); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(dst)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm()&0o111 == 0 {
		t.Fatalf("expected executable bits, got %o", info.Mode().Perm())
	}
}

func TestCopyFileVerified(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "Zax.tzx")
	dst := filepath.Join(dir, "copy.tzx")
	writeTemp(t, src, "ZXTape!\x1a")

	if err := CopyFileVerified(src, dst); err != nil {
		t.Fatal(err)
	}
	if got := readTemp(t, dst); got != "ZXTape!\x1a" {
		t.Fatalf("content = %q", got)
	}
}

func TestCopyMissingSource(t *testing.T) {
	dir := t.TempDir()
	if err := CopyFile(filepath.Join(dir, "nope"), filepath.Join(dir, "dst")); err == nil {
		t.Fatal("expected error from CopyFile")
	}
	if err := CopyFileVerified(filepath.Join(dir, "nope"), filepath.Join(dir, "dst2")); err == nil {
		t.Fatal("expected error from CopyFileVerified")
	}
}

func TestMoveFileCreatesParents(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "roms", "arcade", "Unknown.tap")
	dst := filepath.Join(dir, "failed", "arcade", "Unknown.tap")
	writeTemp(t, src, "payload")

	if err := MoveFile(src, dst); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Fatalf("source still present: %v", err)
	}
	if got := readTemp(t, dst); got != "payload" {
		t.Fatalf("content = %q", got)
	}
}

func TestMoveFileMissingSource(t *testing.T) {
	dir := t.TempDir()
	if err := MoveFile(filepath.Join(dir, "nope.tap"), filepath.Join(dir, "out", "nope.tap")); err == nil {
		t.Fatal("expected error")
	}
}
