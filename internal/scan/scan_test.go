package scan_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"zxmeta/internal/scan"
	"zxmeta/internal/services"
	"zxmeta/internal/testsupport"
)

func TestScanHashesImagesAndZips(t *testing.T) {
	root := t.TempDir()
	tap := []byte("tape payload")
	tzx := []byte("zip payload")
	testsupport.WriteFile(t, filepath.Join(root, "a", "Alien8.tap"), tap)
	testsupport.WriteFile(t, filepath.Join(root, "readme.txt"), []byte("notes"))
	testsupport.WriteZip(t, filepath.Join(root, "b", "Zax.zip"), map[string][]byte{
		"docs/manual.txt": []byte("manual"),
		"Zax.tzx":         tzx,
		"Zax2.tzx":        []byte("other side"),
	})
	testsupport.WriteZip(t, filepath.Join(root, "empty.zip"), map[string][]byte{"info.nfo": []byte("x")})

	scanner := scan.New(scan.Options{})
	result, err := scanner.Scan(context.Background(), root)
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	if len(result.Games) != 2 {
		t.Fatalf("expected 2 games, got %+v", result.Games)
	}
	byPath := map[string]scan.Game{}
	for _, g := range result.Games {
		byPath[g.Path] = g
	}
	if g := byPath[filepath.Join(root, "a", "Alien8.tap")]; g.Hash != testsupport.MD5(tap) || g.Archive {
		t.Fatalf("unexpected tap game %+v", g)
	}
	zipGame := byPath[filepath.Join(root, "b", "Zax.zip")]
	if zipGame.Hash != testsupport.MD5(tzx) || !zipGame.Archive || zipGame.Payload != "Zax.tzx" {
		t.Fatalf("unexpected zip game %+v", zipGame)
	}
	if len(result.Skipped) != 2 {
		t.Fatalf("expected readme and empty zip skipped, got %+v", result.Skipped)
	}
}

func TestFilesHonorsGlobs(t *testing.T) {
	root := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(root, "keep", "A.tap"), []byte("a"))
	testsupport.WriteFile(t, filepath.Join(root, "skip", "B.tap"), []byte("b"))
	testsupport.WriteFile(t, filepath.Join(root, "keep", "C.z80"), []byte("c"))

	scanner := scan.New(scan.Options{Include: []string{"keep/**", "skip/**"}, Exclude: []string{"skip/**", "**/*.z80"}})
	files, err := scanner.Files(root)
	if err != nil {
		t.Fatalf("Files returned error: %v", err)
	}
	if len(files) != 1 || files[0] != filepath.Join(root, "keep", "A.tap") {
		t.Fatalf("unexpected files %q", files)
	}
}

func TestFilesRejectsMissingRoot(t *testing.T) {
	_, err := scan.New(scan.Options{}).Files(filepath.Join(t.TempDir(), "nope"))
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestIdentifyUsesExtractorForOtherArchives(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithExtractorScript(
		`printf 'notes' > "$OUT/readme.txt"; printf 'seven payload' > "$OUT/GAME.TZX"`,
	))
	archive := filepath.Join(testsupport.BaseDir(cfg), "src", "Game.7z")
	testsupport.WriteFile(t, archive, []byte("7z bytes"))

	scanner := scan.New(scan.Options{Extractor: cfg.ExtractorBinary(), TempDir: t.TempDir()})
	game, err := scanner.Identify(context.Background(), archive)
	if err != nil {
		t.Fatalf("Identify returned error: %v", err)
	}
	if game.Hash != testsupport.MD5([]byte("seven payload")) || game.Payload != "GAME.TZX" || game.Path != archive {
		t.Fatalf("unexpected game %+v", game)
	}
}

func TestIdentifyReportsExtractorFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithExtractorScript(`echo "corrupt archive" >&2; exit 2`))
	archive := filepath.Join(testsupport.BaseDir(cfg), "src", "Bad.rar")
	testsupport.WriteFile(t, archive, []byte("rar"))

	_, err := scan.New(scan.Options{Extractor: cfg.ExtractorBinary()}).Identify(context.Background(), archive)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}

func TestExtensions(t *testing.T) {
	if !scan.IsSpectrumFile("GAME.Z80") || scan.IsSpectrumFile("game.txt") {
		t.Fatal("unexpected spectrum extension classification")
	}
	if !scan.IsArchive("x.7z") || scan.IsArchive("x.tap") {
		t.Fatal("unexpected archive classification")
	}
}
