package scan

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/klauspost/compress/zip"

	"zxmeta/internal/logging"
	"zxmeta/internal/services"
)

var spectrumExts = map[string]struct{}{
	".tap": {}, ".tzx": {}, ".slt": {}, ".sna": {}, ".dsk": {}, ".fdi": {}, ".trd": {}, ".img": {},
	".mgt": {}, ".slx": {}, ".dck": {}, ".air": {}, ".hdf": {}, ".mdr": {}, ".z80": {},
}

var archiveExts = map[string]struct{}{
	".zip": {}, ".7z": {}, ".rar": {}, ".gz": {}, ".tgz": {}, ".tar": {},
}

// IsSpectrumFile reports whether name has a known Spectrum image extension.
func IsSpectrumFile(name string) bool {
	_, ok := spectrumExts[strings.ToLower(filepath.Ext(name))]
	return ok
}

// IsArchive reports whether name has an archive extension.
func IsArchive(name string) bool {
	_, ok := archiveExts[strings.ToLower(filepath.Ext(name))]
	return ok
}

// Game is one identified file.
type Game struct {
	Path    string
	Hash    string
	Payload string
	Archive bool
}

// Skipped is a file that produced no game.
type Skipped struct {
	Path   string
	Reason string
}

// Result is the outcome of a scan.
type Result struct {
	Games   []Game
	Skipped []Skipped
}

// Options configures a Scanner.
type Options struct {
	Include   []string
	Exclude   []string
	Extractor string
	TempDir   string
	Progress  Progress
	Logger    *slog.Logger
}

// Scanner walks a directory tree and hashes game payloads.
type Scanner struct {
	include   []string
	exclude   []string
	extractor string
	tempDir   string
	progress  Progress
	logger    *slog.Logger
}

// New returns a Scanner.
func New(opts Options) *Scanner {
	include := opts.Include
	if len(include) == 0 {
		include = []string{"**/*"}
	}
	progress := opts.Progress
	if progress == nil {
		progress = NopProgress{}
	}
	return &Scanner{
		include:   include,
		exclude:   opts.Exclude,
		extractor: strings.TrimSpace(opts.Extractor),
		tempDir:   opts.TempDir,
		progress:  progress,
		logger:    logging.NewComponentLogger(opts.Logger, "scan"),
	}
}

// Files lists candidate files below root in lexical order. Glob patterns are
// matched against slash-separated paths relative to root.
func (s *Scanner) Files(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "scan", "stat source", root, err)
	}
	if !info.IsDir() {
		return nil, services.Wrap(services.ErrConfiguration, "scan", "stat source", root+" is not a directory", nil)
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			s.logger.Debug("skipping unreadable path", logging.String("path", path), logging.Error(walkErr))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if s.selected(filepath.ToSlash(rel)) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return files, nil
}

func (s *Scanner) selected(rel string) bool {
	for _, pattern := range s.exclude {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return false
		}
	}
	for _, pattern := range s.include {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

// Scan identifies every candidate file below root.
func (s *Scanner) Scan(ctx context.Context, root string) (*Result, error) {
	files, err := s.Files(root)
	if err != nil {
		return nil, err
	}
	s.logger.Info("source scanned", logging.String("root", root), logging.Int("files", len(files)))

	s.progress.Start(len(files), "1/2: Processing files")
	defer s.progress.Finish()

	result := &Result{}
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		s.progress.Step(filepath.Base(path))
		game, err := s.Identify(ctx, path)
		if err != nil {
			if errors.Is(err, errNoPayload) || errors.Is(err, errUnsupported) {
				s.logger.Debug("file skipped", logging.String("path", path), logging.String("reason", err.Error()))
			} else {
				logging.WarnWithContext(s.logger, "file could not be hashed", "scan_failed",
					logging.String("path", path),
					logging.String(logging.FieldErrorHint, "check the file is readable and the archive is intact"),
					logging.String(logging.FieldImpact, "file is left out of the metadata document"),
					logging.Error(err),
				)
			}
			result.Skipped = append(result.Skipped, Skipped{Path: path, Reason: err.Error()})
			continue
		}
		result.Games = append(result.Games, game)
	}
	return result, nil
}

var (
	errNoPayload   = errors.New("archive contains no spectrum file")
	errUnsupported = errors.New("not a spectrum file")
)

// Identify hashes one file.
func (s *Scanner) Identify(ctx context.Context, path string) (Game, error) {
	switch {
	case IsSpectrumFile(path):
		hash, err := HashFile(path)
		if err != nil {
			return Game{}, err
		}
		return Game{Path: path, Hash: hash, Payload: filepath.Base(path)}, nil
	case strings.EqualFold(filepath.Ext(path), ".zip"):
		payload, hash, err := hashZipPayload(path)
		if err != nil {
			return Game{}, err
		}
		return Game{Path: path, Hash: hash, Payload: payload, Archive: true}, nil
	case IsArchive(path):
		payload, hash, err := s.hashExtractedPayload(ctx, path)
		if err != nil {
			return Game{}, err
		}
		return Game{Path: path, Hash: hash, Payload: payload, Archive: true}, nil
	default:
		return Game{}, errUnsupported
	}
}

// HashFile returns the lower-case hex MD5 of the file at path.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return hashReader(f)
}

func hashReader(r io.Reader) (string, error) {
	h := md5.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("hash payload: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func hashZipPayload(path string) (string, string, error) {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return "", "", fmt.Errorf("open zip %s: %w", path, err)
	}
	defer reader.Close()

	candidates := make([]*zip.File, 0, len(reader.File))
	for _, f := range reader.File {
		if f.FileInfo().IsDir() || !IsSpectrumFile(f.Name) {
			continue
		}
		candidates = append(candidates, f)
	}
	if len(candidates) == 0 {
		return "", "", errNoPayload
	}
	slices.SortStableFunc(candidates, func(a, b *zip.File) int {
		return strings.Compare(filepath.Base(a.Name), filepath.Base(b.Name))
	})
	payload := candidates[0]
	rc, err := payload.Open()
	if err != nil {
		return "", "", fmt.Errorf("open %s in %s: %w", payload.Name, path, err)
	}
	defer rc.Close()
	hash, err := hashReader(rc)
	if err != nil {
		return "", "", err
	}
	return filepath.Base(payload.Name), hash, nil
}

func (s *Scanner) hashExtractedPayload(ctx context.Context, path string) (string, string, error) {
	if s.extractor == "" {
		return "", "", services.Wrap(services.ErrConfiguration, "scan", "extract", "no archive extractor configured", nil)
	}
	dir, err := os.MkdirTemp(s.tempDir, "zxmeta-extract-")
	if err != nil {
		return "", "", fmt.Errorf("create extract dir: %w", err)
	}
	defer os.RemoveAll(dir)

	cmd := exec.CommandContext(ctx, s.extractor, "e", path, "-o"+dir, "-r", "-y")
	output, err := cmd.CombinedOutput()
	if err != nil {
		detail := strings.TrimSpace(string(output))
		if len(detail) > 200 {
			detail = detail[:200]
		}
		return "", "", services.Wrap(services.ErrExternalTool, "scan", "extract", fmt.Sprintf("%s failed: %s", s.extractor, detail), err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", "", fmt.Errorf("read extract dir: %w", err)
	}
	for _, entry := range entries {
		if entry.Type().IsRegular() && IsSpectrumFile(entry.Name()) {
			hash, err := HashFile(filepath.Join(dir, entry.Name()))
			if err != nil {
				return "", "", err
			}
			return entry.Name(), hash, nil
		}
	}
	return "", "", errNoPayload
}
