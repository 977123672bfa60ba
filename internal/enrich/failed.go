package enrich

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"

	"zxmeta/internal/fileutil"
	"zxmeta/internal/logging"
	"zxmeta/internal/services"
)

// FormatFailedLog renders failures as blocks of a path line, an md5 line and
// a blank line.
func FormatFailedLog(failures []Failure) []byte {
	var buf bytes.Buffer
	for _, f := range failures {
		fmt.Fprintf(&buf, "%s\n%s\n\n", f.Path, f.Hash)
	}
	return buf.Bytes()
}

// WriteFailedLog replaces the log at path with failures. A run without
// failures removes a log left by an earlier run.
func WriteFailedLog(path string, failures []Failure) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	if len(failures) == 0 {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove stale failed log: %w", err)
		}
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create failed log directory: %w", err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(FormatFailedLog(failures))); err != nil {
		return fmt.Errorf("write failed log: %w", err)
	}
	return nil
}

// moveFailed relocates files the catalog does not know into MoveFailedDir,
// keeping their path relative to SourceRoot. Files that failed for transient
// reasons stay where they are.
func (p *Pipeline) moveFailed(failures []Failure) {
	if p.ec.MoveFailedDir == "" {
		return
	}
	for i := range failures {
		f := &failures[i]
		if !errors.Is(f.Err, services.ErrNotFound) {
			continue
		}
		dst := filepath.Join(p.ec.MoveFailedDir, p.relative(f.Path))
		if err := fileutil.MoveFile(f.Path, dst); err != nil {
			logging.WarnWithContext(p.logger, "failed file not moved", "move_failed_error",
				logging.String(logging.FieldGamePath, f.Path),
				logging.String("destination", dst),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check move_failed_dir exists and is writable"))
			continue
		}
		f.MovedTo = dst
		p.logger.Info("unidentified file moved",
			logging.String(logging.FieldGamePath, f.Path),
			logging.String("destination", dst))
	}
}

func (p *Pipeline) relative(path string) string {
	if p.ec.SourceRoot != "" {
		if rel, err := filepath.Rel(p.ec.SourceRoot, path); err == nil && !strings.HasPrefix(rel, "..") {
			return rel
		}
	}
	return filepath.Base(path)
}
