package metafile

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/natefinch/atomic"
	"github.com/pmezard/go-difflib/difflib"
)

const backupTimeLayout = "20060102150405"

// Load parses the document at path. A missing file returns nil and no error:
// an empty document is a valid first-run state.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read metadata file: %w", err)
	}
	doc, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return doc, nil
}

// BackupName returns "<name>-<YYYYMMDDHHmmss><ext>" for path.
func BackupName(path string, at time.Time) string {
	dir, base := filepath.Split(path)
	ext := filepath.Ext(base)
	if strings.HasPrefix(base, ".") && ext == base {
		ext = ""
	}
	name := strings.TrimSuffix(base, ext)
	return filepath.Join(dir, name+"-"+at.Format(backupTimeLayout)+ext)
}

// Write stores content at path. An existing file is renamed to a timestamped
// backup first and its new name is returned; otherwise backup is empty.
func Write(path string, content []byte, now time.Time) (backup string, err error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create output directory: %w", err)
		}
	}
	if info, statErr := os.Stat(path); statErr == nil {
		if info.IsDir() {
			return "", fmt.Errorf("output path %s is a directory", path)
		}
		backup = BackupName(path, now)
		for i := 1; fileExists(backup); i++ {
			backup = BackupName(path, now.Add(time.Duration(i)*time.Second))
		}
		if err := os.Rename(path, backup); err != nil {
			return "", fmt.Errorf("backup metadata file: %w", err)
		}
	} else if !errors.Is(statErr, fs.ErrNotExist) {
		return "", fmt.Errorf("stat metadata file: %w", statErr)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(content)); err != nil {
		return backup, fmt.Errorf("write metadata file: %w", err)
	}
	return backup, nil
}

// Save renders doc with gen and writes it to path with a backup of the old file.
func Save(path string, doc *Document, gen Generator, now time.Time) (string, error) {
	content, err := gen.Render(doc)
	if err != nil {
		return "", err
	}
	return Write(path, content, now)
}

// Lock takes an exclusive advisory lock on "<path>.lock" so two runs cannot
// write the same document. The returned function releases it.
func Lock(path string) (func() error, error) {
	lock := flock.New(path + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%s is locked by another zxmeta run", path)
	}
	return func() error {
		err := lock.Unlock()
		_ = os.Remove(path + ".lock")
		return err
	}, nil
}

// Diff returns a unified diff between the current file contents and next.
// An empty string means no change.
func Diff(name string, current, next []byte) (string, error) {
	if bytes.Equal(current, next) {
		return "", nil
	}
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(current)),
		B:        difflib.SplitLines(string(next)),
		FromFile: name,
		ToFile:   name + " (new)",
		Context:  3,
	})
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
