package hashcache

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/natefinch/atomic"

	"zxmeta/internal/logging"
)

const entryExt = ".ini"

// Store keeps one file per (game path, content hash) under a root directory.
//
// Entries for different identities never share a file, so concurrent Save
// calls for different games are safe. Two concurrent calls for the same
// identity are not guarded; last writer wins.
type Store struct {
	root   string
	logger *slog.Logger
}

// Summary describes one stored entry for listing.
type Summary struct {
	Name     string
	Title    string
	Hash     string
	File     string
	Modified time.Time
}

// New creates a store rooted at root, creating the directory if needed.
func New(root string, logger *slog.Logger) (*Store, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, errors.New("cache root required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create cache root: %w", err)
	}
	return &Store{
		root:   root,
		logger: logging.NewComponentLogger(logger, "hashcache"),
	}, nil
}

// Root returns the cache directory.
func (s *Store) Root() string {
	return s.root
}

// Key returns the storage file name for a game path and content hash.
func Key(gamePath, hash string) string {
	sum := md5.Sum([]byte(gamePath))
	return hex.EncodeToString(sum[:]) + "-" + hash + entryExt
}

// Path returns the absolute location of the entry for gamePath and hash.
func (s *Store) Path(gamePath, hash string) string {
	return filepath.Join(s.root, Key(gamePath, hash))
}

// Load returns the cached entry. Read and parse failures are logged and
// reported as a miss.
func (s *Store) Load(gamePath, hash string) (Entry, bool) {
	path := s.Path(gamePath, hash)
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logging.WarnWithContext(s.logger, "cache entry unreadable", "hashcache_read_failed",
				logging.String("path", path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "run 'zxmeta cache clear' if this repeats"),
				logging.String(logging.FieldImpact, "game will be looked up again"))
		}
		return Entry{}, false
	}
	entry, err := Parse(bytes.NewReader(data))
	if err != nil {
		logging.WarnWithContext(s.logger, "cache entry corrupt", "hashcache_parse_failed",
			logging.String("path", path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "entry will be rewritten after lookup"),
			logging.String(logging.FieldImpact, "game will be looked up again"))
		return Entry{}, false
	}
	return entry, true
}

// Save writes entry for gamePath and hash, replacing any existing file.
// A non-regular file squatting on the target path is removed first, and the
// root is recreated if it was cleared.
func (s *Store) Save(entry Entry, gamePath, hash string) error {
	data, err := Format(entry)
	if err != nil {
		return fmt.Errorf("format cache entry: %w", err)
	}
	path := s.Path(gamePath, hash)
	if info, err := os.Lstat(path); err == nil && !info.Mode().IsRegular() {
		s.logger.Debug("removing stale cache path", logging.String("path", path))
		if err := os.RemoveAll(path); err != nil {
			return fmt.Errorf("remove stale cache path: %w", err)
		}
	}
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return fmt.Errorf("create cache root: %w", err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}
	return nil
}

// Clear removes the whole cache tree. The next Save recreates the root.
func (s *Store) Clear() error {
	if err := os.RemoveAll(s.root); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	s.logger.Info("cache cleared", logging.String("root", s.root))
	return nil
}

// List summarizes every readable entry, sorted by title.
func (s *Store) List() ([]Summary, error) {
	dirEntries, err := os.ReadDir(s.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read cache root: %w", err)
	}
	summaries := make([]Summary, 0, len(dirEntries))
	for _, de := range dirEntries {
		if de.IsDir() || filepath.Ext(de.Name()) != entryExt {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.root, de.Name()))
		if err != nil {
			continue
		}
		entry, err := Parse(bytes.NewReader(data))
		if err != nil {
			continue
		}
		summaries = append(summaries, Summary{
			Name:     de.Name(),
			Title:    entry.Get("game"),
			Hash:     entry.Get("x-hash"),
			File:     entry.Get("file"),
			Modified: info.ModTime(),
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].Title == summaries[j].Title {
			return summaries[i].Name < summaries[j].Name
		}
		return strings.ToLower(summaries[i].Title) < strings.ToLower(summaries[j].Title)
	})
	return summaries, nil
}

// Count returns the number of entry files under the root.
func (s *Store) Count() (int, error) {
	dirEntries, err := os.ReadDir(s.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("read cache root: %w", err)
	}
	n := 0
	for _, de := range dirEntries {
		if !de.IsDir() && filepath.Ext(de.Name()) == entryExt {
			n++
		}
	}
	return n, nil
}
