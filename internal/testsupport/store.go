package testsupport

import (
	"testing"

	"zxmeta/internal/config"
	"zxmeta/internal/describe"
	"zxmeta/internal/hashcache"
)

// MustOpenCache opens the hash cache for tests.
func MustOpenCache(t testing.TB, cfg *config.Config) *hashcache.Store {
	t.Helper()

	store, err := hashcache.New(cfg.Paths.CacheDir, nil)
	if err != nil {
		t.Fatalf("open hash cache: %v", err)
	}
	return store
}

// MustOpenMemo opens the description memo for tests and registers cleanup.
func MustOpenMemo(t testing.TB, cfg *config.Config) *describe.Memo {
	t.Helper()

	memo, err := describe.OpenMemo(cfg.Paths.DescriptionDB)
	if err != nil {
		t.Fatalf("open description memo: %v", err)
	}
	t.Cleanup(func() {
		_ = memo.Close()
	})
	return memo
}
