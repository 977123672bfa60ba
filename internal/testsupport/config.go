package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"zxmeta/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.CacheDir = filepath.Join(base, "data", "cache")
	cfgVal.Paths.DescriptionDB = filepath.Join(base, "data", "descriptions.db")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.AssetsDir = filepath.Join(base, "out")
	cfgVal.Lookup.IGDBClientID = ""
	cfgVal.Lookup.IGDBClientSecret = ""
	cfgVal.Lookup.TimeoutSeconds = 5

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithServiceURL points every remote lookup at a single test server.
func WithServiceURL(base string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Lookup.ZXInfoBaseURL = base + "/zxinfo"
		b.cfg.Lookup.MediaBaseURL = base + "/media"
		b.cfg.Lookup.WikipediaBaseURL = base + "/api/rest_v1"
		b.cfg.Lookup.IGDBBaseURL = base + "/igdb"
		b.cfg.Lookup.TwitchTokenURL = base + "/oauth2/token"
	}
}

// WithIGDBCredentials enables the IGDB source.
func WithIGDBCredentials(id, secret string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Lookup.IGDBClientID = id
		b.cfg.Lookup.IGDBClientSecret = secret
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, the configured extractor is
// stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{b.cfg.ExtractorBinary()}
		}
		for _, name := range names {
			writeStub(b, name, "#!/bin/sh\nexit 0\n")
		}
	}
}

// WithExtractorScript installs a stub extractor that runs body as a shell
// script with $OUT set to the -o directory it was given.
func WithExtractorScript(body string) ConfigOption {
	return func(b *configBuilder) {
		script := "#!/bin/sh\nOUT=\"\"\nfor a in \"$@\"; do\n  case \"$a\" in -o*) OUT=\"${a#-o}\";; esac\ndone\n" + body + "\n"
		writeStub(b, b.cfg.ExtractorBinary(), script)
	}
}

func writeStub(b *configBuilder, name, script string) {
	binDir := filepath.Join(b.baseDir, "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		b.t.Fatalf("mkdir bin dir: %v", err)
	}
	target := filepath.Join(binDir, name)
	if err := os.WriteFile(target, []byte(script), 0o755); err != nil {
		b.t.Fatalf("write stub %s: %v", name, err)
	}

	oldPath := os.Getenv("PATH")
	if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
		b.t.Fatalf("set PATH: %v", err)
	}
	b.t.Cleanup(func() {
		_ = os.Setenv("PATH", oldPath)
	})
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.LogDir)
}
