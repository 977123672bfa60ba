package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directories that persist between runs.
type Paths struct {
	CacheDir      string `toml:"cache_dir"`
	DescriptionDB string `toml:"description_db"`
	LogDir        string `toml:"log_dir"`
	AssetsDir     string `toml:"assets_dir"`
	MoveFailedDir string `toml:"move_failed_dir"`
	FailedLogName string `toml:"failed_log_name"`
}

// Output contains configuration for the generated front-end document.
type Output struct {
	Platform   string `toml:"platform"`
	Launch     string `toml:"launch"`
	Collection string `toml:"collection"`
	ShortName  string `toml:"shortname"`
	DecodeText bool   `toml:"decode_text"`
}

// Lookup contains configuration for the remote metadata services.
type Lookup struct {
	ZXInfoBaseURL    string `toml:"zxinfo_base_url"`
	MediaBaseURL     string `toml:"media_base_url"`
	WikipediaBaseURL string `toml:"wikipedia_base_url"`
	IGDBBaseURL      string `toml:"igdb_base_url"`
	TwitchTokenURL   string `toml:"twitch_token_url"`
	IGDBClientID     string `toml:"igdb_client_id"`
	IGDBClientSecret string `toml:"igdb_client_secret"`
	UserAgent        string `toml:"user_agent"`
	TimeoutSeconds   int    `toml:"timeout_seconds"`
	Workers          int    `toml:"workers"`
}

// Scan contains configuration for locating game files.
type Scan struct {
	Include   []string `toml:"include"`
	Exclude   []string `toml:"exclude"`
	Extractor string   `toml:"extractor"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format     string `toml:"format"`
	Level      string `toml:"level"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
}

// Config encapsulates all configuration values for zxmeta.
//
// Configuration sections by subsystem:
//   - Paths: cache, description memo, logs, assets, and failed-file holding area
//   - Output: target front-end format and document header defaults
//   - Lookup: ZXInfo, Wikipedia, and IGDB endpoints, timeouts, and concurrency
//   - Scan: include/exclude globs and the archive extractor binary
//   - Logging: log format, level, and file rotation
type Config struct {
	Paths   Paths   `toml:"paths"`
	Output  Output  `toml:"output"`
	Lookup  Lookup  `toml:"lookup"`
	Scan    Scan    `toml:"scan"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/zxmeta/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("zxmeta.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the cache and log directories. It runs once at
// process start; the hash cache recreates its root lazily after a clear.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.CacheDir, c.Paths.LogDir, filepath.Dir(c.Paths.DescriptionDB)} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// ExtractorBinary returns the archive extractor executable name.
func (c *Config) ExtractorBinary() string {
	if strings.TrimSpace(c.Scan.Extractor) == "" {
		return defaultExtractor
	}
	return c.Scan.Extractor
}

// LookupTimeout returns the per-request deadline for remote calls.
func (c *Config) LookupTimeout() time.Duration {
	if c.Lookup.TimeoutSeconds <= 0 {
		return defaultLookupTimeoutSeconds * time.Second
	}
	return time.Duration(c.Lookup.TimeoutSeconds) * time.Second
}

// IGDBEnabled reports whether both Twitch credentials are present.
func (c *Config) IGDBEnabled() bool {
	return c.Lookup.IGDBClientID != "" && c.Lookup.IGDBClientSecret != ""
}

// AssetsRoot returns the configured assets directory, falling back to the
// directory containing the output document.
func (c *Config) AssetsRoot(outputPath string) string {
	if strings.TrimSpace(c.Paths.AssetsDir) != "" {
		return c.Paths.AssetsDir
	}
	return filepath.Dir(outputPath)
}

// FailedLogPath returns the failed-files log location next to the output document.
func (c *Config) FailedLogPath(outputPath string) string {
	name := c.Paths.FailedLogName
	if strings.TrimSpace(name) == "" {
		name = defaultFailedLogName
	}
	return filepath.Join(filepath.Dir(outputPath), name)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func defaultDataDir() string {
	if base, ok := os.LookupEnv("XDG_DATA_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "zxmeta")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "~/.local/share/zxmeta"
	}
	return filepath.Join(home, ".local", "share", "zxmeta")
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
