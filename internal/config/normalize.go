package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeOutput()
	c.normalizeLookup()
	c.normalizeScan()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	defaults := Default().Paths
	var err error
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		c.Paths.CacheDir = defaults.CacheDir
	}
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.DescriptionDB) == "" {
		c.Paths.DescriptionDB = defaults.DescriptionDB
	}
	if c.Paths.DescriptionDB, err = expandPath(c.Paths.DescriptionDB); err != nil {
		return fmt.Errorf("paths.description_db: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaults.LogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.AssetsDir, err = expandPath(strings.TrimSpace(c.Paths.AssetsDir)); err != nil {
		return fmt.Errorf("paths.assets_dir: %w", err)
	}
	if c.Paths.MoveFailedDir, err = expandPath(strings.TrimSpace(c.Paths.MoveFailedDir)); err != nil {
		return fmt.Errorf("paths.move_failed_dir: %w", err)
	}
	c.Paths.FailedLogName = strings.TrimSpace(c.Paths.FailedLogName)
	if c.Paths.FailedLogName == "" {
		c.Paths.FailedLogName = defaultFailedLogName
	}
	return nil
}

func (c *Config) normalizeOutput() {
	c.Output.Platform = strings.ToLower(strings.TrimSpace(c.Output.Platform))
	if c.Output.Platform == "" {
		c.Output.Platform = defaultPlatform
	}
	c.Output.Launch = strings.TrimSpace(c.Output.Launch)
	if c.Output.Launch == "" {
		c.Output.Launch = defaultLaunch
	}
	c.Output.Collection = strings.TrimSpace(c.Output.Collection)
	if c.Output.Collection == "" {
		c.Output.Collection = defaultCollection
	}
	c.Output.ShortName = strings.TrimSpace(c.Output.ShortName)
	if c.Output.ShortName == "" {
		c.Output.ShortName = defaultShortName
	}
}

func (c *Config) normalizeLookup() {
	trimURL := func(value, fallback string) string {
		value = strings.TrimRight(strings.TrimSpace(value), "/")
		if value == "" {
			return fallback
		}
		return value
	}
	c.Lookup.ZXInfoBaseURL = trimURL(c.Lookup.ZXInfoBaseURL, defaultZXInfoBaseURL)
	c.Lookup.MediaBaseURL = trimURL(c.Lookup.MediaBaseURL, defaultMediaBaseURL)
	c.Lookup.WikipediaBaseURL = trimURL(c.Lookup.WikipediaBaseURL, defaultWikipediaBaseURL)
	c.Lookup.IGDBBaseURL = trimURL(c.Lookup.IGDBBaseURL, defaultIGDBBaseURL)
	c.Lookup.TwitchTokenURL = trimURL(c.Lookup.TwitchTokenURL, defaultTwitchTokenURL)

	c.Lookup.IGDBClientID = strings.TrimSpace(c.Lookup.IGDBClientID)
	if c.Lookup.IGDBClientID == "" {
		if value, ok := os.LookupEnv("IGDB_CLIENT_ID"); ok {
			c.Lookup.IGDBClientID = strings.TrimSpace(value)
		}
	}
	c.Lookup.IGDBClientSecret = strings.TrimSpace(c.Lookup.IGDBClientSecret)
	if c.Lookup.IGDBClientSecret == "" {
		if value, ok := os.LookupEnv("IGDB_CLIENT_SECRET"); ok {
			c.Lookup.IGDBClientSecret = strings.TrimSpace(value)
		}
	}
	c.Lookup.UserAgent = strings.TrimSpace(c.Lookup.UserAgent)
	if c.Lookup.UserAgent == "" {
		c.Lookup.UserAgent = defaultUserAgent
	}
	if c.Lookup.TimeoutSeconds <= 0 {
		c.Lookup.TimeoutSeconds = defaultLookupTimeoutSeconds
	}
	if c.Lookup.Workers <= 0 {
		c.Lookup.Workers = defaultWorkers
	}
}

func (c *Config) normalizeScan() {
	clean := func(patterns []string) []string {
		out := make([]string, 0, len(patterns))
		for _, p := range patterns {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	c.Scan.Include = clean(c.Scan.Include)
	if len(c.Scan.Include) == 0 {
		c.Scan.Include = []string{"**/*"}
	}
	c.Scan.Exclude = clean(c.Scan.Exclude)
	c.Scan.Extractor = strings.TrimSpace(c.Scan.Extractor)
	if c.Scan.Extractor == "" {
		c.Scan.Extractor = defaultExtractor
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.MaxSizeMB <= 0 {
		c.Logging.MaxSizeMB = defaultLogMaxSizeMB
	}
	if c.Logging.MaxBackups < 0 {
		c.Logging.MaxBackups = 0
	}
}
