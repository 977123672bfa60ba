package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateOutput(); err != nil {
		return err
	}
	if err := c.validateLookup(); err != nil {
		return err
	}
	if err := c.validateScan(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateOutput() error {
	switch c.Output.Platform {
	case "pegasus", "launchbox":
	default:
		return fmt.Errorf("output.platform must be pegasus or launchbox, got %q", c.Output.Platform)
	}
	if !strings.Contains(c.Output.Launch, "{file.path}") && c.Output.Platform == "pegasus" {
		return errors.New("output.launch must reference {file.path}")
	}
	return nil
}

func (c *Config) validateLookup() error {
	for name, value := range map[string]string{
		"lookup.zxinfo_base_url":    c.Lookup.ZXInfoBaseURL,
		"lookup.media_base_url":     c.Lookup.MediaBaseURL,
		"lookup.wikipedia_base_url": c.Lookup.WikipediaBaseURL,
		"lookup.igdb_base_url":      c.Lookup.IGDBBaseURL,
		"lookup.twitch_token_url":   c.Lookup.TwitchTokenURL,
	} {
		parsed, err := url.Parse(value)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("%s must be an absolute URL, got %q", name, value)
		}
	}
	if (c.Lookup.IGDBClientID == "") != (c.Lookup.IGDBClientSecret == "") {
		return errors.New("lookup.igdb_client_id and lookup.igdb_client_secret must be set together (or via IGDB_CLIENT_ID/IGDB_CLIENT_SECRET)")
	}
	if c.Lookup.Workers > maxWorkers {
		return fmt.Errorf("lookup.workers must be at most %d", maxWorkers)
	}
	return nil
}

func (c *Config) validateScan() error {
	for _, pattern := range append(append([]string{}, c.Scan.Include...), c.Scan.Exclude...) {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("scan pattern %q is not a valid glob", pattern)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
}
