package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate checks configuration invariants that cannot be normalized away.
// Upstream credentials are intentionally not required here: an unconfigured
// service degrades to a tagged error result per call instead of blocking
// startup.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		return fmt.Errorf("paths.cache_dir must not be empty")
	}
	if c.Emby.Server != "" {
		if err := validateURL("emby.server", c.Emby.Server); err != nil {
			return err
		}
	}
	if err := validateURL("tmdb.base_url", c.TMDB.BaseURL); err != nil {
		return err
	}
	if err := validateURL("bangumi.base_url", c.Bangumi.BaseURL); err != nil {
		return err
	}
	if err := validateURL("nullbr.base_url", c.Nullbr.BaseURL); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}

func validateURL(field, value string) error {
	parsed, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s: must be an http or https URL", field)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s: missing host", field)
	}
	return nil
}
