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
	c.normalizeEmby()
	c.normalizeTMDB()
	c.normalizeBangumi()
	c.normalizeNullbr()
	c.normalizeQueue()
	c.normalizeCache()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		c.Paths.CacheDir = defaultCacheDir
	}
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeEmby() {
	c.Emby.Server = strings.TrimRight(strings.TrimSpace(c.Emby.Server), "/")
	c.Emby.APIKey = strings.TrimSpace(c.Emby.APIKey)
	if c.Emby.APIKey == "" {
		if value, ok := os.LookupEnv("EMBY_API_KEY"); ok {
			c.Emby.APIKey = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeTMDB() {
	if c.TMDB.APIKey == "" {
		if value, ok := os.LookupEnv("TMDB_API_KEY"); ok {
			c.TMDB.APIKey = value
		}
	}
	c.TMDB.BaseURL = strings.TrimRight(strings.TrimSpace(c.TMDB.BaseURL), "/")
	if c.TMDB.BaseURL == "" {
		c.TMDB.BaseURL = defaultTMDBBaseURL
	}
	c.TMDB.Language = strings.TrimSpace(c.TMDB.Language)
	if c.TMDB.Language == "" {
		c.TMDB.Language = defaultTMDBLanguage
	}
}

func (c *Config) normalizeBangumi() {
	c.Bangumi.Token = strings.TrimSpace(c.Bangumi.Token)
	c.Bangumi.BaseURL = strings.TrimRight(strings.TrimSpace(c.Bangumi.BaseURL), "/")
	if c.Bangumi.BaseURL == "" {
		c.Bangumi.BaseURL = defaultBangumiBaseURL
	}
}

func (c *Config) normalizeNullbr() {
	c.Nullbr.AppID = strings.TrimSpace(c.Nullbr.AppID)
	c.Nullbr.APIKey = strings.TrimSpace(c.Nullbr.APIKey)
	c.Nullbr.BaseURL = strings.TrimRight(strings.TrimSpace(c.Nullbr.BaseURL), "/")
	if c.Nullbr.BaseURL == "" {
		c.Nullbr.BaseURL = defaultNullbrBaseURL
	}
	if c.Nullbr.CacheTTL <= 0 {
		c.Nullbr.CacheTTL = defaultNullbrCacheTTL
	}
}

func (c *Config) normalizeQueue() {
	if c.Queue.MaxConcurrent <= 0 {
		c.Queue.MaxConcurrent = defaultQueueMaxConcurrent
	}
}

func (c *Config) normalizeCache() {
	if c.Cache.TTLMinutes <= 0 {
		c.Cache.TTLMinutes = defaultCacheTTLMinutes
	}
	if c.Cache.NegativeTTLMinutes <= 0 {
		c.Cache.NegativeTTLMinutes = defaultNegativeTTLMinutes
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
