package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	CacheDir string `toml:"cache_dir"`
	LogDir   string `toml:"log_dir"`
}

// Emby contains connection settings for the user's Emby-compatible library
// server, authoritative for "do I already have this".
type Emby struct {
	Server string `toml:"server"`
	APIKey string `toml:"api_key"`
}

// TMDB contains configuration for The Movie Database API, used as the
// fallback catalog when the library has no match.
type TMDB struct {
	APIKey   string `toml:"api_key"`
	BaseURL  string `toml:"base_url"`
	Language string `toml:"language"`
}

// Bangumi contains configuration for the bangumi.tv subject search API.
type Bangumi struct {
	Token   string `toml:"token"`
	BaseURL string `toml:"base_url"`
}

// Nullbr contains configuration for the Nullbr resource availability API.
type Nullbr struct {
	AppID        string `toml:"app_id"`
	APIKey       string `toml:"api_key"`
	BaseURL      string `toml:"base_url"`
	UserAgent    string `toml:"user_agent"`
	Enable115    bool   `toml:"enable_115"`
	EnableMagnet bool   `toml:"enable_magnet"`
	CacheTTL     int    `toml:"cache_ttl_minutes"`
}

// Queue contains request scheduler settings.
type Queue struct {
	MaxConcurrent int `toml:"max_concurrent"`
}

// Cache contains result cache settings.
type Cache struct {
	TTLMinutes         int `toml:"ttl_minutes"`
	NegativeTTLMinutes int `toml:"negative_ttl_minutes"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for Shelfmark.
//
// Configuration sections by subsystem:
//   - Paths: cache database and log directories
//   - Emby: library server lookups
//   - TMDB: catalog fallback search
//   - Bangumi: community database search
//   - Nullbr: resource availability lookups
//   - Queue: request scheduler concurrency ceiling
//   - Cache: default and negative-result TTLs
//   - Logging: log format and level
type Config struct {
	Paths   Paths   `toml:"paths"`
	Emby    Emby    `toml:"emby"`
	TMDB    TMDB    `toml:"tmdb"`
	Bangumi Bangumi `toml:"bangumi"`
	Nullbr  Nullbr  `toml:"nullbr"`
	Queue   Queue   `toml:"queue"`
	Cache   Cache   `toml:"cache"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/shelfmark/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
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

	projectPath, err := filepath.Abs("shelfmark.toml")
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

// ExpandPath expands a leading ~ to the current user's home directory.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", nil
	}
	if trimmed == "~" || strings.HasPrefix(trimmed, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if trimmed == "~" {
			return home, nil
		}
		return filepath.Join(home, trimmed[2:]), nil
	}
	return filepath.Abs(trimmed)
}

// EnsureDirectories creates the cache and log directories if missing.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.CacheDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// CacheDatabasePath returns the location of the cache SQLite database.
func (c *Config) CacheDatabasePath() string {
	return filepath.Join(c.Paths.CacheDir, "cache.db")
}

// EmbyConfigured reports whether the library server credentials are present.
func (c *Config) EmbyConfigured() bool {
	return strings.TrimSpace(c.Emby.Server) != "" && strings.TrimSpace(c.Emby.APIKey) != ""
}

// CreateSample writes the embedded sample configuration to the target path.
func CreateSample(target string) error {
	if err := os.WriteFile(target, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
