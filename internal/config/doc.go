// Package config loads and validates Shelfmark configuration.
//
// Configuration lives in a TOML file (~/.config/shelfmark/config.toml by
// default, or ./shelfmark.toml in the working directory). Missing files fall
// back to repository defaults so read-only commands work out of the box;
// commands that need upstream credentials surface their absence per service
// rather than failing at load time.
package config
