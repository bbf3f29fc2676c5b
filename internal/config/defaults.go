package config

const (
	defaultCacheDir           = "~/.local/share/shelfmark/cache"
	defaultLogDir             = "~/.local/share/shelfmark/logs"
	defaultTMDBBaseURL        = "https://api.themoviedb.org/3"
	defaultTMDBLanguage       = "zh-CN"
	defaultBangumiBaseURL     = "https://api.bgm.tv"
	defaultNullbrBaseURL      = "https://api.nullbr.eu.org"
	defaultNullbrCacheTTL     = 1440
	defaultQueueMaxConcurrent = 6
	defaultCacheTTLMinutes    = 1440
	defaultNegativeTTLMinutes = 60
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			CacheDir: defaultCacheDir,
			LogDir:   defaultLogDir,
		},
		TMDB: TMDB{
			BaseURL:  defaultTMDBBaseURL,
			Language: defaultTMDBLanguage,
		},
		Bangumi: Bangumi{
			BaseURL: defaultBangumiBaseURL,
		},
		Nullbr: Nullbr{
			BaseURL:   defaultNullbrBaseURL,
			Enable115: true,
			CacheTTL:  defaultNullbrCacheTTL,
		},
		Queue: Queue{
			MaxConcurrent: defaultQueueMaxConcurrent,
		},
		Cache: Cache{
			TTLMinutes:         defaultCacheTTLMinutes,
			NegativeTTLMinutes: defaultNegativeTTLMinutes,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
