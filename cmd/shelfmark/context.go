package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"shelfmark/internal/cachestore"
	"shelfmark/internal/config"
	"shelfmark/internal/logging"
	"shelfmark/internal/resolver"
	"shelfmark/internal/scheduler"
	"shelfmark/internal/services/bangumi"
	"shelfmark/internal/services/emby"
	"shelfmark/internal/services/nullbr"
	"shelfmark/internal/services/tmdb"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// app bundles the wired service clients behind one cache and scheduler.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	backend  *cachestore.SQLiteBackend
	cache    *cachestore.Store
	queue    *scheduler.Scheduler
	library  *emby.Client
	catalog  *tmdb.Client
	bangumi  *bangumi.Client
	nullbr   *nullbr.Client
	resolver *resolver.Resolver
}

func (c *commandContext) openApp() (*app, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	backend, err := cachestore.OpenSQLite(cfg.CacheDatabasePath())
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}

	cache := cachestore.New(backend, logger)
	queue := scheduler.New(cfg.Queue.MaxConcurrent, logger)

	library := emby.New(cfg.Emby.Server, cfg.Emby.APIKey, cache, queue, logger)
	catalog := tmdb.New(cfg.TMDB.APIKey, cfg.TMDB.BaseURL, cfg.TMDB.Language, cache, queue, logger)

	return &app{
		cfg:     cfg,
		logger:  logger,
		backend: backend,
		cache:   cache,
		queue:   queue,
		library: library,
		catalog: catalog,
		bangumi: bangumi.New(cfg.Bangumi.Token, cfg.Bangumi.BaseURL, cache, queue, logger),
		nullbr: nullbr.New(nullbr.Settings{
			AppID:        cfg.Nullbr.AppID,
			APIKey:       cfg.Nullbr.APIKey,
			BaseURL:      cfg.Nullbr.BaseURL,
			UserAgent:    cfg.Nullbr.UserAgent,
			Enable115:    cfg.Nullbr.Enable115,
			EnableMagnet: cfg.Nullbr.EnableMagnet,
			CacheTTL:     cfg.Nullbr.CacheTTL,
		}, cache, queue, logger),
		resolver: resolver.New(library, catalog, logger),
	}, nil
}

func (a *app) Close() {
	if a.backend != nil {
		if err := a.backend.Close(); err != nil {
			a.logger.Warn("close cache database", logging.Error(err))
		}
	}
}

// maintenanceLockPath is the flock target guarding destructive cache work.
func (a *app) maintenanceLockPath() string {
	return filepath.Join(a.cfg.Paths.CacheDir, "cache.lock")
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
