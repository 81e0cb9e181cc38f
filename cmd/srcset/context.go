package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"srcset/internal/api"
	"srcset/internal/blobstore"
	"srcset/internal/config"
	"srcset/internal/gc"
	"srcset/internal/logging"
	"srcset/internal/resizer"
	"srcset/internal/sources"
	"srcset/internal/statecache"
	"srcset/internal/variantcache"
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

// runtime bundles the wired pipeline for one command invocation. Close
// releases the state-cache connection.
type runtime struct {
	cfg      *config.Config
	provider *sources.Provider
	cache    *blobstore.FileStore
	state    statecache.Cache
	service  *api.Service
	sweeper  *gc.Sweeper
	logger   *slog.Logger
}

func (c *commandContext) openRuntime(ctx context.Context) (*runtime, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		return nil, err
	}

	media := blobstore.NewFileStore(cfg.Paths.MediaRoot, cfg.URLs.Media)
	statics := make([]blobstore.Store, 0, len(cfg.Paths.StaticRoots))
	for i, root := range cfg.Paths.StaticRoots {
		statics = append(statics, blobstore.NewFileStore(root, cfg.URLs.Statics[i]))
	}
	cache := blobstore.NewFileStore(cfg.Paths.CacheDir, cfg.URLs.Cache)

	state, err := openStateCache(ctx, cfg)
	if err != nil {
		return nil, err
	}

	provider := sources.NewProvider(media, statics)
	coordinator := variantcache.New(cache, state, resizer.New(), logger)
	service := api.NewService(provider, coordinator, cfg.ProfileTable(), cfg.DefaultThreshold, cfg.Enabled, logger)

	sweeper := gc.NewSweeper(cache, provider.Stores(), state, logger)
	sweeper.LockPath = cfg.Paths.GCLock

	return &runtime{
		cfg:      cfg,
		provider: provider,
		cache:    cache,
		state:    state,
		service:  service,
		sweeper:  sweeper,
		logger:   logger,
	}, nil
}

func (r *runtime) Close() error {
	if r == nil || r.state == nil {
		return nil
	}
	return r.state.Close()
}

func openStateCache(ctx context.Context, cfg *config.Config) (statecache.Cache, error) {
	switch cfg.StateCache.Backend {
	case "redis":
		return statecache.OpenRedis(ctx, statecache.RedisOptions{
			Addr:      cfg.StateCache.RedisAddr,
			Password:  cfg.StateCache.RedisPassword,
			DB:        cfg.StateCache.RedisDB,
			KeyPrefix: cfg.StateCache.Prefix,
		})
	case "sqlite":
		return statecache.OpenSQLite(cfg.StateCache.Path)
	default:
		return nil, fmt.Errorf("unsupported state cache backend %q", cfg.StateCache.Backend)
	}
}
