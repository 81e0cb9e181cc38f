package config

const (
	defaultMediaRoot  = "~/media"
	defaultCacheDir   = "~/media/srcset"
	defaultLogDir     = "~/.local/share/srcset/logs"
	defaultGCLock     = "~/.local/share/srcset/gc.lock"
	defaultMediaURL   = "/media/"
	defaultCacheURL   = "/media/srcset/"
	defaultStatePath  = "~/.local/share/srcset/state.db"
	defaultRedisAddr  = "localhost:6379"
	defaultLogFormat  = "console"
	defaultLogLevel   = "info"
	defaultThreshold  = 69
	defaultProfileKey = "default"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Enabled:          true,
		DefaultThreshold: defaultThreshold,
		Paths: Paths{
			MediaRoot: defaultMediaRoot,
			CacheDir:  defaultCacheDir,
			LogDir:    defaultLogDir,
			GCLock:    defaultGCLock,
		},
		URLs: URLs{
			Media: defaultMediaURL,
			Cache: defaultCacheURL,
		},
		StateCache: StateCache{
			Backend:   "sqlite",
			Path:      defaultStatePath,
			RedisAddr: defaultRedisAddr,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Profiles: map[string]Profile{
			defaultProfileKey: {
				Breakpoints: []int{1920, 1024, 640},
			},
		},
	}
}
