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
	c.normalizeURLs()
	if err := c.normalizeStateCache(); err != nil {
		return err
	}
	c.normalizeProfiles()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.MediaRoot, err = expandPath(c.Paths.MediaRoot); err != nil {
		return fmt.Errorf("paths.media_root: %w", err)
	}
	for i, root := range c.Paths.StaticRoots {
		if c.Paths.StaticRoots[i], err = expandPath(root); err != nil {
			return fmt.Errorf("paths.static_roots[%d]: %w", i, err)
		}
	}
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
	if strings.TrimSpace(c.Paths.GCLock) == "" {
		c.Paths.GCLock = defaultGCLock
	}
	if c.Paths.GCLock, err = expandPath(c.Paths.GCLock); err != nil {
		return fmt.Errorf("paths.gc_lock: %w", err)
	}
	return nil
}

func (c *Config) normalizeURLs() {
	c.URLs.Media = normalizeURLPrefix(c.URLs.Media, defaultMediaURL)
	c.URLs.Cache = normalizeURLPrefix(c.URLs.Cache, defaultCacheURL)
	for i, u := range c.URLs.Statics {
		c.URLs.Statics[i] = normalizeURLPrefix(u, "")
	}
}

// normalizeURLPrefix trims whitespace and guarantees a trailing slash so
// joining a relative path never glues two segments together.
func normalizeURLPrefix(u, fallback string) string {
	u = strings.TrimSpace(u)
	if u == "" {
		return fallback
	}
	if !strings.HasSuffix(u, "/") {
		u += "/"
	}
	return u
}

func (c *Config) normalizeStateCache() error {
	c.StateCache.Backend = strings.ToLower(strings.TrimSpace(c.StateCache.Backend))
	if c.StateCache.Backend == "" {
		c.StateCache.Backend = "sqlite"
	}
	if strings.TrimSpace(c.StateCache.Path) == "" {
		c.StateCache.Path = defaultStatePath
	}
	var err error
	if c.StateCache.Path, err = expandPath(c.StateCache.Path); err != nil {
		return fmt.Errorf("state_cache.path: %w", err)
	}
	c.StateCache.RedisAddr = strings.TrimSpace(c.StateCache.RedisAddr)
	if c.StateCache.RedisAddr == "" {
		c.StateCache.RedisAddr = defaultRedisAddr
	}
	c.StateCache.Prefix = strings.TrimSpace(c.StateCache.Prefix)
	if c.StateCache.RedisPassword == "" {
		if value, ok := os.LookupEnv("SRCSET_REDIS_PASSWORD"); ok {
			c.StateCache.RedisPassword = strings.TrimSpace(value)
		}
	}
	return nil
}

func (c *Config) normalizeProfiles() {
	if c.DefaultThreshold < 0 {
		c.DefaultThreshold = defaultThreshold
	}
	if len(c.Profiles) == 0 {
		c.Profiles = Default().Profiles
	}
	for name, p := range c.Profiles {
		p.Format = strings.ToLower(strings.TrimSpace(p.Format))
		p.Operation = strings.ToLower(strings.TrimSpace(p.Operation))
		p.DefaultSize = strings.TrimSpace(p.DefaultSize)
		c.Profiles[name] = p
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
}
