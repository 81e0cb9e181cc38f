package config

import (
	"errors"
	"fmt"
	"strings"

	"srcset/internal/resizer"
	"srcset/internal/sizespec"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateStateCache(); err != nil {
		return err
	}
	if err := c.validateProfiles(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.MediaRoot) == "" {
		return errors.New("paths.media_root must be set")
	}
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		return errors.New("paths.cache_dir must be set")
	}
	if len(c.URLs.Statics) != len(c.Paths.StaticRoots) {
		return fmt.Errorf("urls.statics has %d entries for %d paths.static_roots; each static root needs a matching URL prefix",
			len(c.URLs.Statics), len(c.Paths.StaticRoots))
	}
	return nil
}

func (c *Config) validateStateCache() error {
	switch c.StateCache.Backend {
	case "sqlite":
		if strings.TrimSpace(c.StateCache.Path) == "" {
			return errors.New("state_cache.path must be set when state_cache.backend is sqlite")
		}
	case "redis":
		if strings.TrimSpace(c.StateCache.RedisAddr) == "" {
			return errors.New("state_cache.redis_addr must be set when state_cache.backend is redis")
		}
	default:
		return fmt.Errorf("state_cache.backend must be sqlite or redis, got %q", c.StateCache.Backend)
	}
	return nil
}

func (c *Config) validateProfiles() error {
	if _, ok := c.Profiles[defaultProfileKey]; !ok {
		return errors.New("profiles.default must be defined")
	}
	for name, p := range c.Profiles {
		if len(p.Breakpoints) == 0 {
			return fmt.Errorf("profiles.%s.breakpoints must include at least one width", name)
		}
		for _, bp := range p.Breakpoints {
			if bp <= 0 {
				return fmt.Errorf("profiles.%s.breakpoints must be positive, got %d", name, bp)
			}
		}
		for _, size := range p.Sizes {
			if _, err := sizespec.ParseSize(size); err != nil {
				return fmt.Errorf("profiles.%s.sizes: %w", name, err)
			}
		}
		if p.DefaultSize != "" {
			if _, err := sizespec.ParseSize(p.DefaultSize); err != nil {
				return fmt.Errorf("profiles.%s.default_size: %w", name, err)
			}
		}
		if p.MaxWidth < 0 {
			return fmt.Errorf("profiles.%s.max_width must be >= 0", name)
		}
		if p.Quality < 0 || p.Quality > 100 {
			return fmt.Errorf("profiles.%s.quality must be between 0 and 100", name)
		}
		if p.Format != "" && !resizer.SupportedFormat(p.Format) {
			return fmt.Errorf("profiles.%s.format %q is not an encodable format", name, p.Format)
		}
		if p.Threshold != nil && (*p.Threshold < 0 || *p.Threshold > 100) {
			return fmt.Errorf("profiles.%s.threshold must be between 0 and 100", name)
		}
		if p.Operation != "" && p.Operation != sizespec.DefaultOperation {
			return fmt.Errorf("profiles.%s.operation %q is not supported", name, p.Operation)
		}
	}
	if c.DefaultThreshold > 100 {
		return errors.New("default_threshold must be between 0 and 100")
	}
	return nil
}
