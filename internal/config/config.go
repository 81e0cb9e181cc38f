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

	"srcset/internal/sizespec"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains filesystem roots.
type Paths struct {
	MediaRoot   string   `toml:"media_root"`
	StaticRoots []string `toml:"static_roots"`
	CacheDir    string   `toml:"cache_dir"`
	LogDir      string   `toml:"log_dir"`
	GCLock      string   `toml:"gc_lock"`
}

// URLs contains the public URL prefixes matching the filesystem roots.
type URLs struct {
	Media   string   `toml:"media"`
	Statics []string `toml:"statics"`
	Cache   string   `toml:"cache"`
}

// StateCache selects and configures the variant state backend.
type StateCache struct {
	Backend       string `toml:"backend"`
	Path          string `toml:"path"`
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
	// Prefix namespaces every redis key, e.g. per site sharing one
	// database. The sqlite backend ignores it.
	Prefix string `toml:"prefix"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Profile is one named generation profile as it appears in TOML.
// Threshold uses a pointer because zero is a meaningful value.
type Profile struct {
	Breakpoints []int    `toml:"breakpoints"`
	Sizes       []string `toml:"sizes"`
	MaxWidth    int      `toml:"max_width"`
	Quality     int      `toml:"quality"`
	Format      string   `toml:"format"`
	Threshold   *int     `toml:"threshold"`
	DefaultSize string   `toml:"default_size"`
	Operation   string   `toml:"operation"`
}

// Config encapsulates all configuration values for srcset.
//
// Configuration sections by subsystem:
//   - Paths: source roots, the variant cache directory, logs, the gc lock
//   - URLs: public prefixes matching each root
//   - StateCache: sqlite or redis variant state backend
//   - Logging: log format and level
//   - Profiles: named breakpoint/quality/format presets
type Config struct {
	Enabled          bool               `toml:"enabled"`
	DefaultThreshold int                `toml:"default_threshold"`
	Paths            Paths              `toml:"paths"`
	URLs             URLs               `toml:"urls"`
	StateCache       StateCache         `toml:"state_cache"`
	Logging          Logging            `toml:"logging"`
	Profiles         map[string]Profile `toml:"profiles"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/srcset/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
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

	projectPath, err := filepath.Abs("srcset.toml")
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

// EnsureDirectories creates required directories. The media root is created
// on a best-effort basis so read-only setups keep working.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.CacheDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Paths.MediaRoot) != "" {
		_ = os.MkdirAll(c.Paths.MediaRoot, 0o755)
	}
	if dir := filepath.Dir(c.Paths.GCLock); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// ProfileTable converts the TOML profile map into resolver profiles.
func (c *Config) ProfileTable() map[string]sizespec.Profile {
	table := make(map[string]sizespec.Profile, len(c.Profiles))
	for name, p := range c.Profiles {
		threshold := -1
		if p.Threshold != nil {
			threshold = *p.Threshold
		}
		table[name] = sizespec.Profile{
			Breakpoints: p.Breakpoints,
			Sizes:       p.Sizes,
			MaxWidth:    p.MaxWidth,
			Quality:     p.Quality,
			Format:      p.Format,
			Threshold:   threshold,
			DefaultSize: p.DefaultSize,
			Operation:   p.Operation,
		}
	}
	return table
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	sample := sampleConfig

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
