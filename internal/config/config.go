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
	OutputDir string `toml:"output_dir"`
	CacheDir  string `toml:"cache_dir"`
	LogDir    string `toml:"log_dir"`
}

// Play contains configuration for the DLsite Play API.
type Play struct {
	BaseURL        string `toml:"base_url"`
	DownloadURL    string `toml:"download_url"`
	RequestTimeout int    `toml:"request_timeout"`
	CookieFile     string `toml:"cookie_file"`
}

// Catalog contains configuration for the public product-info API.
type Catalog struct {
	BaseURL string `toml:"base_url"`
	Locale  string `toml:"locale"`
}

// Download contains configuration for variant selection and image output.
type Download struct {
	Variant           string `toml:"variant"`
	ImageFormat       string `toml:"image_format"`
	OverwriteExisting bool   `toml:"overwrite_existing"`
}

// ManifestCache contains configuration for the on-disk manifest cache.
type ManifestCache struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Ledger contains configuration for the download history database.
type Ledger struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config is the root quire configuration.
type Config struct {
	Paths         Paths         `toml:"paths"`
	Play          Play          `toml:"play"`
	Catalog       Catalog       `toml:"catalog"`
	Download      Download      `toml:"download"`
	ManifestCache ManifestCache `toml:"manifest_cache"`
	Ledger        Ledger        `toml:"ledger"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the location quire reads when no --config flag is
// provided.
func DefaultConfigPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(base, "quire", "config.toml"), nil
}

// Load reads the configuration at path (or the default location when path is
// empty), applies defaults, and validates the result. The returned bool
// reports whether a config file existed.
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

// WriteSample writes the embedded sample configuration to path, creating
// parent directories as needed. It refuses to overwrite an existing file.
func WriteSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config already exists at %s", expanded)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(expanded, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// EnsureDirectories creates the output, cache, and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutputDir, c.Paths.CacheDir, c.Paths.LogDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

func (c *Config) normalize() error {
	var err error
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return err
	}
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return err
	}
	if c.ManifestCache.Path, err = expandPath(c.ManifestCache.Path); err != nil {
		return err
	}
	if c.Ledger.Path, err = expandPath(c.Ledger.Path); err != nil {
		return err
	}
	if c.Play.CookieFile, err = expandPath(c.Play.CookieFile); err != nil {
		return err
	}
	c.Play.BaseURL = strings.TrimRight(strings.TrimSpace(c.Play.BaseURL), "/")
	c.Play.DownloadURL = strings.TrimRight(strings.TrimSpace(c.Play.DownloadURL), "/")
	c.Catalog.BaseURL = strings.TrimRight(strings.TrimSpace(c.Catalog.BaseURL), "/")
	c.Download.Variant = strings.TrimSpace(c.Download.Variant)
	c.Download.ImageFormat = strings.ToLower(strings.TrimSpace(c.Download.ImageFormat))
	return nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
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
	if _, err := os.Stat(defaultPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return defaultPath, false, nil
		}
		return "", false, fmt.Errorf("stat config: %w", err)
	}
	return defaultPath, true, nil
}

func expandPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" || !strings.HasPrefix(path, "~") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~/")), nil
}
