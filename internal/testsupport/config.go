// Package testsupport provides helpers shared by package tests.
package testsupport

import (
	"path/filepath"
	"testing"

	"quire/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.OutputDir = filepath.Join(base, "output")
	cfgVal.Paths.CacheDir = filepath.Join(base, "cache")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.ManifestCache.Path = filepath.Join(base, "cache", "manifests.json")
	cfgVal.Ledger.Path = filepath.Join(base, "cache", "ledger.db")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithVariant overrides the download variant on the test config.
func WithVariant(variant string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Download.Variant = variant
	}
}

// WithImageFormat overrides the descrambled image output format.
func WithImageFormat(format string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Download.ImageFormat = format
	}
}

// WithBaseURLs points the play and catalog clients at test servers.
func WithBaseURLs(play, catalog string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Play.BaseURL = play
		b.cfg.Play.DownloadURL = play
		b.cfg.Catalog.BaseURL = catalog
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.OutputDir)
}
