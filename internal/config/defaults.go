package config

const (
	defaultOutputDir      = "~/dlsite"
	defaultCacheDir       = "~/.cache/quire"
	defaultLogDir         = "~/.local/share/quire/logs"
	defaultPlayBaseURL    = "https://play.dlsite.com"
	defaultDownloadURL    = "https://play.dl.dlsite.com"
	defaultCatalogBaseURL = "https://www.dlsite.com"
	defaultLocale         = "ja_JP"
	defaultRequestTimeout = 300
	defaultVariant        = "optimized"
	defaultImageFormat    = "png"
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
	defaultCachePath      = "~/.cache/quire/manifests.json"
	defaultLedgerPath     = "~/.local/share/quire/ledger.db"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
			CacheDir:  defaultCacheDir,
			LogDir:    defaultLogDir,
		},
		Play: Play{
			BaseURL:        defaultPlayBaseURL,
			DownloadURL:    defaultDownloadURL,
			RequestTimeout: defaultRequestTimeout,
		},
		Catalog: Catalog{
			BaseURL: defaultCatalogBaseURL,
			Locale:  defaultLocale,
		},
		Download: Download{
			Variant:     defaultVariant,
			ImageFormat: defaultImageFormat,
		},
		ManifestCache: ManifestCache{
			Enabled: true,
			Path:    defaultCachePath,
		},
		Ledger: Ledger{
			Enabled: true,
			Path:    defaultLedgerPath,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
