package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"quire/internal/config"
	"quire/internal/download"
	"quire/internal/ledger"
	"quire/internal/logging"
	"quire/internal/manifest"
	"quire/internal/play"
	"quire/internal/workcache"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
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

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		outputs := []string{"stderr"}
		if cfg.Paths.LogDir != "" {
			outputs = append(outputs, filepath.Join(cfg.Paths.LogDir, "quire.log"))
		}
		c.logger, c.loggerErr = logging.New(logging.Options{
			Level:       cfg.Logging.Level,
			Format:      cfg.Logging.Format,
			OutputPaths: outputs,
		})
	})
	return c.logger, c.loggerErr
}

// playClient builds a Play API client whose HTTP transport carries the
// session cookies from the configured cookie file.
func (c *commandContext) playClient() (*play.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	jar, err := loadCookieJar(cfg.Play.CookieFile)
	if err != nil {
		return nil, fmt.Errorf("load cookies: %w", err)
	}
	httpClient := &http.Client{
		Jar:     jar,
		Timeout: time.Duration(cfg.Play.RequestTimeout) * time.Second,
	}
	return play.NewClient(cfg.Play.BaseURL, httpClient, logger), nil
}

func (c *commandContext) manifestCache() (*workcache.Cache, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	path := ""
	if cfg.ManifestCache.Enabled {
		path = cfg.ManifestCache.Path
	}
	return workcache.New(path, logger), nil
}

// ledgerStore opens the download history database, or returns nil when the
// ledger is disabled.
func (c *commandContext) ledgerStore(ctx context.Context) (*ledger.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.Ledger.Enabled || cfg.Ledger.Path == "" {
		return nil, nil
	}
	return ledger.Open(ctx, cfg.Ledger.Path)
}

func (c *commandContext) downloader(ctx context.Context) (*download.Downloader, *play.Client, *ledger.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, nil, nil, err
	}
	client, err := c.playClient()
	if err != nil {
		return nil, nil, nil, err
	}
	store, err := c.ledgerStore(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	return download.New(cfg, client, store, logger), client, store, nil
}

// resolveTree returns the manifest for a workno, consulting the manifest
// cache before touching the network. The returned token is zero when the
// tree came from the cache.
func (c *commandContext) resolveTree(ctx context.Context, workno string, refresh bool) (*manifest.Tree, play.Token, error) {
	cache, err := c.manifestCache()
	if err != nil {
		return nil, play.Token{}, err
	}
	if !refresh {
		if entry, ok := cache.Lookup(workno); ok {
			tree, err := manifest.Parse(entry.Payload)
			if err == nil {
				return tree, play.Token{}, nil
			}
			// A stale or corrupt entry falls through to a fresh fetch.
			_ = cache.Remove(workno)
		}
	}

	client, err := c.playClient()
	if err != nil {
		return nil, play.Token{}, err
	}
	if err := client.Authorize(ctx); err != nil {
		return nil, play.Token{}, err
	}
	token, err := client.DownloadToken(ctx, workno)
	if err != nil {
		return nil, play.Token{}, err
	}

	body, err := client.FetchFile(ctx, token, "ziptree.json")
	if err != nil {
		return nil, play.Token{}, err
	}
	defer body.Close()
	payload, err := io.ReadAll(body)
	if err != nil {
		return nil, play.Token{}, fmt.Errorf("read ziptree: %w", err)
	}

	tree, err := manifest.Parse(payload)
	if err != nil {
		return nil, play.Token{}, err
	}
	if err := cache.Store(workcache.Entry{Workno: workno, Payload: payload, Revision: tree.Revision}); err != nil {
		logger, lerr := c.ensureLogger()
		if lerr == nil {
			logger.Warn("failed to cache manifest", logging.Error(err))
		}
	}
	return tree, token, nil
}
