package config

import (
	"errors"
	"fmt"

	"golang.org/x/text/language"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validatePlay(); err != nil {
		return err
	}
	if err := c.validateCatalog(); err != nil {
		return err
	}
	if err := c.validateDownload(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.OutputDir == "" {
		return errors.New("paths.output_dir must be set")
	}
	return nil
}

func (c *Config) validatePlay() error {
	if c.Play.BaseURL == "" {
		return errors.New("play.base_url must be set")
	}
	if c.Play.RequestTimeout <= 0 {
		return errors.New("play.request_timeout must be positive")
	}
	return nil
}

func (c *Config) validateCatalog() error {
	if c.Catalog.Locale == "" {
		return nil
	}
	// Locales arrive in ja_JP form; the underscore is the vendor's, the
	// validator wants BCP 47.
	tag := c.Catalog.Locale
	for i := range tag {
		if tag[i] == '_' {
			tag = tag[:i] + "-" + tag[i+1:]
			break
		}
	}
	if _, err := language.Parse(tag); err != nil {
		return fmt.Errorf("catalog.locale %q is not a valid locale: %w", c.Catalog.Locale, err)
	}
	return nil
}

func (c *Config) validateDownload() error {
	switch c.Download.Variant {
	case "optimized", "files":
	default:
		return fmt.Errorf("download.variant must be %q or %q", "optimized", "files")
	}
	switch c.Download.ImageFormat {
	case "png", "jpg", "jpeg":
	default:
		return fmt.Errorf("download.image_format must be png or jpg, got %q", c.Download.ImageFormat)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}
