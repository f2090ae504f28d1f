// Package config loads and validates the quire TOML configuration.
package config
