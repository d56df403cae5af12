// SPDX-License-Identifier: Apache-2.0

// Package config loads the SDK client configuration by merging, in
// order of increasing priority: built-in defaults, an optional JSON
// file, and environment variables.
package config

import (
	"fmt"
	"net/url"
	"time"
)

// Config is the top-level client configuration.
//
// Struct tags:
//   - envPrefix — prefix applied to nested env lookups (caarlos0/env).
//   - env       — direct environment variable name for scalar fields.
type Config struct {
	// Server holds the sync server endpoint settings.
	Server Server `json:"server" envPrefix:"SERVER_"`

	// Cache holds the local encrypted cache settings.
	Cache Cache `json:"cache" envPrefix:"CACHE_"`

	// LogLevel is the zerolog level name (debug, info, warn, error).
	// Env: ETEBASE_LOG_LEVEL
	LogLevel string `json:"log_level" env:"LOG_LEVEL"`

	// JSONFilePath is the optional path of a JSON configuration file,
	// merged on top of defaults before env variables apply.
	// Env: ETEBASE_CONFIG
	JSONFilePath string `json:"-" env:"CONFIG"`
}

// Server holds the sync server endpoint settings.
type Server struct {
	// URL is the base URL of the sync server.
	// Env: ETEBASE_SERVER_URL
	URL string `json:"url" env:"URL"`

	// Timeout bounds every HTTP request.
	// Env: ETEBASE_SERVER_TIMEOUT
	Timeout time.Duration `json:"timeout" env:"TIMEOUT"`
}

// Cache holds the local encrypted cache settings.
type Cache struct {
	// Path is the sqlite database file, or ":memory:" for an ephemeral
	// cache.
	// Env: ETEBASE_CACHE_PATH
	Path string `json:"path" env:"PATH"`
}

// defaults returns the built-in configuration every merge starts from.
func defaults() *Config {
	return &Config{
		Server: Server{
			URL:     "http://localhost:8000",
			Timeout: 15 * time.Second,
		},
		Cache: Cache{
			Path: ":memory:",
		},
		LogLevel: "info",
	}
}

// validate rejects configurations the SDK cannot run with.
func (c *Config) validate() error {
	if c.Server.URL == "" {
		return fmt.Errorf("server url must not be empty")
	}
	if _, err := url.Parse(c.Server.URL); err != nil {
		return fmt.Errorf("server url: %w", err)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server timeout must be positive, got %s", c.Server.Timeout)
	}
	return nil
}
