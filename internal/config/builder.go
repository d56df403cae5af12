// SPDX-License-Identifier: Apache-2.0

package config

import (
	"encoding/json"
	"fmt"
	"os"

	"dario.cat/mergo"
	"github.com/caarlos0/env/v11"
)

// Load assembles the effective configuration: defaults, then the JSON
// file (when configured), then environment variables. Later layers win.
func Load() (*Config, error) {
	cfg := defaults()

	// Env is parsed twice: once up front so ETEBASE_CONFIG can point at
	// the JSON file, and once at the end so env values override it.
	probe := &Config{}
	if err := parseEnv(probe); err != nil {
		return nil, err
	}

	if probe.JSONFilePath != "" {
		fileCfg, err := parseJSONFile(probe.JSONFilePath)
		if err != nil {
			return nil, err
		}
		if err := mergo.Merge(cfg, fileCfg, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("merge json config: %w", err)
		}
	}

	if err := mergo.Merge(cfg, probe, mergo.WithOverride); err != nil {
		return nil, fmt.Errorf("merge env config: %w", err)
	}

	return cfg, cfg.validate()
}

// parseEnv populates cfg from ETEBASE_-prefixed environment variables.
func parseEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: "ETEBASE_"}); err != nil {
		return fmt.Errorf("parse env config: %w", err)
	}
	return nil
}

// parseJSONFile reads and decodes a JSON configuration file.
func parseJSONFile(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	cfg := &Config{}
	if err := json.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("decode config file %s: %w", path, err)
	}
	return cfg, nil
}
