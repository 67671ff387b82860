// chrisrodz.io - Personal Site, Blog, and Coffee Tracker Backend
// Copyright 2026 Christian Rodriguez (chrisrodz)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/chrisrodz/chrisrodz.io

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths searched for a config file, in order.
// The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/chrisrodz/config.yaml",
	"/etc/chrisrodz/config.yml",
}

// ConfigPathEnvVar overrides the config file search when set.
const ConfigPathEnvVar = "CHRISRODZ_CONFIG_PATH"

// envPrefix is stripped from environment variables before mapping.
const envPrefix = "CHRISRODZ_"

// Load builds the configuration from layered sources, lowest priority first:
//
//  1. Built-in defaults
//  2. Optional YAML config file
//  3. CHRISRODZ_-prefixed environment variables
func Load() (*Config, error) {
	return loadFrom(findConfigFile())
}

// loadFrom is Load with an explicit config file path, for tests.
// An empty path skips the file layer.
func loadFrom(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("config: failed to load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: failed to load file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("config: failed to load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks struct constraints plus the admin secret encoding.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("config: validation failed: %w", err)
	}
	if (c.Session.Backend == "badger" || c.Session.Backend == "sqlite") && c.Session.Path == "" {
		return fmt.Errorf("config: session.path is required for backend %q", c.Session.Backend)
	}
	return c.validateSecrets()
}

// findConfigFile returns the first existing config file path, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envMappings maps stripped, lowercased environment variable names to config
// paths. Unmapped variables are ignored so unrelated CHRISRODZ_ variables
// cannot pollute the config.
var envMappings = map[string]string{
	"server_addr":         "server.addr",
	"server_production":   "server.production",
	"server_cors_origins": "server.corsorigins",

	"session_backend": "session.backend",
	"session_path":    "session.path",

	"admin_password_hash": "admin.passwordhash",
	"admin_salt":          "admin.salt",

	"ratelimit_max_attempts": "ratelimit.maxattempts",
	"ratelimit_window":       "ratelimit.window",
	"ratelimit_cooldown":     "ratelimit.cooldown",

	"security_storage_url": "security.storageurl",

	"github_token":    "github.token",
	"github_username": "github.username",

	"coffee_db_path": "coffee.dbpath",

	"log_level":  "log.level",
	"log_format": "log.format",
}

// envTransformFunc maps a full environment variable name to a config path.
// Returning "" skips the variable.
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
	if mapped, ok := envMappings[key]; ok {
		return mapped
	}
	return ""
}
