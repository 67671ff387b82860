// chrisrodz.io - Personal Site, Blog, and Coffee Tracker Backend
// Copyright 2026 Christian Rodriguez (chrisrodz)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/chrisrodz/chrisrodz.io

// Package config loads and validates backend configuration via Koanf v2 with
// layered sources (highest priority wins): environment variables, an optional
// YAML config file, and built-in defaults.
//
// Environment variables use the CHRISRODZ_ prefix with _ as the section
// separator, e.g. CHRISRODZ_SERVER_ADDR or CHRISRODZ_RATELIMIT_MAXATTEMPTS.
//
// Malformed configuration is a startup error. This is the only place in the
// backend where invalid input surfaces as an error instead of a fail-closed
// sentinel; everything downstream assumes a vetted Config.
package config

import (
	"encoding/hex"
	"fmt"
	"time"
)

// Config is the root configuration for the backend.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Session   SessionConfig   `koanf:"session"`
	Admin     AdminConfig     `koanf:"admin"`
	RateLimit RateLimitConfig `koanf:"ratelimit"`
	Security  SecurityConfig  `koanf:"security"`
	GitHub    GitHubConfig    `koanf:"github"`
	Coffee    CoffeeConfig    `koanf:"coffee"`
	Log       LogConfig       `koanf:"log"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	// Addr is the listen address.
	Addr string `koanf:"addr" validate:"required"`

	// Production toggles production behavior such as Secure cookies.
	Production bool `koanf:"production"`

	// CORSOrigins lists allowed cross-origin request origins. Empty
	// denies all cross-origin requests.
	CORSOrigins []string `koanf:"corsorigins"`
}

// SessionConfig selects and locates the session persistence backend.
type SessionConfig struct {
	// Backend is one of: memory, badger, sqlite, none.
	// "none" runs without session persistence; every auth operation then
	// degrades to its unauthenticated result.
	Backend string `koanf:"backend" validate:"oneof=memory badger sqlite none"`

	// Path is the on-disk location for badger (directory) or sqlite (file).
	Path string `koanf:"path"`
}

// AdminConfig carries the out-of-band admin credential secrets.
// Both values are hex encoded; absence of either disables admin login.
type AdminConfig struct {
	PasswordHash string `koanf:"passwordhash"`
	Salt         string `koanf:"salt"`
}

// RateLimitConfig tunes the login failure limiter.
type RateLimitConfig struct {
	MaxAttempts int           `koanf:"maxattempts" validate:"min=1"`
	Window      time.Duration `koanf:"window" validate:"min=1s"`
	Cooldown    time.Duration `koanf:"cooldown" validate:"min=1s"`
}

// SecurityConfig feeds the security-header builder.
type SecurityConfig struct {
	// StorageURL is the hosted storage provider project URL, added to the
	// CSP connect-src when present.
	StorageURL string `koanf:"storageurl" validate:"omitempty,url"`
}

// GitHubConfig configures the contribution-calendar client.
type GitHubConfig struct {
	Token    string `koanf:"token"`
	Username string `koanf:"username"`
}

// CoffeeConfig locates the brew log database.
type CoffeeConfig struct {
	DBPath string `koanf:"dbpath" validate:"required"`
}

// LogConfig controls logging output.
type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
}

// defaultConfig returns the built-in defaults, applied before file and env
// overrides.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:       ":8080",
			Production: false,
		},
		Session: SessionConfig{
			Backend: "sqlite",
			Path:    "data/sessions.db",
		},
		RateLimit: RateLimitConfig{
			MaxAttempts: 5,
			Window:      5 * time.Minute,
			Cooldown:    15 * time.Minute,
		},
		Coffee: CoffeeConfig{
			DBPath: "data/brews.db",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// validateSecrets rejects admin secrets that cannot possibly verify: present
// but not hex, or a hash that decodes to nothing. Missing secrets are legal
// (admin login is simply disabled).
func (c *Config) validateSecrets() error {
	if c.Admin.PasswordHash == "" && c.Admin.Salt == "" {
		return nil
	}
	if c.Admin.PasswordHash == "" || c.Admin.Salt == "" {
		return fmt.Errorf("config: admin passwordhash and salt must be set together")
	}

	decoded, err := hex.DecodeString(c.Admin.PasswordHash)
	if err != nil {
		return fmt.Errorf("config: admin passwordhash is not valid hex: %w", err)
	}
	if len(decoded) == 0 {
		return fmt.Errorf("config: admin passwordhash is empty")
	}
	if _, err := hex.DecodeString(c.Admin.Salt); err != nil {
		return fmt.Errorf("config: admin salt is not valid hex: %w", err)
	}
	return nil
}
