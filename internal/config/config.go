// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

// Package config loads server configuration from a YAML file with
// command-line flag overrides.
package config

import (
	"os"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// SMS holds the out-of-band delivery gateway settings. When Enabled is
// false the server logs codes instead of sending them.
type SMS struct {
	Enabled    bool   `koanf:"enabled"`
	Endpoint   string `koanf:"endpoint"`
	AccountSID string `koanf:"account-sid"`
	AuthToken  string `koanf:"auth-token"`
	FromNumber string `koanf:"from-number"`
}

// Config holds all server configuration.
type Config struct {
	Listen      string `koanf:"listen"`
	MetricsAddr string `koanf:"metrics-addr"`
	DatabaseURL string `koanf:"database-url"`
	LogFormat   string `koanf:"log-format"`
	BcryptCost  int    `koanf:"bcrypt-cost"`
	TokenSecret string `koanf:"token-secret"`
	SMS         SMS    `koanf:"sms"`
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return oops.Code("CONFIG_INVALID").Errorf("listen address is required")
	}
	if c.DatabaseURL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("database URL is required (flag, config file, or DATABASE_URL)")
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return oops.Code("CONFIG_INVALID").Errorf("log-format must be 'json' or 'text', got %q", c.LogFormat)
	}
	if c.TokenSecret == "" {
		return oops.Code("CONFIG_INVALID").Errorf("token signing secret is required")
	}
	if c.SMS.Enabled {
		if c.SMS.Endpoint == "" || c.SMS.AccountSID == "" || c.SMS.AuthToken == "" || c.SMS.FromNumber == "" {
			return oops.Code("CONFIG_INVALID").Errorf("sms gateway settings are incomplete")
		}
	}
	return nil
}

// Load builds the configuration: flag defaults, then the YAML file at
// path (if non-empty), then explicit flag values on top. DATABASE_URL
// from the environment fills the database URL when nothing else set it.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").
				With("path", path).
				Wrap(err)
		}
	}

	if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").
			With("operation", "merge flags").
			Wrap(err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").
			With("operation", "unmarshal").
			Wrap(err)
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}

	return &cfg, nil
}
