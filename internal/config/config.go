// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

// Package config loads Gatewarden configuration. Values are layered:
// built-in defaults, then an optional YAML file, then command-line
// flags. DATABASE_URL in the environment beats the file but not an
// explicit flag.
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

// Session backend names accepted by auth.session_backend.
const (
	BackendMemory = "memory"
	BackendStore  = "store"
)

// Config is the full Gatewarden configuration.
type Config struct {
	Database struct {
		URL string `koanf:"url"`
	} `koanf:"database"`

	Observability struct {
		Addr string `koanf:"addr"`
	} `koanf:"observability"`

	Logging struct {
		Format       string   `koanf:"format"`
		RedactFields []string `koanf:"redact_fields"`
	} `koanf:"logging"`

	Auth struct {
		SessionBackend string `koanf:"session_backend"`
	} `koanf:"auth"`
}

// defaults returns a koanf instance pre-loaded with built-in values.
func defaults() *koanf.Koanf {
	k := koanf.New(".")
	_ = k.Set("observability.addr", "127.0.0.1:9100") //nolint:errcheck // static keys cannot fail
	_ = k.Set("logging.format", "json")               //nolint:errcheck
	_ = k.Set("auth.session_backend", BackendStore)   //nolint:errcheck
	return k
}

// Load reads configuration from path (skipped when empty or missing)
// and overlays the given flag set (may be nil).
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := defaults()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, oops.Code("CONFIG_PARSE_FAILED").
					With("path", path).
					Wrap(err)
			}
		}
	}

	if url := os.Getenv("DATABASE_URL"); url != "" {
		_ = k.Set("database.url", url) //nolint:errcheck // static key cannot fail
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, oops.Code("CONFIG_FLAGS_FAILED").Wrap(err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_UNMARSHAL_FAILED").Wrap(err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate rejects values that would only fail later and further from
// their cause.
func (c *Config) validate() error {
	switch c.Auth.SessionBackend {
	case BackendMemory, BackendStore:
	default:
		return oops.Code("CONFIG_INVALID").
			With("auth.session_backend", c.Auth.SessionBackend).
			Errorf("session backend must be %q or %q", BackendMemory, BackendStore)
	}

	switch c.Logging.Format {
	case "json", "text":
	default:
		return oops.Code("CONFIG_INVALID").
			With("logging.format", c.Logging.Format).
			Errorf("log format must be \"json\" or \"text\"")
	}

	return nil
}
