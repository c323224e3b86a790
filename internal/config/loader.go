package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. file (YAML) if PODIUM_CONFIG is set
//  3. env (prefix PODIUM_)
func Load(ctx context.Context) (*Config, error) {
	base := New(ctx)

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("PODIUM_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: PODIUM_ADDR, PODIUM_TOP_N, ...
	// Map env keys like PODIUM_TOP_N -> top_n (flat keys).
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("PODIUM_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "podium_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.CertFile == "" || c.KeyFile == "":
		return fmt.Errorf("%w: cert_file and key_file must not be empty", ErrInvalidConfig)
	case c.TopN <= 0:
		return fmt.Errorf("%w: top_n must be positive", ErrInvalidConfig)
	case c.ReadBufferSize <= 0:
		return fmt.Errorf("%w: read_buffer_size must be positive", ErrInvalidConfig)
	case c.MinTLSVersion != "1.2" && c.MinTLSVersion != "1.3":
		return fmt.Errorf("%w: min_tls_version must be 1.2 or 1.3", ErrInvalidConfig)
	}
	return nil
}
