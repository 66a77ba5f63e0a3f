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
//  1. defaults (New())
//  2. file (YAML) if ARCBOARD_CONFIG is set
//  3. env (prefix ARCBOARD_)
func Load(ctx context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("ARCBOARD_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	// Environment variables: ARCBOARD_ADDR, ARCBOARD_GATEWAY_URL, ...
	// Map env keys like ARCBOARD_GATEWAY_URL -> gateway_url (flat keys).
	// Underscores are preserved to match the koanf tags on the struct.
	envProvider := env.Provider("ARCBOARD_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "arcboard_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, err
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, err
	}

	// Basic validation
	if cfg.Addr == "" {
		return nil, fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if cfg.GatewayURL == "" {
		return nil, fmt.Errorf("%w: gateway_url must not be empty", ErrInvalidConfig)
	}
	if cfg.ProcessID == "" {
		return nil, fmt.Errorf("%w: process_id must not be empty", ErrInvalidConfig)
	}
	return &cfg, nil
}
