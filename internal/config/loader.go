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
//  2. file (YAML) if HOTLAP_CONFIG is set
//  3. env (prefix HOTLAP_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("HOTLAP_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: HOTLAP_ADDR, HOTLAP_DATA_DIR, ...
	// Keys map to the koanf tags on the struct, underscores preserved.
	envProvider := env.Provider("HOTLAP_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "hotlap_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	switch {
	case cfg.Addr == "":
		return nil, fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case cfg.RecordsFile == "":
		return nil, fmt.Errorf("%w: records_file must not be empty", ErrInvalidConfig)
	case cfg.GhostExt == "":
		return nil, fmt.Errorf("%w: ghost_ext must not be empty", ErrInvalidConfig)
	case cfg.UseS3() && cfg.S3Bucket == "":
		return nil, fmt.Errorf("%w: s3_bucket must not be empty when s3 is configured", ErrInvalidConfig)
	}
	return &cfg, nil
}
