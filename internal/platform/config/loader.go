package config

import (
	"errors"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// listFields are the config keys holding string slices.
var listFields = map[string]bool{
	"admin_emails":  true,
	"kafka_brokers": true,
}

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if CAMPUSBOARD_CONFIG is set
//  3. env (prefix CAMPUSBOARD_)
func Load() (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("CAMPUSBOARD_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	// CAMPUSBOARD_SESSION_KEY -> session_key; underscores preserved to
	// match the koanf tags on the struct. List fields arrive as one
	// comma-separated value and are split here.
	envProvider := env.ProviderWithValue("CAMPUSBOARD_", ".", func(key, value string) (string, any) {
		key = strings.TrimPrefix(strings.ToLower(key), "campusboard_")
		if listFields[key] {
			parts := strings.Split(value, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			return key, parts
		}
		return key, value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, err
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, err
	}

	if cfg.Addr == "" {
		return nil, errors.New("addr must not be empty")
	}
	if cfg.SessionKey == "" {
		return nil, errors.New("session_key must not be empty")
	}
	return &cfg, nil
}
