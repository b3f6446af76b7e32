package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/meenmo/bondval/calendar"
	"github.com/meenmo/bondval/curve"
	"github.com/meenmo/bondval/report"
	"github.com/meenmo/bondval/utils"
	"github.com/meenmo/bondval/valuation"
)

const (
	// EnvPrefix prefixes every environment override, e.g. BONDVAL_INPUT_FILE.
	EnvPrefix = "BONDVAL_"
	// EnvConfigFile names a YAML file to load when no explicit path is given.
	EnvConfigFile = "BONDVAL_CONFIG"
)

var (
	// ErrInvalidConfig wraps every validation failure.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrLoadConfig wraps file, env and decode failures.
	ErrLoadConfig = errors.New("load config failed")
)

// Load builds a Config by layering defaults, optional file, env vars and overrides.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) at path, or BONDVAL_CONFIG when path is empty
//  3. env (prefix BONDVAL_)
//  4. overrides (flat koanf keys, typically CLI flags that were set)
func Load(_ context.Context, path string, overrides map[string]any) (*Config, error) {
	k := koanf.New(".")

	if path == "" {
		path = os.Getenv(EnvConfigFile)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// BONDVAL_INPUT_FILE -> input_file. Underscores are kept to match the
	// flat koanf tags; the "." delimiter never occurs in env names.
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, EnvPrefix)
		if s == strings.TrimPrefix(EnvConfigFile, EnvPrefix) {
			return ""
		}
		return strings.ToLower(s)
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	for key, val := range overrides {
		if err := k.Set(key, val); err != nil {
			return nil, fmt.Errorf("%w: override %s: %w", ErrLoadConfig, key, err)
		}
	}

	cfg := New()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = newValidator()

// newValidator registers one tag per enumerated setting. Each delegates to
// the parser that consumes the value, so both accept the same spellings.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	parsers := map[string]func(string) error{
		"calendar":     func(s string) error { _, err := calendar.Parse(s); return err },
		"daycount":     func(s string) error { _, err := utils.ParseDayCount(s); return err },
		"compounding":  func(s string) error { _, err := curve.ParseCompounding(s); return err },
		"maturityrule": func(s string) error { _, err := valuation.ParseMaturityRule(s); return err },
		"outputformat": func(s string) error { _, err := report.ParseFormat(s); return err },
	}
	for tag, parse := range parsers {
		parse := parse
		if err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return parse(fl.Field().String()) == nil
		}); err != nil {
			panic(err)
		}
	}
	return v
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
