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
)

// EnvPrefix prefixes every environment override, e.g. KABADDI_OUTPUT_DIR.
const EnvPrefix = "KABADDI_"

// EnvConfigPath names the variable holding an optional YAML config path.
const EnvConfigPath = EnvPrefix + "CONFIG"

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) from path, or KABADDI_CONFIG when path is empty
//  3. env (prefix KABADDI_)
//
// Lists and maps from the file replace the defaults as a whole.
func Load(_ context.Context, path string) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrLoadConfig, path, err)
		}
	}

	// Map env keys like KABADDI_OUTPUT_DIR -> output_dir (flat keys).
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, strings.ToLower(EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %v", ErrLoadConfig, err)
	}
	// The config path variable is not a config key.
	k.Delete("config")

	cfg := *base
	// Lists and maps given by the file or env replace the defaults instead of
	// merging with them, so an alias table or rule set can be swapped whole.
	resets := map[string]func(){
		"player_stats":        func() { cfg.PlayerStats = nil },
		"team_stats":          func() { cfg.TeamStats = nil },
		"team_aliases":        func() { cfg.TeamAliases = nil },
		"scoring_rules":       func() { cfg.ScoringRules = nil },
		"player_stat_columns": func() { cfg.PlayerStatColumns = nil },
	}
	for key, reset := range resets {
		if k.Exists(key) {
			reset()
		}
	}
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints and cross-field rules.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	seen := make(map[string]string)
	for _, group := range [][]string{Columns(c.PlayerStats), Columns(c.TeamStats)} {
		clear(seen)
		for _, col := range group {
			key := strings.ToLower(strings.TrimSpace(col))
			if _, dup := seen[key]; dup {
				return fmt.Errorf("%w: statistic column %q mapped twice", ErrInvalidConfig, col)
			}
			seen[key] = col
		}
	}
	return nil
}
