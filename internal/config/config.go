// Package config loads selfgate settings from a YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/rcliao/selfgate/internal/extract"
	"github.com/rcliao/selfgate/internal/gate"
	"github.com/rcliao/selfgate/internal/store"
)

// Environment variables consulted by Load.
const (
	EnvConfig  = "SELFGATE_CONFIG"
	EnvStore   = "SELFGATE_STORE"
	EnvBackend = "SELFGATE_BACKEND"
)

// Config is the on-disk configuration.
type Config struct {
	Gate    GateConfig    `yaml:"gate"`
	Extract ExtractConfig `yaml:"extract"`
	Store   StoreConfig   `yaml:"store"`
}

// GateConfig mirrors gate.Config.
type GateConfig struct {
	MinGapTurns int `yaml:"min_gap_turns"`
}

// ExtractConfig mirrors extract.Config.
type ExtractConfig struct {
	LongLenThreshold int    `yaml:"long_len_threshold"`
	UserLang         string `yaml:"user_lang"`
}

// StoreConfig selects the backend and its location.
type StoreConfig struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Gate:    GateConfig{MinGapTurns: gate.DefaultConfig().MinGapTurns},
		Extract: ExtractConfig{LongLenThreshold: extract.DefaultLongLenThreshold},
		Store:   StoreConfig{Backend: store.BackendJSON, Path: store.DefaultJSONPath(".")},
	}
}

// Load reads path (or $SELFGATE_CONFIG when path is empty), then applies
// environment overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvConfig)
	}

	cfg := Default()
	if path != "" {
		content, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			content = []byte(interpolateEnv(string(content)))
			if err := yaml.Unmarshal(content, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	if v := os.Getenv(EnvStore); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv(EnvBackend); v != "" {
		cfg.Store.Backend = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges and the backend name.
func (c *Config) Validate() error {
	if c.Gate.MinGapTurns < 0 {
		return fmt.Errorf("gate.min_gap_turns must be >= 0, got %d", c.Gate.MinGapTurns)
	}
	if c.Extract.LongLenThreshold <= 0 {
		return fmt.Errorf("extract.long_len_threshold must be > 0, got %d", c.Extract.LongLenThreshold)
	}
	switch c.Store.Backend {
	case store.BackendJSON, store.BackendSQLite, store.BackendMemory:
	default:
		return fmt.Errorf("store.backend: %w: %q", store.ErrUnknownBackend, c.Store.Backend)
	}
	return nil
}

// GateSettings builds the gate settings.
func (c *Config) GateSettings() gate.Config {
	g := gate.DefaultConfig()
	g.MinGapTurns = c.Gate.MinGapTurns
	return g
}

// ExtractSettings builds the extractor settings.
func (c *Config) ExtractSettings() extract.Config {
	return extract.Config{
		LongLenThreshold: c.Extract.LongLenThreshold,
		UserLangHint:     c.Extract.UserLang,
	}
}

var envPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// interpolateEnv replaces ${VAR} with the variable's value.
func interpolateEnv(content string) string {
	return envPattern.ReplaceAllStringFunc(content, func(m string) string {
		return os.Getenv(envPattern.FindStringSubmatch(m)[1])
	})
}
