// Package config loads and validates the TOML configuration. Credentials are
// never read from the config file, only from the environment.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/devamjariwala24/pycodeadvisor/internal/core/errors"
)

type Config struct {
	Analysis  AnalysisConfig  `toml:"analysis"`
	Inference InferenceConfig `toml:"inference"`
	Cache     CacheConfig     `toml:"cache"`
	Watch     WatchConfig     `toml:"watch"`
	Output    OutputConfig    `toml:"output"`
}

// AnalysisConfig controls file discovery and inspection.
type AnalysisConfig struct {
	MaxFiles     int      `toml:"max_files"`
	ExcludeDirs  []string `toml:"exclude_dirs"`
	ExcludeFiles []string `toml:"exclude_files"`
}

// InferenceConfig selects the backend and bounds its usage. Durations are
// plain integers in the file (seconds) to keep hand-editing simple.
type InferenceConfig struct {
	Enabled        *bool  `toml:"enabled"`
	Backend        string `toml:"backend"`
	Model          string `toml:"model"`
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	MaxCalls       int    `toml:"max_calls"`
	WindowSeconds  int    `toml:"window_seconds"`
}

func (c InferenceConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

func (c InferenceConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c InferenceConfig) Window() time.Duration {
	return time.Duration(c.WindowSeconds) * time.Second
}

// CacheConfig bounds the recommendation cache. A zero or absent ttl_hours
// means entries never expire.
type CacheConfig struct {
	TTLHours int    `toml:"ttl_hours"`
	Capacity int    `toml:"capacity"`
	Path     string `toml:"path"`
	Persist  bool   `toml:"persist"`
}

func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLHours) * time.Hour
}

type WatchConfig struct {
	DebounceMillis int `toml:"debounce_ms"`
}

func (c WatchConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMillis) * time.Millisecond
}

type OutputConfig struct {
	Format  string `toml:"format"`
	Verbose bool   `toml:"verbose"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads a TOML config file, fills in defaults, applies environment
// overrides and validates the result. An empty path yields the defaults with
// environment overrides applied.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeValidationError, "read config file")
		}
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, errors.Wrap(err, errors.CodeValidationError, "parse config file")
		}
	}

	applyDefaults(cfg)
	ApplyEnvOverrides(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Analysis.MaxFiles == 0 {
		cfg.Analysis.MaxFiles = 100
	}

	if strings.TrimSpace(cfg.Inference.Backend) == "" {
		cfg.Inference.Backend = "ollama"
	}
	if cfg.Inference.Enabled == nil {
		enabled := true
		cfg.Inference.Enabled = &enabled
	}
	if cfg.Inference.TimeoutSeconds <= 0 {
		cfg.Inference.TimeoutSeconds = 30
	}
	if cfg.Inference.MaxCalls == 0 {
		cfg.Inference.MaxCalls = 10
	}
	if cfg.Inference.WindowSeconds <= 0 {
		cfg.Inference.WindowSeconds = 60
	}

	if strings.TrimSpace(cfg.Cache.Path) == "" {
		cfg.Cache.Path = ".pycodeadvisor/cache.db"
	}

	if cfg.Watch.DebounceMillis <= 0 {
		cfg.Watch.DebounceMillis = 500
	}

	if strings.TrimSpace(cfg.Output.Format) == "" {
		cfg.Output.Format = "text"
	}
}

func validate(cfg *Config) error {
	if cfg.Analysis.MaxFiles < 0 {
		return errors.New(errors.CodeValidationError, "analysis.max_files must not be negative")
	}

	switch cfg.Inference.Backend {
	case "ollama", "openai":
	default:
		return errors.New(errors.CodeValidationError,
			fmt.Sprintf("inference.backend must be ollama or openai, got %q", cfg.Inference.Backend))
	}
	if cfg.Inference.MaxCalls < 0 {
		return errors.New(errors.CodeValidationError, "inference.max_calls must not be negative")
	}

	if cfg.Cache.TTLHours < 0 {
		return errors.New(errors.CodeValidationError, "cache.ttl_hours must not be negative")
	}
	if cfg.Cache.Capacity < 0 {
		return errors.New(errors.CodeValidationError, "cache.capacity must not be negative")
	}

	switch cfg.Output.Format {
	case "text", "json":
	default:
		return errors.New(errors.CodeValidationError,
			fmt.Sprintf("output.format must be text or json, got %q", cfg.Output.Format))
	}

	return nil
}
