// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-keypairgen.
//
// go-keypairgen is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

// Package config loads the keypairgen configuration file.
package config

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jeremyhahn/go-keypairgen/pkg/adapters/logger"
	"github.com/jeremyhahn/go-keypairgen/pkg/crypto/rand"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "KEYPAIRGEN"

// Storage backends
const (
	StorageFile   = "file"
	StorageMemory = "memory"
)

// Output formats
const (
	OutputText = "text"
	OutputJSON = "json"
)

// Config is the complete CLI configuration
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	RNG     RNGConfig     `yaml:"rng"`
	Metrics MetricsConfig `yaml:"metrics"`
	Storage StorageConfig `yaml:"storage"`
	Output  OutputConfig  `yaml:"output"`
}

// LoggingConfig controls logging behavior
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// RNGConfig selects the randomness source for key generation
type RNGConfig struct {
	Mode         string `yaml:"mode"`
	FallbackMode string `yaml:"fallback_mode"`
}

// MetricsConfig controls metrics collection. Textfile, when set, receives
// the metrics in node exporter textfile format after each command.
type MetricsConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Textfile string `yaml:"textfile"`
}

// StorageConfig controls where saved key pairs live
type StorageConfig struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
}

// OutputConfig controls command output
type OutputConfig struct {
	Format string `yaml:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "warn", Format: "text"},
		RNG:     RNGConfig{Mode: string(rand.ModeAuto), FallbackMode: string(rand.ModeSoftware)},
		Metrics: MetricsConfig{Enabled: true},
		Storage: StorageConfig{Backend: StorageFile, Path: DefaultKeyDir()},
		Output:  OutputConfig{Format: OutputText},
	}
}

// DefaultKeyDir returns ~/.keypairgen/keys, or a relative path when the
// home directory is unknown.
func DefaultKeyDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(".keypairgen", "keys")
	}
	return filepath.Join(home, ".keypairgen", "keys")
}

// Load reads a YAML file over the defaults and applies environment variable
// overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		// #nosec G304 - config file path is provided by the user
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func env(name string) string {
	return os.Getenv(EnvPrefix + "_" + name)
}

// applyEnvOverrides applies KEYPAIRGEN_* environment variables
func applyEnvOverrides(cfg *Config) {
	if level := env("LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if format := env("LOG_FORMAT"); format != "" {
		cfg.Logging.Format = format
	}

	if mode := env("RNG"); mode != "" {
		cfg.RNG.Mode = mode
	}
	if mode := env("RNG_FALLBACK"); mode != "" {
		cfg.RNG.FallbackMode = mode
	}

	if enabled := env("METRICS_ENABLED"); enabled != "" {
		v, err := strconv.ParseBool(enabled)
		if err != nil {
			log.Printf("Warning: invalid %s_METRICS_ENABLED value %q, keeping %t: %v",
				EnvPrefix, enabled, cfg.Metrics.Enabled, err)
		} else {
			cfg.Metrics.Enabled = v
		}
	}
	if textfile := env("METRICS_FILE"); textfile != "" {
		cfg.Metrics.Textfile = textfile
	}

	if backend := env("STORAGE"); backend != "" {
		cfg.Storage.Backend = backend
	}
	if dir := env("KEY_DIR"); dir != "" {
		cfg.Storage.Path = dir
	}

	if format := env("OUTPUT"); format != "" {
		cfg.Output.Format = format
	}
}

// Validate checks the configuration and normalizes case.
func (c *Config) Validate() error {
	if _, err := logger.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	c.Logging.Format = strings.ToLower(c.Logging.Format)
	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be text or json)", c.Logging.Format)
	}

	c.RNG.Mode = strings.ToLower(c.RNG.Mode)
	if _, err := rand.ParseMode(c.RNG.Mode); err != nil {
		return fmt.Errorf("invalid rng mode: %w", err)
	}
	if c.RNG.FallbackMode != "" {
		c.RNG.FallbackMode = strings.ToLower(c.RNG.FallbackMode)
		if _, err := rand.ParseMode(c.RNG.FallbackMode); err != nil {
			return fmt.Errorf("invalid rng fallback mode: %w", err)
		}
	}

	c.Storage.Backend = strings.ToLower(c.Storage.Backend)
	switch c.Storage.Backend {
	case StorageFile:
		if c.Storage.Path == "" {
			return fmt.Errorf("storage path is required for the file backend")
		}
	case StorageMemory:
	default:
		return fmt.Errorf("invalid storage backend: %s (must be file or memory)", c.Storage.Backend)
	}

	c.Output.Format = strings.ToLower(c.Output.Format)
	if c.Output.Format != OutputText && c.Output.Format != OutputJSON {
		return fmt.Errorf("invalid output format: %s (must be text or json)", c.Output.Format)
	}
	return nil
}

// RandConfig returns the rand.Config for the configured modes.
func (c *Config) RandConfig() *rand.Config {
	return &rand.Config{
		Mode:         rand.Mode(c.RNG.Mode),
		FallbackMode: rand.Mode(c.RNG.FallbackMode),
	}
}

// NewLogger builds the slog adapter for the logging section, writing to w.
func (c *Config) NewLogger(w io.Writer) logger.Logger {
	level, err := logger.ParseLevel(c.Logging.Level)
	if err != nil {
		level = logger.LevelWarn
	}
	return logger.NewSlogAdapter(&logger.SlogConfig{
		Level:  level,
		Format: c.Logging.Format,
		Output: w,
	})
}
