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

package config

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/go-keypairgen/pkg/adapters/logger"
	"github.com/jeremyhahn/go-keypairgen/pkg/crypto/rand"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "keypairgen.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, "auto", cfg.RNG.Mode)
	assert.Equal(t, "software", cfg.RNG.FallbackMode)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, StorageFile, cfg.Storage.Backend)
	assert.NotEmpty(t, cfg.Storage.Path)
	assert.Equal(t, OutputText, cfg.Output.Format)
}

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Storage.Path, cfg.Storage.Path)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
logging:
  level: debug
  format: JSON
rng:
  mode: software
metrics:
  enabled: false
  textfile: /tmp/keypairgen.prom
storage:
  backend: memory
output:
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "software", cfg.RNG.Mode)
	assert.Equal(t, "software", cfg.RNG.FallbackMode)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, "/tmp/keypairgen.prom", cfg.Metrics.Textfile)
	assert.Equal(t, StorageMemory, cfg.Storage.Backend)
	assert.Equal(t, OutputJSON, cfg.Output.Format)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")

	_, err = Load(writeConfig(t, "logging: [unclosed"))
	assert.ErrorContains(t, err, "failed to parse config file")

	_, err = Load(writeConfig(t, "rng:\n  mode: tpm2\n"))
	assert.ErrorContains(t, err, "invalid configuration")
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("KEYPAIRGEN_LOG_LEVEL", "error")
	t.Setenv("KEYPAIRGEN_LOG_FORMAT", "json")
	t.Setenv("KEYPAIRGEN_RNG", "software")
	t.Setenv("KEYPAIRGEN_RNG_FALLBACK", "auto")
	t.Setenv("KEYPAIRGEN_METRICS_ENABLED", "false")
	t.Setenv("KEYPAIRGEN_METRICS_FILE", "/var/lib/node_exporter/keypairgen.prom")
	t.Setenv("KEYPAIRGEN_STORAGE", "memory")
	t.Setenv("KEYPAIRGEN_KEY_DIR", "/srv/keys")
	t.Setenv("KEYPAIRGEN_OUTPUT", "json")

	cfg, err := Load(writeConfig(t, "logging:\n  level: debug\n"))
	require.NoError(t, err)

	assert.Equal(t, "error", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "software", cfg.RNG.Mode)
	assert.Equal(t, "auto", cfg.RNG.FallbackMode)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, "/var/lib/node_exporter/keypairgen.prom", cfg.Metrics.Textfile)
	assert.Equal(t, StorageMemory, cfg.Storage.Backend)
	assert.Equal(t, "/srv/keys", cfg.Storage.Path)
	assert.Equal(t, OutputJSON, cfg.Output.Format)
}

func TestApplyEnvOverrides_InvalidBoolKeepsValue(t *testing.T) {
	t.Setenv("KEYPAIRGEN_METRICS_ENABLED", "sometimes")
	cfg := Default()
	applyEnvOverrides(cfg)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, "invalid log level"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "invalid log format"},
		{"bad rng", func(c *Config) { c.RNG.Mode = "pkcs11" }, "invalid rng mode"},
		{"bad fallback", func(c *Config) { c.RNG.FallbackMode = "tpm2" }, "invalid rng fallback mode"},
		{"empty fallback", func(c *Config) { c.RNG.FallbackMode = "" }, ""},
		{"bad backend", func(c *Config) { c.Storage.Backend = "s3" }, "invalid storage backend"},
		{"file without path", func(c *Config) { c.Storage.Path = "" }, "storage path is required"},
		{"memory without path", func(c *Config) {
			c.Storage.Backend = StorageMemory
			c.Storage.Path = ""
		}, ""},
		{"bad output", func(c *Config) { c.Output.Format = "yaml" }, "invalid output format"},
		{"upper case", func(c *Config) {
			c.Output.Format = "JSON"
			c.Storage.Backend = "FILE"
			c.RNG.Mode = "Software"
		}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}

func TestRandConfigAndLogger(t *testing.T) {
	cfg := Default()
	cfg.RNG.Mode = "software"
	rc := cfg.RandConfig()
	assert.Equal(t, rand.ModeSoftware, rc.Mode)
	assert.Equal(t, rand.ModeSoftware, rc.FallbackMode)

	_, err := rand.NewResolver(rc)
	require.NoError(t, err)

	var _ logger.Logger = cfg.NewLogger(io.Discard)
}
