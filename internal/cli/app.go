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

package cli

import (
	"fmt"
	"io"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jeremyhahn/go-keypairgen/internal/config"
	"github.com/jeremyhahn/go-keypairgen/pkg/adapters/logger"
	"github.com/jeremyhahn/go-keypairgen/pkg/capability"
	"github.com/jeremyhahn/go-keypairgen/pkg/correlation"
	"github.com/jeremyhahn/go-keypairgen/pkg/crypto/rand"
	"github.com/jeremyhahn/go-keypairgen/pkg/keygen"
	"github.com/jeremyhahn/go-keypairgen/pkg/keystore"
	"github.com/jeremyhahn/go-keypairgen/pkg/metrics"
	"github.com/jeremyhahn/go-keypairgen/pkg/primitives"
	"github.com/jeremyhahn/go-keypairgen/pkg/storage"
	"github.com/jeremyhahn/go-keypairgen/pkg/storage/file"
)

// app holds the state shared by every command of one invocation.
type app struct {
	v      *viper.Viper
	fs     afero.Fs
	stdout io.Writer
	stderr io.Writer

	cfg      *config.Config
	log      logger.Logger
	rng      rand.Resolver
	provider *keygen.Provider
	store    *keystore.KeyStore
}

// setup resolves configuration (flag > env > file > default) and builds the
// engine, registry and provider.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.v.GetString(flagConfig))
	if err != nil {
		return err
	}

	if a.v.IsSet(flagOutput) {
		cfg.Output.Format = a.v.GetString(flagOutput)
	}
	if a.v.IsSet(flagKeyDir) {
		cfg.Storage.Backend = config.StorageFile
		cfg.Storage.Path = a.v.GetString(flagKeyDir)
	}
	if a.v.IsSet(flagRNG) {
		cfg.RNG.Mode = a.v.GetString(flagRNG)
	}
	if a.v.IsSet(flagMetricsFile) {
		cfg.Metrics.Textfile = a.v.GetString(flagMetricsFile)
	}
	if a.v.GetBool(flagVerbose) {
		cfg.Logging.Level = logger.LevelDebug.String()
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	a.cfg = cfg

	ctx := correlation.Ensure(cmd.Context())
	cmd.SetContext(ctx)
	a.log = cfg.NewLogger(a.stderr).With(
		logger.String("correlation_id", correlation.GetCorrelationID(ctx)),
		logger.String("command", cmd.CommandPath()))

	if cfg.Metrics.Enabled || cfg.Metrics.Textfile != "" {
		metrics.Enable()
	} else {
		metrics.Disable()
	}

	a.rng, err = rand.NewResolver(cfg.RandConfig())
	if err != nil {
		return fmt.Errorf("failed to create random source: %w", err)
	}
	engine, err := primitives.NewSoftwareEngine(primitives.WithRandom(a.rng))
	if err != nil {
		return err
	}
	registry := capability.Build(engine, capability.WithLogger(a.log))
	a.provider = keygen.NewProvider(engine, registry, keygen.WithLogger(a.log))

	a.printVerbose("config: output=%s storage=%s rng=%s",
		cfg.Output.Format, cfg.Storage.Backend, cfg.RNG.Mode)
	return nil
}

// keyStore opens the configured backend on first use.
func (a *app) keyStore() (*keystore.KeyStore, error) {
	if a.store != nil {
		return a.store, nil
	}

	var backend storage.Backend
	switch a.cfg.Storage.Backend {
	case config.StorageMemory:
		backend = storage.NewMemory()
	default:
		fs, err := file.NewWithFs(a.fs, a.cfg.Storage.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open key directory: %w", err)
		}
		backend = fs
	}

	a.store = keystore.New(backend, keystore.WithLogger(a.log))
	a.printVerbose("key store: %s %s", a.cfg.Storage.Backend, a.cfg.Storage.Path)
	return a.store, nil
}

// teardown closes resources and writes the metrics textfile.
func (a *app) teardown() error {
	if a.store != nil {
		_ = a.store.Backend().Close()
		a.store = nil
	}
	if a.rng != nil {
		_ = a.rng.Close()
	}
	if a.cfg != nil && a.cfg.Metrics.Textfile != "" {
		if err := metrics.WriteTextfile(a.cfg.Metrics.Textfile); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}
	return nil
}

func (a *app) outputFormat() string {
	if a.cfg != nil {
		return a.cfg.Output.Format
	}
	if format := a.v.GetString(flagOutput); format != "" {
		return format
	}
	return config.OutputText
}

func (a *app) printer() *Printer {
	return NewPrinter(a.outputFormat(), a.stdout)
}
