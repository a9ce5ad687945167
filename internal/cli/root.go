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

// Package cli implements the keypairgen command line interface.
package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jeremyhahn/go-keypairgen/internal/config"
)

// Flag names shared by viper bindings.
const (
	flagConfig      = "config"
	flagOutput      = "output"
	flagVerbose     = "verbose"
	flagKeyDir      = "key-dir"
	flagRNG         = "rng"
	flagMetricsFile = "metrics-file"
)

// Option customizes the root command. Tests use these to redirect output and
// swap the filesystem.
type Option func(*app)

// WithOutput sets the writers for command output and errors.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(a *app) {
		a.stdout = stdout
		a.stderr = stderr
	}
}

// WithFs sets the filesystem used for key storage and parameter files.
func WithFs(fs afero.Fs) Option {
	return func(a *app) {
		a.fs = fs
	}
}

// NewRootCommand builds the command tree.
func NewRootCommand(opts ...Option) *cobra.Command {
	a := &app{
		v:      viper.New(),
		fs:     afero.NewOsFs(),
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
	for _, opt := range opts {
		opt(a)
	}

	rootCmd := &cobra.Command{
		Use:   "keypairgen",
		Short: "EC and DH key pair generator",
		Long: `keypairgen generates elliptic curve and finite field Diffie-Hellman
key pairs and writes them as SPKI / PKCS#8 PEM, or as JSON Web Keys.

The curves offered are the ones the primitives engine reports as supported;
run "keypairgen curves" to list them. DH always requires explicit group
parameters, either a PKCS#3 parameter file or a prime and base.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.teardown()
		},
	}
	rootCmd.SetOut(a.stdout)
	rootCmd.SetErr(a.stderr)

	flags := rootCmd.PersistentFlags()
	flags.String(flagConfig, "", "config file (YAML)")
	flags.StringP(flagOutput, "o", config.OutputText, "output format (text, json)")
	flags.BoolP(flagVerbose, "v", false, "verbose output")
	flags.String(flagKeyDir, "", "directory for saved key pairs (default is $HOME/.keypairgen/keys)")
	flags.String(flagRNG, "", "random source (auto, software)")
	flags.String(flagMetricsFile, "", "write metrics in node exporter textfile format to this path")

	a.v.SetEnvPrefix(config.EnvPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()
	for _, name := range []string{flagConfig, flagOutput, flagVerbose, flagKeyDir, flagRNG, flagMetricsFile} {
		_ = a.v.BindPFlag(name, flags.Lookup(name))
	}

	rootCmd.AddCommand(
		a.newVersionCommand(),
		a.newCurvesCommand(),
		a.newGenerateCommand(),
		a.newKeysCommand(),
	)
	return rootCmd
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	a := &app{}
	cmd := NewRootCommand(func(built *app) { a = built })
	if err := cmd.Execute(); err != nil {
		a.handleError(err)
		return 1
	}
	return 0
}

// handleError prints err in the configured output format.
func (a *app) handleError(err error) {
	printer := NewPrinter(a.outputFormat(), a.stderr)
	_ = printer.PrintError(err) // best effort
}

// printVerbose prints a message to stderr in verbose mode.
func (a *app) printVerbose(format string, args ...interface{}) {
	if a.v.GetBool(flagVerbose) {
		fmt.Fprintf(a.stderr, "[VERBOSE] "+format+"\n", args...)
	}
}
