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

// Package keygen generates EC and DH key pairs.
//
// A Generator is obtained for an algorithm, configured once with
// Initialize, and then produces any number of independent key pairs:
//
//	gen, err := keygen.New("EC")
//	if err != nil {
//	    return err
//	}
//	if err := gen.Initialize(keygen.ECParameterSpec{CurveName: "secp384r1"}); err != nil {
//	    return err
//	}
//	kp, err := gen.Generate()
//
// EC generators accept a curve name or a key size. DH generators require
// explicit group parameters; there is no default group for a key size.
//
// Generators are not safe for concurrent use. Create one per goroutine;
// distinct generators share only the immutable capability registry and
// the engine.
package keygen

import (
	"time"

	"github.com/jeremyhahn/go-keypairgen/pkg/adapters/logger"
	"github.com/jeremyhahn/go-keypairgen/pkg/metrics"
	"github.com/jeremyhahn/go-keypairgen/pkg/types"
)

// Generator produces key pairs for one algorithm.
type Generator interface {
	// Algorithm returns the algorithm this generator produces.
	Algorithm() types.Algorithm

	// Initialize validates spec and makes it the active configuration.
	// On failure the previous configuration is kept.
	Initialize(spec ParameterSpec) error

	// InitializeKeySize is Initialize(KeySizeSpec(bits)).
	InitializeKeySize(bits int) error

	// Configured reports whether Initialize has succeeded at least once.
	Configured() bool

	// Generate creates a fresh key pair with the active configuration.
	Generate() (*KeyPair, error)
}

type options struct {
	logger logger.Logger
	clock  func() time.Time
}

// Option configures a generator.
type Option func(*options)

// WithLogger sets the generator's logger.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithClock sets the time source for KeyPair.CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.clock = now
		}
	}
}

func newOptions(opts []Option) *options {
	o := &options{
		logger: logger.NoOp(),
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func record(op string, alg types.Algorithm, start time.Time, err error) {
	status := metrics.StatusSuccess
	if err != nil {
		status = metrics.StatusError
		metrics.RecordError(op, alg.String(), errorType(err))
	}
	metrics.RecordOperation(op, alg.String(), status, time.Since(start).Seconds())
}
