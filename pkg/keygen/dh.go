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

package keygen

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jeremyhahn/go-keypairgen/pkg/adapters/logger"
	"github.com/jeremyhahn/go-keypairgen/pkg/crypto/dh"
	"github.com/jeremyhahn/go-keypairgen/pkg/metrics"
	"github.com/jeremyhahn/go-keypairgen/pkg/primitives"
	"github.com/jeremyhahn/go-keypairgen/pkg/types"
)

// DHGenerator generates finite field Diffie-Hellman key pairs in an
// explicitly supplied group.
type DHGenerator struct {
	engine primitives.Engine
	opts   *options

	// group is nil until Initialize succeeds.
	group *dh.Group
}

var _ Generator = (*DHGenerator)(nil)

// NewDHGenerator returns an unconfigured DH generator.
func NewDHGenerator(engine primitives.Engine, opts ...Option) *DHGenerator {
	return &DHGenerator{
		engine: engine,
		opts:   newOptions(opts),
	}
}

// Algorithm returns types.AlgorithmDH.
func (g *DHGenerator) Algorithm() types.Algorithm {
	return types.AlgorithmDH
}

// Configured reports whether a group is active.
func (g *DHGenerator) Configured() bool {
	return g.group != nil
}

// Group returns a copy of the active group.
func (g *DHGenerator) Group() (*dh.Group, bool) {
	if g.group == nil {
		return nil, false
	}
	return g.group.Clone(), true
}

// Initialize sets the group. Only DHGroupSpec (by value or pointer) is
// accepted; a bare key size is rejected because no default groups exist.
//
// Validation is structural: p odd and greater than 3, 2 <= g <= p-2, and a
// private value length of 0 or between 2 and bitlen(p). Primality is left
// to the engine and surfaces from Generate.
func (g *DHGenerator) Initialize(spec ParameterSpec) error {
	start := time.Now()
	group, err := g.resolve(spec)
	record(metrics.OpInitialize, types.AlgorithmDH, start, err)
	if err != nil {
		g.opts.logger.Debug("DH initialize rejected", logger.Error(err))
		return err
	}

	g.group = group
	g.opts.logger.Debug("DH generator initialized",
		logger.Int("prime_bits", group.BitLen()),
		logger.Int("private_value_length", group.L))
	return nil
}

// InitializeKeySize always fails with ErrUnsupportedParameter.
func (g *DHGenerator) InitializeKeySize(bits int) error {
	return g.Initialize(KeySizeSpec(bits))
}

func (g *DHGenerator) resolve(spec ParameterSpec) (*dh.Group, error) {
	var s DHGroupSpec
	switch v := spec.(type) {
	case DHGroupSpec:
		s = v
	case *DHGroupSpec:
		if v == nil {
			return nil, fmt.Errorf("%w: nil DH group spec", ErrUnsupportedParameter)
		}
		s = *v
	case KeySizeSpec:
		return nil, fmt.Errorf("%w: DH requires explicit group parameters, not a %d-bit key size",
			ErrUnsupportedParameter, int(v))
	case nil:
		return nil, fmt.Errorf("%w: nil parameter spec", ErrUnsupportedParameter)
	default:
		return nil, fmt.Errorf("%w: %T is not a DH parameter spec", ErrUnsupportedParameter, spec)
	}

	group := s.Group()
	if err := group.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedParameter, err)
	}
	return group, nil
}

// Generate creates a key pair in the active group.
func (g *DHGenerator) Generate() (*KeyPair, error) {
	start := time.Now()
	kp, err := g.generate()
	record(metrics.OpGenerate, types.AlgorithmDH, start, err)
	if err != nil {
		return nil, err
	}
	metrics.RecordKeyPair(types.AlgorithmDH.String(), kp.Parameter())
	g.opts.logger.Debug("key pair generated",
		logger.String("id", kp.ID.String()),
		logger.String("algorithm", kp.Algorithm.String()),
		logger.Int("prime_bits", kp.KeySizeBits))
	return kp, nil
}

func (g *DHGenerator) generate() (*KeyPair, error) {
	if g.group == nil {
		return nil, ErrNotInitialized
	}

	priv, err := g.engine.GenerateDHKeyPair(g.group.Clone())
	if err != nil {
		return nil, fmt.Errorf("%w: %d-bit group: %w", ErrGenerationFailure, g.group.BitLen(), err)
	}
	if priv == nil {
		return nil, fmt.Errorf("%w: engine returned no key", ErrGenerationFailure)
	}

	id, err := uuid.NewRandom()
	if err != nil {
		return nil, fmt.Errorf("%w: key id: %w", ErrGenerationFailure, err)
	}

	return &KeyPair{
		ID:          id,
		Algorithm:   types.AlgorithmDH,
		Group:       priv.Params.Clone(),
		KeySizeBits: priv.Params.BitLen(),
		Public:      &priv.PublicKey,
		Private:     priv,
		CreatedAt:   g.opts.clock(),
	}, nil
}
