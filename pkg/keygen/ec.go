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
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jeremyhahn/go-keypairgen/pkg/adapters/logger"
	"github.com/jeremyhahn/go-keypairgen/pkg/capability"
	"github.com/jeremyhahn/go-keypairgen/pkg/metrics"
	"github.com/jeremyhahn/go-keypairgen/pkg/primitives"
	"github.com/jeremyhahn/go-keypairgen/pkg/types"
)

// ECGenerator generates key pairs on the curves in a capability registry.
type ECGenerator struct {
	registry *capability.Registry
	engine   primitives.Engine
	opts     *options

	// curve is nil until Initialize succeeds.
	curve *capability.CurveDescriptor
}

var _ Generator = (*ECGenerator)(nil)

// NewECGenerator returns an unconfigured EC generator. The registry must
// have been built from the same engine.
func NewECGenerator(registry *capability.Registry, engine primitives.Engine, opts ...Option) *ECGenerator {
	return &ECGenerator{
		registry: registry,
		engine:   engine,
		opts:     newOptions(opts),
	}
}

// Algorithm returns types.AlgorithmEC.
func (g *ECGenerator) Algorithm() types.Algorithm {
	return types.AlgorithmEC
}

// Configured reports whether a curve is active.
func (g *ECGenerator) Configured() bool {
	return g.curve != nil
}

// Curve returns the active curve.
func (g *ECGenerator) Curve() (capability.CurveDescriptor, bool) {
	if g.curve == nil {
		return capability.CurveDescriptor{}, false
	}
	return *g.curve, true
}

// Initialize selects the curve. It accepts ECParameterSpec (by value or
// pointer) and KeySizeSpec.
func (g *ECGenerator) Initialize(spec ParameterSpec) error {
	start := time.Now()
	curve, err := g.resolve(spec)
	record(metrics.OpInitialize, types.AlgorithmEC, start, err)
	if err != nil {
		g.opts.logger.Debug("EC initialize rejected", logger.Error(err))
		return err
	}

	g.curve = &curve
	g.opts.logger.Debug("EC generator initialized",
		logger.String("curve", curve.Name),
		logger.Int("key_size", curve.KeySizeBits))
	return nil
}

// InitializeKeySize selects the first enabled curve with the given size.
func (g *ECGenerator) InitializeKeySize(bits int) error {
	return g.Initialize(KeySizeSpec(bits))
}

func (g *ECGenerator) resolve(spec ParameterSpec) (capability.CurveDescriptor, error) {
	switch s := spec.(type) {
	case ECParameterSpec:
		return g.resolveParameterSpec(s)
	case *ECParameterSpec:
		if s == nil {
			return capability.CurveDescriptor{}, fmt.Errorf("%w: nil EC parameter spec", ErrUnsupportedParameter)
		}
		return g.resolveParameterSpec(*s)
	case KeySizeSpec:
		return g.resolveKeySize(int(s))
	case nil:
		return capability.CurveDescriptor{}, fmt.Errorf("%w: nil parameter spec", ErrUnsupportedParameter)
	default:
		return capability.CurveDescriptor{}, fmt.Errorf("%w: %T is not an EC parameter spec", ErrUnsupportedParameter, spec)
	}
}

func (g *ECGenerator) resolveParameterSpec(s ECParameterSpec) (capability.CurveDescriptor, error) {
	name := strings.TrimSpace(s.CurveName)
	switch {
	case name != "" && s.KeySize != 0:
		return capability.CurveDescriptor{}, fmt.Errorf("%w: curve name and key size are mutually exclusive", ErrUnsupportedParameter)
	case name != "":
		curve, ok := g.registry.Lookup(name)
		if !ok {
			return capability.CurveDescriptor{}, fmt.Errorf("%w: curve %q is not supported", ErrUnsupportedParameter, s.CurveName)
		}
		return curve, nil
	case s.KeySize != 0:
		return g.resolveKeySize(s.KeySize)
	default:
		return capability.CurveDescriptor{}, fmt.Errorf("%w: empty EC parameter spec", ErrUnsupportedParameter)
	}
}

func (g *ECGenerator) resolveKeySize(bits int) (capability.CurveDescriptor, error) {
	if bits <= 0 {
		return capability.CurveDescriptor{}, fmt.Errorf("%w: key size must be positive, got %d", ErrUnsupportedParameter, bits)
	}
	curve, ok := g.registry.DefaultCurveForKeySize(bits)
	if !ok {
		return capability.CurveDescriptor{}, fmt.Errorf("%w: no enabled curve has a %d-bit key size", ErrUnsupportedParameter, bits)
	}
	return curve, nil
}

// Generate creates a key pair on the active curve.
func (g *ECGenerator) Generate() (*KeyPair, error) {
	start := time.Now()
	kp, err := g.generate()
	record(metrics.OpGenerate, types.AlgorithmEC, start, err)
	if err != nil {
		return nil, err
	}
	metrics.RecordKeyPair(types.AlgorithmEC.String(), kp.Curve)
	g.opts.logger.Debug("key pair generated",
		logger.String("id", kp.ID.String()),
		logger.String("algorithm", kp.Algorithm.String()),
		logger.String("curve", kp.Curve))
	return kp, nil
}

func (g *ECGenerator) generate() (*KeyPair, error) {
	if g.curve == nil {
		return nil, ErrNotInitialized
	}
	curve := *g.curve

	priv, err := g.engine.GenerateECKeyPair(curve.Name)
	if err != nil {
		return nil, fmt.Errorf("%w: curve %s: %w", ErrGenerationFailure, curve.Name, err)
	}
	if priv == nil {
		return nil, fmt.Errorf("%w: curve %s: engine returned no key", ErrGenerationFailure, curve.Name)
	}

	id, err := uuid.NewRandom()
	if err != nil {
		return nil, fmt.Errorf("%w: key id: %w", ErrGenerationFailure, err)
	}

	return &KeyPair{
		ID:          id,
		Algorithm:   types.AlgorithmEC,
		Curve:       curve.Name,
		KeySizeBits: curve.KeySizeBits,
		Public:      &priv.PublicKey,
		Private:     priv,
		CreatedAt:   g.opts.clock(),
	}, nil
}
