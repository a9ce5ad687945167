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

package primitives

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	cryptorand "crypto/rand"
	"fmt"
	"io"
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2"

	"github.com/jeremyhahn/go-keypairgen/pkg/crypto/dh"
	"github.com/jeremyhahn/go-keypairgen/pkg/crypto/rand"
	"github.com/jeremyhahn/go-keypairgen/pkg/types"
)

// primeRounds is the Miller-Rabin round count applied to DH moduli.
const primeRounds = 20

// SoftwareEngine is the pure Go engine. It supports the NIST prime curves
// from crypto/elliptic and secp256k1 through btcec. Every other catalog
// curve reports a key size of zero.
type SoftwareEngine struct {
	random    io.Reader
	curves    map[types.Curve]elliptic.Curve
	dhEnabled bool
}

var (
	_ Engine     = (*SoftwareEngine)(nil)
	_ DHReporter = (*SoftwareEngine)(nil)
)

// Option configures a SoftwareEngine.
type Option func(*SoftwareEngine)

// WithRandom sets the randomness source. The reader must be safe for
// concurrent use; rand.Resolver implementations are.
func WithRandom(r io.Reader) Option {
	return func(e *SoftwareEngine) {
		if r != nil {
			e.random = r
		}
	}
}

// WithCurves restricts the engine to the named curves. Names the engine
// does not implement are ignored.
func WithCurves(names ...string) Option {
	return func(e *SoftwareEngine) {
		allowed := make(map[types.Curve]elliptic.Curve, len(names))
		for _, n := range names {
			c := types.CanonicalCurve(n)
			if impl, ok := e.curves[c]; ok {
				allowed[c] = impl
			}
		}
		e.curves = allowed
	}
}

// WithoutDH disables DH key generation.
func WithoutDH() Option {
	return func(e *SoftwareEngine) {
		e.dhEnabled = false
	}
}

// NewSoftwareEngine returns an engine drawing randomness from the auto mode
// resolver unless WithRandom is supplied.
func NewSoftwareEngine(opts ...Option) (*SoftwareEngine, error) {
	e := &SoftwareEngine{
		curves:    builtinCurves(),
		dhEnabled: true,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.random == nil {
		resolver, err := rand.NewResolver(rand.ModeAuto)
		if err != nil {
			return nil, fmt.Errorf("primitives: failed to create RNG resolver: %w", err)
		}
		e.random = resolver
	}
	return e, nil
}

func builtinCurves() map[types.Curve]elliptic.Curve {
	return map[types.Curve]elliptic.Curve{
		types.CurveSecp224r1: elliptic.P224(),
		types.CurveSecp256r1: elliptic.P256(),
		types.CurveSecp384r1: elliptic.P384(),
		types.CurveSecp521r1: elliptic.P521(),
		types.CurveSecp256k1: btcec.S256(),
	}
}

// Name returns "software".
func (e *SoftwareEngine) Name() string {
	return "software"
}

// DHEnabled reports whether DH generation is available.
func (e *SoftwareEngine) DHEnabled() bool {
	return e.dhEnabled
}

// CurveKeySize returns the bit size of the named curve.
func (e *SoftwareEngine) CurveKeySize(name string) (int, error) {
	curve, err := e.curve(name)
	if err != nil {
		return 0, err
	}
	return curve.Params().BitSize, nil
}

// GenerateECKeyPair creates a fresh key pair on the named curve.
func (e *SoftwareEngine) GenerateECKeyPair(name string) (*ecdsa.PrivateKey, error) {
	curve, err := e.curve(name)
	if err != nil {
		return nil, err
	}

	if types.CanonicalCurve(name) == types.CurveSecp256k1 {
		return e.generateSecp256k1()
	}

	priv, err := ecdsa.GenerateKey(curve, e.random)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRandomSource, err)
	}
	return priv, nil
}

// generateSecp256k1 draws d uniformly from [1, N-1] and derives the public
// point with btcec.
func (e *SoftwareEngine) generateSecp256k1() (*ecdsa.PrivateKey, error) {
	n := btcec.S256().Params().N
	limit := new(big.Int).Sub(n, big.NewInt(1))

	d, err := cryptorand.Int(e.random, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRandomSource, err)
	}
	d.Add(d, big.NewInt(1))

	var scalar [32]byte
	priv, _ := btcec.PrivKeyFromBytes(d.FillBytes(scalar[:]))
	return priv.ToECDSA(), nil
}

// GenerateDHKeyPair checks the group and generates a key pair in it.
func (e *SoftwareEngine) GenerateDHKeyPair(group *dh.Group) (*dh.PrivateKey, error) {
	if !e.dhEnabled {
		return nil, ErrDHDisabled
	}
	if err := group.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGroup, err)
	}
	if !group.P.ProbablyPrime(primeRounds) {
		return nil, fmt.Errorf("%w: modulus is not prime", ErrInvalidGroup)
	}

	priv, err := dh.GenerateKey(group, e.random)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRandomSource, err)
	}
	return priv, nil
}

func (e *SoftwareEngine) curve(name string) (elliptic.Curve, error) {
	curve, ok := e.curves[types.CanonicalCurve(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCurve, name)
	}
	return curve, nil
}
