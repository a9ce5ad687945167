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

// Package primitives is the cryptographic primitives engine: it reports
// which curves it can operate on and performs the EC scalar multiplication
// and DH modular exponentiation behind key generation.
package primitives

import (
	"crypto/ecdsa"
	"errors"

	"github.com/jeremyhahn/go-keypairgen/pkg/crypto/dh"
)

var (
	// ErrUnsupportedCurve is returned for curves the engine cannot operate on.
	ErrUnsupportedCurve = errors.New("primitives: unsupported curve")

	// ErrInvalidGroup is returned when a DH group fails the engine's checks.
	ErrInvalidGroup = errors.New("primitives: invalid DH group")

	// ErrDHDisabled is returned when DH support has been switched off.
	ErrDHDisabled = errors.New("primitives: DH disabled")

	// ErrRandomSource is returned when the randomness source fails.
	ErrRandomSource = errors.New("primitives: random source failure")
)

// Engine performs the low-level key generation math.
//
// Implementations must be safe for concurrent use: one engine is shared by
// every generator in the process.
type Engine interface {
	// Name identifies the engine in logs and metrics.
	Name() string

	// CurveKeySize returns the key size in bits of the named curve, or 0
	// (possibly with an error) when the curve is not available.
	CurveKeySize(name string) (int, error)

	// GenerateECKeyPair creates a fresh key pair on the named curve.
	GenerateECKeyPair(curve string) (*ecdsa.PrivateKey, error)

	// GenerateDHKeyPair creates a fresh key pair in the given group.
	GenerateDHKeyPair(group *dh.Group) (*dh.PrivateKey, error)
}

// DHReporter is implemented by engines that can report whether DH is
// compiled in or enabled.
type DHReporter interface {
	DHEnabled() bool
}
