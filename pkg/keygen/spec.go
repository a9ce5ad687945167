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
	"math/big"

	"github.com/jeremyhahn/go-keypairgen/pkg/crypto/dh"
)

// ParameterSpec is the argument to Generator.Initialize. The concrete
// types are ECParameterSpec, KeySizeSpec and DHGroupSpec.
type ParameterSpec interface {
	parameterSpec()
}

// ECParameterSpec selects a curve either by name or by key size. Exactly
// one of the fields must be set.
type ECParameterSpec struct {
	// CurveName is a catalog name such as "secp256r1". NIST aliases
	// ("P-256") are accepted. Matching ignores case.
	CurveName string

	// KeySize selects the first enabled curve of this many bits.
	KeySize int
}

func (ECParameterSpec) parameterSpec() {}

func (s ECParameterSpec) String() string {
	if s.CurveName != "" {
		return s.CurveName
	}
	return fmt.Sprintf("%d-bit", s.KeySize)
}

// KeySizeSpec is a bare key size in bits. EC generators resolve it through
// the capability registry; DH generators reject it.
type KeySizeSpec int

func (KeySizeSpec) parameterSpec() {}

// DHGroupSpec carries explicit DH domain parameters.
//
// Initialize requires Prime to be odd and greater than 3, and Base to lie
// in [2, Prime-2]. Bases 1 and Prime-1 are rejected even though they are
// positive and below Prime: they generate subgroups of order at most 2.
// Primality of Prime is checked by the engine at Generate time.
type DHGroupSpec struct {
	Prime *big.Int
	Base  *big.Int

	// PrivateValueLength is the bit length of generated private values.
	// Zero means unspecified.
	PrivateValueLength int
}

func (DHGroupSpec) parameterSpec() {}

// DHGroupSpecFromGroup converts parsed group parameters into a spec.
func DHGroupSpecFromGroup(g *dh.Group) DHGroupSpec {
	if g == nil {
		return DHGroupSpec{}
	}
	c := g.Clone()
	return DHGroupSpec{Prime: c.P, Base: c.G, PrivateValueLength: c.L}
}

// Group returns a deep copy of the spec as a dh.Group.
func (s DHGroupSpec) Group() *dh.Group {
	return (&dh.Group{P: s.Prime, G: s.Base, L: s.PrivateValueLength}).Clone()
}
