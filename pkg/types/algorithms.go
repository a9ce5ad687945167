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

// Package types defines the algorithm and curve identifiers shared by the
// key pair generators, the capability registry and the key codec.
package types

import (
	"strings"
)

// =============================================================================
// Algorithm Identifiers
// =============================================================================

// Algorithm identifies an asymmetric key pair family.
type Algorithm string

const (
	// AlgorithmEC is the elliptic curve family, parameterized by a named curve.
	AlgorithmEC Algorithm = "EC"

	// AlgorithmDH is finite field Diffie-Hellman, parameterized by an
	// explicit group (prime, base, optional private value length).
	AlgorithmDH Algorithm = "DH"
)

// String returns the string representation.
func (a Algorithm) String() string {
	return string(a)
}

// Lower returns the lowercase form of the algorithm string.
func (a Algorithm) Lower() string {
	return strings.ToLower(string(a))
}

// Equals performs case-insensitive comparison.
func (a Algorithm) Equals(s string) bool {
	return strings.EqualFold(string(a), s)
}

// algorithmAliases maps accepted provider names to their family.
var algorithmAliases = map[string]Algorithm{
	"ec":            AlgorithmEC,
	"ecdh":          AlgorithmEC,
	"ecdsa":         AlgorithmEC,
	"dh":            AlgorithmDH,
	"diffiehellman": AlgorithmDH,
}

// ParseAlgorithm resolves a provider algorithm name. Matching is
// case-insensitive. The boolean result is false for unknown names.
func ParseAlgorithm(name string) (Algorithm, bool) {
	alg, ok := algorithmAliases[strings.ToLower(strings.TrimSpace(name))]
	return alg, ok
}

// AvailableAlgorithms returns every algorithm family known to this module.
func AvailableAlgorithms() []Algorithm {
	return []Algorithm{AlgorithmEC, AlgorithmDH}
}

// =============================================================================
// Curve Names
// =============================================================================
// Curve names use the SEC 2 / X9.62 / RFC 5639 canonical lowercase form
// (secp256r1, prime239v1, brainpoolp256r1).

// Curve is a canonical named curve identifier.
type Curve string

const (
	CurveSecp112r1 Curve = "secp112r1"
	CurveSecp112r2 Curve = "secp112r2"
	CurveSecp128r1 Curve = "secp128r1"
	CurveSecp128r2 Curve = "secp128r2"
	CurveSecp160r1 Curve = "secp160r1"
	CurveSecp160k1 Curve = "secp160k1"
	CurveSecp192r1 Curve = "secp192r1"
	CurveSecp192k1 Curve = "secp192k1"
	CurveSecp224r1 Curve = "secp224r1"
	CurveSecp224k1 Curve = "secp224k1"
	CurveSecp256r1 Curve = "secp256r1"
	CurveSecp256k1 Curve = "secp256k1"
	CurveSecp384r1 Curve = "secp384r1"
	CurveSecp521r1 Curve = "secp521r1"

	CurvePrime192v2 Curve = "prime192v2"
	CurvePrime192v3 Curve = "prime192v3"
	CurvePrime239v1 Curve = "prime239v1"
	CurvePrime239v2 Curve = "prime239v2"
	CurvePrime239v3 Curve = "prime239v3"

	CurveBrainpoolP160r1 Curve = "brainpoolp160r1"
	CurveBrainpoolP192r1 Curve = "brainpoolp192r1"
	CurveBrainpoolP224r1 Curve = "brainpoolp224r1"
	CurveBrainpoolP256r1 Curve = "brainpoolp256r1"
	CurveBrainpoolP320r1 Curve = "brainpoolp320r1"
	CurveBrainpoolP384r1 Curve = "brainpoolp384r1"
	CurveBrainpoolP512r1 Curve = "brainpoolp512r1"
)

// String returns the string representation.
func (c Curve) String() string {
	return string(c)
}

// Lower returns the lowercase form of the curve name.
func (c Curve) Lower() string {
	return strings.ToLower(string(c))
}

// Equals performs case-insensitive comparison.
func (c Curve) Equals(s string) bool {
	return strings.EqualFold(string(c), s)
}

// nistAliases maps NIST and X9.62 aliases to their SEC 2 names.
var nistAliases = map[string]Curve{
	"p-192":      CurveSecp192r1,
	"prime192v1": CurveSecp192r1,
	"p-224":      CurveSecp224r1,
	"p-256":      CurveSecp256r1,
	"prime256v1": CurveSecp256r1,
	"p-384":      CurveSecp384r1,
	"p-521":      CurveSecp521r1,
}

// CanonicalCurve normalizes a curve name: it lowercases the input and
// resolves NIST/X9.62 aliases such as "P-256" or "prime256v1".
func CanonicalCurve(name string) Curve {
	lower := strings.ToLower(strings.TrimSpace(name))
	if c, ok := nistAliases[lower]; ok {
		return c
	}
	return Curve(lower)
}

// NISTName returns the FIPS 186 name (P-256, ...) for NIST prime curves,
// or an empty string when the curve has none.
func (c Curve) NISTName() string {
	switch CanonicalCurve(string(c)) {
	case CurveSecp192r1:
		return "P-192"
	case CurveSecp224r1:
		return "P-224"
	case CurveSecp256r1:
		return "P-256"
	case CurveSecp384r1:
		return "P-384"
	case CurveSecp521r1:
		return "P-521"
	default:
		return ""
	}
}

// CurveFamily groups curves by the standard that defines them.
type CurveFamily string

const (
	FamilySEC       CurveFamily = "SEC"
	FamilyX962      CurveFamily = "X9.62"
	FamilyBrainpool CurveFamily = "Brainpool"
)

// Family returns the defining standard for the curve.
func (c Curve) Family() CurveFamily {
	lower := c.Lower()
	switch {
	case strings.HasPrefix(lower, "brainpool"):
		return FamilyBrainpool
	case strings.HasPrefix(lower, "prime"):
		return FamilyX962
	default:
		return FamilySEC
	}
}
