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

package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// =============================================================================
// Algorithm Tests
// =============================================================================

func TestAlgorithm_String(t *testing.T) {
	assert.Equal(t, "EC", AlgorithmEC.String())
	assert.Equal(t, "DH", AlgorithmDH.String())
	assert.Equal(t, "ec", AlgorithmEC.Lower())
	assert.Equal(t, "dh", AlgorithmDH.Lower())
}

func TestAlgorithm_Equals(t *testing.T) {
	assert.True(t, AlgorithmEC.Equals("ec"))
	assert.True(t, AlgorithmDH.Equals("Dh"))
	assert.False(t, AlgorithmEC.Equals("DH"))
}

func TestParseAlgorithm(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   Algorithm
		wantOK bool
	}{
		{"EC", "EC", AlgorithmEC, true},
		{"lowercase ec", "ec", AlgorithmEC, true},
		{"ECDH alias", "ECDH", AlgorithmEC, true},
		{"DH", "DH", AlgorithmDH, true},
		{"DiffieHellman alias", "DiffieHellman", AlgorithmDH, true},
		{"padded", "  dh ", AlgorithmDH, true},
		{"unknown", "NotValid", "", false},
		{"empty", "", "", false},
		{"RSA", "RSA", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseAlgorithm(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAvailableAlgorithms(t *testing.T) {
	assert.Equal(t, []Algorithm{AlgorithmEC, AlgorithmDH}, AvailableAlgorithms())
}

// =============================================================================
// Curve Tests
// =============================================================================

func TestCanonicalCurve(t *testing.T) {
	tests := []struct {
		input string
		want  Curve
	}{
		{"secp256r1", CurveSecp256r1},
		{"SECP256R1", CurveSecp256r1},
		{"P-256", CurveSecp256r1},
		{"prime256v1", CurveSecp256r1},
		{"P-384", CurveSecp384r1},
		{"p-521", CurveSecp521r1},
		{"P-224", CurveSecp224r1},
		{"prime192v1", CurveSecp192r1},
		{"BrainpoolP256r1", CurveBrainpoolP256r1},
		{"secp256k1", CurveSecp256k1},
		{"unknown", Curve("unknown")},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, CanonicalCurve(tt.input))
		})
	}
}

func TestCurve_NISTName(t *testing.T) {
	assert.Equal(t, "P-256", CurveSecp256r1.NISTName())
	assert.Equal(t, "P-521", CurveSecp521r1.NISTName())
	assert.Equal(t, "P-224", Curve("SECP224R1").NISTName())
	assert.Empty(t, CurveSecp256k1.NISTName())
	assert.Empty(t, CurveBrainpoolP256r1.NISTName())
}

func TestCurve_Family(t *testing.T) {
	assert.Equal(t, FamilySEC, CurveSecp256r1.Family())
	assert.Equal(t, FamilySEC, CurveSecp160k1.Family())
	assert.Equal(t, FamilyX962, CurvePrime239v1.Family())
	assert.Equal(t, FamilyBrainpool, CurveBrainpoolP512r1.Family())
}

func TestCurve_Equals(t *testing.T) {
	assert.True(t, CurveSecp384r1.Equals("SecP384R1"))
	assert.False(t, CurveSecp384r1.Equals("secp384k1"))
	assert.Equal(t, "brainpoolp320r1", CurveBrainpoolP320r1.String())
}
