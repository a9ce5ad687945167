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

package dh

import (
	"encoding/asn1"
	"encoding/pem"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pkcs3Params mirrors DHParameter for encoding/asn1 cross checks.
type pkcs3Params struct {
	P *big.Int
	G *big.Int
	L int `asn1:"optional"`
}

func TestParseParametersPEM_Fixture(t *testing.T) {
	group := loadGroup(t, "dh2048.pem")
	assert.Equal(t, 2048, group.BitLen())
	assert.Equal(t, int64(2), group.G.Int64())
	assert.Equal(t, 0, group.L)
	assert.True(t, group.P.ProbablyPrime(20))
	assert.NoError(t, group.Validate())

	withL := loadGroup(t, "dh2048-l512.pem")
	assert.Equal(t, 512, withL.L)
	assert.True(t, group.Equal(withL))
}

func TestMarshalParameters_MatchesEncodingASN1(t *testing.T) {
	group := &Group{P: big.NewInt(23), G: big.NewInt(5), L: 4}

	der, err := group.MarshalParameters()
	require.NoError(t, err)

	var decoded pkcs3Params
	rest, err := asn1.Unmarshal(der, &decoded)
	require.NoError(t, err)
	assert.Empty(t, rest)
	assert.Equal(t, int64(23), decoded.P.Int64())
	assert.Equal(t, int64(5), decoded.G.Int64())
	assert.Equal(t, 4, decoded.L)

	reference, err := asn1.Marshal(decoded)
	require.NoError(t, err)
	assert.Equal(t, reference, der)
}

func TestMarshalParameters_OmitsZeroLength(t *testing.T) {
	group := &Group{P: big.NewInt(23), G: big.NewInt(5)}
	der, err := group.MarshalParameters()
	require.NoError(t, err)

	reference, err := asn1.Marshal(struct{ P, G *big.Int }{group.P, group.G})
	require.NoError(t, err)
	assert.Equal(t, reference, der)

	parsed, err := ParseParameters(der)
	require.NoError(t, err)
	assert.Equal(t, 0, parsed.L)
}

func TestParametersPEM_RoundTrip(t *testing.T) {
	group := loadGroup(t, "dh2048-l512.pem")

	data, err := group.MarshalParametersPEM()
	require.NoError(t, err)

	block, _ := pem.Decode(data)
	require.NotNil(t, block)
	assert.Equal(t, PEMTypeParameters, block.Type)

	parsed, err := ParseParametersPEM(data)
	require.NoError(t, err)
	assert.True(t, group.Equal(parsed))
	assert.Equal(t, group.L, parsed.L)
}

func TestParseParameters_Malformed(t *testing.T) {
	trailing, err := (&Group{P: big.NewInt(23), G: big.NewInt(5)}).MarshalParameters()
	require.NoError(t, err)
	trailing = append(trailing, 0x00)

	negative, err := asn1.Marshal(struct{ P, G *big.Int }{big.NewInt(-23), big.NewInt(5)})
	require.NoError(t, err)

	extraField, err := asn1.Marshal(struct{ P, G, L, X *big.Int }{
		big.NewInt(23), big.NewInt(5), big.NewInt(4), big.NewInt(1),
	})
	require.NoError(t, err)

	tests := []struct {
		name string
		der  []byte
	}{
		{"empty", nil},
		{"not a sequence", []byte{0x02, 0x01, 0x05}},
		{"truncated", []byte{0x30, 0x05, 0x02, 0x01}},
		{"trailing bytes", trailing},
		{"negative prime", negative},
		{"extra field", extraField},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseParameters(tt.der)
			assert.ErrorIs(t, err, ErrMalformedParameters)
		})
	}
}

func TestParseParametersPEM_NoBlock(t *testing.T) {
	_, err := ParseParametersPEM([]byte("not pem"))
	assert.ErrorIs(t, err, ErrMalformedParameters)

	other := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: []byte{0x30, 0x00}})
	_, err = ParseParametersPEM(other)
	assert.ErrorIs(t, err, ErrMalformedParameters)
}

func TestMarshalParameters_Nil(t *testing.T) {
	_, err := (*Group)(nil).MarshalParameters()
	assert.ErrorIs(t, err, ErrInvalidGroup)

	_, err = (&Group{P: big.NewInt(23)}).MarshalParametersPEM()
	assert.ErrorIs(t, err, ErrInvalidGroup)
}
