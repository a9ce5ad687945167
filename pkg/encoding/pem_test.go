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

package encoding

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/pem"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/go-keypairgen/pkg/crypto/dh"
)

func TestPEM_PublicAndPrivate(t *testing.T) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	pubPEM, err := EncodePublicPEM(&priv.PublicKey)
	require.NoError(t, err)
	block, _ := pem.Decode(pubPEM)
	require.NotNil(t, block)
	assert.Equal(t, PEMTypePublicKey, block.Type)

	privPEM, err := EncodePrivatePEM(priv, nil)
	require.NoError(t, err)
	block, _ = pem.Decode(privPEM)
	require.NotNil(t, block)
	assert.Equal(t, PEMTypePrivateKey, block.Type)

	pub, err := DecodePublicPEM(pubPEM)
	require.NoError(t, err)
	assert.True(t, priv.PublicKey.Equal(pub))

	decoded, err := DecodePrivatePEM(privPEM, nil)
	require.NoError(t, err)
	assert.True(t, priv.Equal(decoded))

	_, err = DecodePublicPEM(privPEM)
	assert.ErrorIs(t, err, ErrInvalidPEMEncoding)
	_, err = DecodePrivatePEM(pubPEM, nil)
	assert.ErrorIs(t, err, ErrInvalidPEMEncoding)
}

func TestPEM_DH(t *testing.T) {
	priv := generateDH(t, loadGroup(t, "dh2048.pem"))

	privPEM, err := EncodePrivatePEM(priv, nil)
	require.NoError(t, err)
	key, err := DecodePEM(privPEM, nil)
	require.NoError(t, err)
	assert.True(t, priv.Equal(key))

	pubPEM, err := EncodePublicPEM(priv.Public())
	require.NoError(t, err)
	key, err = DecodePEM(pubPEM, nil)
	require.NoError(t, err)
	_, ok := key.(*dh.PublicKey)
	assert.True(t, ok)
}

func TestDecodePEM_SkipsUnrelatedBlocks(t *testing.T) {
	group := loadGroup(t, "dh2048.pem")
	params, err := group.MarshalParametersPEM()
	require.NoError(t, err)

	priv := generateDH(t, group)
	pubPEM, err := EncodePublicPEM(priv.Public())
	require.NoError(t, err)

	key, err := DecodePEM(append(params, pubPEM...), nil)
	require.NoError(t, err)
	assert.True(t, priv.PublicKey.Equal(key))
}

func TestDecodePEM_Invalid(t *testing.T) {
	_, err := DecodePEM(nil, nil)
	assert.ErrorIs(t, err, ErrDecodingFailure)

	_, err = DecodePEM([]byte("not pem at all"), nil)
	assert.ErrorIs(t, err, ErrInvalidPEMEncoding)
}

func TestEncryptedPrivate_RoundTrip(t *testing.T) {
	priv, err := ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	require.NoError(t, err)
	password := []byte("correct horse")

	privPEM, err := EncodePrivatePEM(priv, password)
	require.NoError(t, err)
	block, _ := pem.Decode(privPEM)
	require.NotNil(t, block)
	assert.Equal(t, PEMTypeEncryptedPrivateKey, block.Type)

	decoded, err := DecodePrivatePEM(privPEM, password)
	require.NoError(t, err)
	assert.True(t, priv.Equal(decoded))

	_, err = DecodePrivatePEM(privPEM, nil)
	assert.ErrorIs(t, err, ErrPasswordRequired)

	_, err = DecodePrivatePEM(privPEM, []byte("wrong password"))
	assert.ErrorIs(t, err, ErrDecodingFailure)
}

func TestEncryptedPrivate_Unsupported(t *testing.T) {
	k, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	_, err = EncodeEncryptedPrivate(k.ToECDSA(), []byte("pw"))
	assert.ErrorIs(t, err, ErrUnsupportedKey)

	_, err = EncodeEncryptedPrivate(generateDH(t, loadGroup(t, "dh2048.pem")), []byte("pw"))
	assert.ErrorIs(t, err, ErrUnsupportedKey)

	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	_, err = EncodeEncryptedPrivate(priv, nil)
	assert.ErrorIs(t, err, ErrPasswordRequired)
}
