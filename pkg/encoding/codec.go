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

// Package encoding serializes generated key pairs. Public keys are written
// as DER SubjectPublicKeyInfo and private keys as unencrypted PKCS #8
// PrivateKeyInfo. EC keys use id-ecPublicKey with a namedCurve OID and DH
// keys use dhKeyAgreement with PKCS #3 parameters, so the output is readable
// by OpenSSL and by crypto/x509 for the NIST curves.
package encoding

import (
	"crypto"
	"crypto/ecdsa"
	"encoding/asn1"
	"errors"
	"fmt"

	"golang.org/x/crypto/cryptobyte"
	cryptobyte_asn1 "golang.org/x/crypto/cryptobyte/asn1"

	"github.com/jeremyhahn/go-keypairgen/pkg/crypto/dh"
)

const pkcs8Version = 0

// EncodePublic encodes a public key to DER SubjectPublicKeyInfo.
//
// Supported key types: *ecdsa.PublicKey, *dh.PublicKey
func EncodePublic(key crypto.PublicKey) ([]byte, error) {
	var (
		der []byte
		err error
	)
	switch k := key.(type) {
	case *ecdsa.PublicKey:
		if k == nil {
			return nil, encodeErr(errors.New("nil public key"))
		}
		der, err = marshalECPublicKey(k)
	case *dh.PublicKey:
		if k == nil {
			return nil, encodeErr(errors.New("nil public key"))
		}
		der, err = marshalDHPublicKey(k)
	default:
		return nil, encodeErr(fmt.Errorf("%w: %T", ErrUnsupportedKey, key))
	}
	if err != nil {
		return nil, encodeErr(err)
	}
	return der, nil
}

// EncodePrivate encodes a private key to DER PKCS #8 PrivateKeyInfo.
//
// Supported key types: *ecdsa.PrivateKey, *dh.PrivateKey
func EncodePrivate(key crypto.PrivateKey) ([]byte, error) {
	var (
		der []byte
		err error
	)
	switch k := key.(type) {
	case *ecdsa.PrivateKey:
		if k == nil {
			return nil, encodeErr(errors.New("nil private key"))
		}
		der, err = marshalECPrivateKey(k)
	case *dh.PrivateKey:
		if k == nil {
			return nil, encodeErr(errors.New("nil private key"))
		}
		der, err = marshalDHPrivateKey(k)
	default:
		return nil, encodeErr(fmt.Errorf("%w: %T", ErrUnsupportedKey, key))
	}
	if err != nil {
		return nil, encodeErr(err)
	}
	return der, nil
}

// DecodePublic parses a DER SubjectPublicKeyInfo. The result is an
// *ecdsa.PublicKey or a *dh.PublicKey depending on the algorithm OID.
func DecodePublic(der []byte) (crypto.PublicKey, error) {
	if len(der) == 0 {
		return nil, decodeErr(errors.New("empty input"))
	}

	input := cryptobyte.String(der)
	var (
		spki   cryptobyte.String
		algID  cryptobyte.String
		algOID asn1.ObjectIdentifier
		bits   asn1.BitString
	)
	if !input.ReadASN1(&spki, cryptobyte_asn1.SEQUENCE) || !input.Empty() ||
		!spki.ReadASN1(&algID, cryptobyte_asn1.SEQUENCE) ||
		!algID.ReadASN1ObjectIdentifier(&algOID) ||
		!spki.ReadASN1BitString(&bits) || !spki.Empty() {
		return nil, decodeErr(errors.New("malformed SubjectPublicKeyInfo"))
	}
	if bits.BitLength%8 != 0 {
		return nil, decodeErr(errors.New("public key BIT STRING is not byte aligned"))
	}

	var (
		pub crypto.PublicKey
		err error
	)
	switch {
	case algOID.Equal(OIDPublicKeyECDSA):
		pub, err = parseECPublicKey(&algID, bits.Bytes)
	case algOID.Equal(OIDDHKeyAgreement):
		pub, err = parseDHPublicKey(&algID, bits.Bytes)
	default:
		err = fmt.Errorf("%w: algorithm %s", ErrUnsupportedKey, algOID)
	}
	if err != nil {
		return nil, decodeErr(err)
	}
	return pub, nil
}

// DecodePrivate parses an unencrypted DER PKCS #8 PrivateKeyInfo. The
// result is an *ecdsa.PrivateKey or a *dh.PrivateKey.
func DecodePrivate(der []byte) (crypto.PrivateKey, error) {
	if len(der) == 0 {
		return nil, decodeErr(errors.New("empty input"))
	}

	input := cryptobyte.String(der)
	var (
		info    cryptobyte.String
		version int
		algID   cryptobyte.String
		algOID  asn1.ObjectIdentifier
		key     cryptobyte.String
	)
	if !input.ReadASN1(&info, cryptobyte_asn1.SEQUENCE) || !input.Empty() ||
		!info.ReadASN1Integer(&version) ||
		!info.ReadASN1(&algID, cryptobyte_asn1.SEQUENCE) ||
		!algID.ReadASN1ObjectIdentifier(&algOID) ||
		!info.ReadASN1(&key, cryptobyte_asn1.OCTET_STRING) {
		return nil, decodeErr(errors.New("malformed PrivateKeyInfo"))
	}
	if version != pkcs8Version {
		return nil, decodeErr(fmt.Errorf("unsupported PrivateKeyInfo version %d", version))
	}
	// Attributes [0] may follow; they carry nothing this codec uses.
	if !info.SkipOptionalASN1(cryptobyte_asn1.Tag(0).Constructed().ContextSpecific()) || !info.Empty() {
		return nil, decodeErr(errors.New("trailing data in PrivateKeyInfo"))
	}

	var (
		priv crypto.PrivateKey
		err  error
	)
	switch {
	case algOID.Equal(OIDPublicKeyECDSA):
		priv, err = parseECPrivateKey(&algID, key)
	case algOID.Equal(OIDDHKeyAgreement):
		priv, err = parseDHPrivateKey(&algID, key)
	default:
		err = fmt.Errorf("%w: algorithm %s", ErrUnsupportedKey, algOID)
	}
	if err != nil {
		return nil, decodeErr(err)
	}
	return priv, nil
}

func encodeErr(err error) error {
	return fmt.Errorf("%w: %w", ErrEncodingFailure, err)
}

func decodeErr(err error) error {
	return fmt.Errorf("%w: %w", ErrDecodingFailure, err)
}
