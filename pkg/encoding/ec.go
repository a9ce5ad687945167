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
	"encoding/asn1"
	"errors"
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2"
	"golang.org/x/crypto/cryptobyte"
	cryptobyte_asn1 "golang.org/x/crypto/cryptobyte/asn1"

	"github.com/jeremyhahn/go-keypairgen/pkg/types"
)

const ecPrivKeyVersion = 1

var (
	errPointEncoding  = errors.New("invalid uncompressed point")
	errScalarEncoding = errors.New("private scalar out of range")
)

// marshalPoint returns the SEC 1 uncompressed encoding 0x04 || X || Y. The
// result is validated by parsing it back so off-curve keys never encode.
func marshalPoint(c *namedCurve, pub *ecdsa.PublicKey) ([]byte, error) {
	n := c.byteLen()
	if pub.X == nil || pub.Y == nil || pub.X.Sign() < 0 || pub.Y.Sign() < 0 ||
		pub.X.BitLen() > 8*n || pub.Y.BitLen() > 8*n {
		return nil, errPointEncoding
	}
	out := make([]byte, 1+2*n)
	out[0] = 4
	pub.X.FillBytes(out[1 : 1+n])
	pub.Y.FillBytes(out[1+n:])

	if _, err := parsePoint(c, out); err != nil {
		return nil, err
	}
	return out, nil
}

func parsePoint(c *namedCurve, data []byte) (*ecdsa.PublicKey, error) {
	n := c.byteLen()
	if len(data) != 1+2*n || data[0] != 4 {
		return nil, errPointEncoding
	}

	switch {
	case c.nist != nil:
		if _, err := c.nist.NewPublicKey(data); err != nil {
			return nil, fmt.Errorf("%w: %v", errPointEncoding, err)
		}
	case c.name == types.CurveSecp256k1:
		if _, err := btcec.ParsePubKey(data); err != nil {
			return nil, fmt.Errorf("%w: %v", errPointEncoding, err)
		}
	default:
		x := new(big.Int).SetBytes(data[1 : 1+n])
		y := new(big.Int).SetBytes(data[1+n:])
		if !c.curve.IsOnCurve(x, y) {
			return nil, errPointEncoding
		}
	}

	return &ecdsa.PublicKey{
		Curve: c.curve,
		X:     new(big.Int).SetBytes(data[1 : 1+n]),
		Y:     new(big.Int).SetBytes(data[1+n:]),
	}, nil
}

// privateFromScalar rebuilds a private key, public point included, from
// its big-endian scalar.
func privateFromScalar(c *namedCurve, d []byte) (*ecdsa.PrivateKey, error) {
	n := c.byteLen()
	if len(d) > n {
		return nil, errScalarEncoding
	}
	k := new(big.Int).SetBytes(d)
	if k.Sign() == 0 || k.Cmp(c.curve.Params().N) >= 0 {
		return nil, errScalarEncoding
	}
	padded := k.FillBytes(make([]byte, n))

	switch {
	case c.nist != nil:
		priv, err := c.nist.NewPrivateKey(padded)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errScalarEncoding, err)
		}
		pub, err := parsePoint(c, priv.PublicKey().Bytes())
		if err != nil {
			return nil, err
		}
		return &ecdsa.PrivateKey{PublicKey: *pub, D: k}, nil
	case c.name == types.CurveSecp256k1:
		priv, _ := btcec.PrivKeyFromBytes(padded)
		return priv.ToECDSA(), nil
	default:
		x, y := c.curve.ScalarBaseMult(padded)
		return &ecdsa.PrivateKey{
			PublicKey: ecdsa.PublicKey{Curve: c.curve, X: x, Y: y},
			D:         k,
		}, nil
	}
}

func marshalECPublicKey(pub *ecdsa.PublicKey) ([]byte, error) {
	c := lookupCurve(pub.Curve)
	if c == nil {
		return nil, ErrUnsupportedKey
	}
	point, err := marshalPoint(c, pub)
	if err != nil {
		return nil, err
	}

	var b cryptobyte.Builder
	b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
			b.AddASN1ObjectIdentifier(OIDPublicKeyECDSA)
			b.AddASN1ObjectIdentifier(c.oid)
		})
		b.AddASN1BitString(point)
	})
	return b.Bytes()
}

// marshalECPrivateKey writes a PKCS #8 PrivateKeyInfo wrapping the RFC 5915
//
//	ECPrivateKey ::= SEQUENCE {
//	    version        INTEGER { ecPrivkeyVer1(1) },
//	    privateKey     OCTET STRING,
//	    parameters [0] ECParameters OPTIONAL,
//	    publicKey  [1] BIT STRING OPTIONAL }
//
// The curve travels in the outer AlgorithmIdentifier, so [0] is omitted.
func marshalECPrivateKey(priv *ecdsa.PrivateKey) ([]byte, error) {
	c := lookupCurve(priv.Curve)
	if c == nil {
		return nil, ErrUnsupportedKey
	}
	if priv.D == nil || priv.D.Sign() <= 0 || priv.D.Cmp(c.curve.Params().N) >= 0 {
		return nil, errScalarEncoding
	}
	point, err := marshalPoint(c, &priv.PublicKey)
	if err != nil {
		return nil, err
	}
	scalar := priv.D.FillBytes(make([]byte, c.byteLen()))

	var b cryptobyte.Builder
	b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1Int64(pkcs8Version)
		b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
			b.AddASN1ObjectIdentifier(OIDPublicKeyECDSA)
			b.AddASN1ObjectIdentifier(c.oid)
		})
		b.AddASN1(cryptobyte_asn1.OCTET_STRING, func(b *cryptobyte.Builder) {
			b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
				b.AddASN1Int64(ecPrivKeyVersion)
				b.AddASN1OctetString(scalar)
				b.AddASN1(cryptobyte_asn1.Tag(1).Constructed().ContextSpecific(), func(b *cryptobyte.Builder) {
					b.AddASN1BitString(point)
				})
			})
		})
	})
	return b.Bytes()
}

// readECAlgorithmParameters reads the namedCurve OID that follows
// id-ecPublicKey in an AlgorithmIdentifier.
func readECAlgorithmParameters(params *cryptobyte.String) (*namedCurve, error) {
	if !params.PeekASN1Tag(cryptobyte_asn1.OBJECT_IDENTIFIER) {
		return nil, errors.New("explicit curve parameters are not supported")
	}
	var id asn1.ObjectIdentifier
	if !params.ReadASN1ObjectIdentifier(&id) || !params.Empty() {
		return nil, errors.New("malformed namedCurve parameter")
	}
	c := curveFromOID(id)
	if c == nil {
		return nil, fmt.Errorf("%w: curve %s", ErrUnsupportedKey, id)
	}
	return c, nil
}

func parseECPublicKey(params *cryptobyte.String, point []byte) (*ecdsa.PublicKey, error) {
	c, err := readECAlgorithmParameters(params)
	if err != nil {
		return nil, err
	}
	return parsePoint(c, point)
}

// parseECPrivateKey parses the RFC 5915 structure found inside the PKCS #8
// OCTET STRING. An embedded public key must match the scalar.
func parseECPrivateKey(params *cryptobyte.String, der []byte) (*ecdsa.PrivateKey, error) {
	c, err := readECAlgorithmParameters(params)
	if err != nil {
		return nil, err
	}

	input := cryptobyte.String(der)
	var (
		seq     cryptobyte.String
		version int
		scalar  cryptobyte.String
	)
	if !input.ReadASN1(&seq, cryptobyte_asn1.SEQUENCE) || !input.Empty() ||
		!seq.ReadASN1Integer(&version) || version != ecPrivKeyVersion ||
		!seq.ReadASN1(&scalar, cryptobyte_asn1.OCTET_STRING) {
		return nil, errors.New("malformed ECPrivateKey")
	}

	var (
		embeddedParams cryptobyte.String
		hasParams      bool
		embeddedPub    cryptobyte.String
		hasPub         bool
	)
	if !seq.ReadOptionalASN1(&embeddedParams, &hasParams, cryptobyte_asn1.Tag(0).Constructed().ContextSpecific()) ||
		!seq.ReadOptionalASN1(&embeddedPub, &hasPub, cryptobyte_asn1.Tag(1).Constructed().ContextSpecific()) ||
		!seq.Empty() {
		return nil, errors.New("malformed ECPrivateKey")
	}
	if hasParams {
		inner, err := readECAlgorithmParameters(&embeddedParams)
		if err != nil {
			return nil, err
		}
		if inner != c {
			return nil, errors.New("ECPrivateKey parameters disagree with algorithm identifier")
		}
	}

	priv, err := privateFromScalar(c, scalar)
	if err != nil {
		return nil, err
	}

	if hasPub {
		var pubBits asn1.BitString
		if !embeddedPub.ReadASN1BitString(&pubBits) || !embeddedPub.Empty() {
			return nil, errors.New("malformed ECPrivateKey public key")
		}
		pub, err := parsePoint(c, pubBits.RightAlign())
		if err != nil {
			return nil, err
		}
		if !pub.Equal(&priv.PublicKey) {
			return nil, errors.New("ECPrivateKey public key does not match private scalar")
		}
	}
	return priv, nil
}
