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
	"errors"
	"math/big"

	"golang.org/x/crypto/cryptobyte"
	cryptobyte_asn1 "golang.org/x/crypto/cryptobyte/asn1"

	"github.com/jeremyhahn/go-keypairgen/pkg/crypto/dh"
)

var two = big.NewInt(2)

// marshalDHPublicKey writes
//
//	SubjectPublicKeyInfo ::= SEQUENCE {
//	    algorithm AlgorithmIdentifier { dhKeyAgreement, DHParameter },
//	    subjectPublicKey BIT STRING (containing INTEGER y) }
func marshalDHPublicKey(pub *dh.PublicKey) ([]byte, error) {
	if err := pub.Params.Validate(); err != nil {
		return nil, err
	}
	if err := pub.Params.CheckPublicValue(pub.Y); err != nil {
		return nil, err
	}

	var inner cryptobyte.Builder
	inner.AddASN1BigInt(pub.Y)
	value, err := inner.Bytes()
	if err != nil {
		return nil, err
	}

	var b cryptobyte.Builder
	b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		addDHAlgorithmIdentifier(b, &pub.Params)
		b.AddASN1BitString(value)
	})
	return b.Bytes()
}

// marshalDHPrivateKey writes a PKCS #8 PrivateKeyInfo whose privateKey
// OCTET STRING holds INTEGER x.
func marshalDHPrivateKey(priv *dh.PrivateKey) ([]byte, error) {
	if err := priv.Params.Validate(); err != nil {
		return nil, err
	}
	if err := checkPrivateValue(&priv.Params, priv.X); err != nil {
		return nil, err
	}

	var b cryptobyte.Builder
	b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1Int64(pkcs8Version)
		addDHAlgorithmIdentifier(b, &priv.Params)
		b.AddASN1(cryptobyte_asn1.OCTET_STRING, func(b *cryptobyte.Builder) {
			b.AddASN1BigInt(priv.X)
		})
	})
	return b.Bytes()
}

func addDHAlgorithmIdentifier(b *cryptobyte.Builder, group *dh.Group) {
	b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1ObjectIdentifier(OIDDHKeyAgreement)
		group.AddASN1(b)
	})
}

func readDHAlgorithmParameters(params *cryptobyte.String) (*dh.Group, error) {
	group, err := dh.ReadParameters(params)
	if err != nil {
		return nil, err
	}
	if !params.Empty() {
		return nil, errors.New("trailing data after DHParameter")
	}
	if err := group.Validate(); err != nil {
		return nil, err
	}
	return group, nil
}

func parseDHPublicKey(params *cryptobyte.String, value []byte) (*dh.PublicKey, error) {
	group, err := readDHAlgorithmParameters(params)
	if err != nil {
		return nil, err
	}

	s := cryptobyte.String(value)
	y := new(big.Int)
	if !s.ReadASN1Integer(y) || !s.Empty() {
		return nil, errors.New("malformed DH public value")
	}
	if err := group.CheckPublicValue(y); err != nil {
		return nil, err
	}
	return &dh.PublicKey{Params: *group, Y: y}, nil
}

// parseDHPrivateKey recomputes y = g^x mod p from the decoded private value.
func parseDHPrivateKey(params *cryptobyte.String, value []byte) (*dh.PrivateKey, error) {
	group, err := readDHAlgorithmParameters(params)
	if err != nil {
		return nil, err
	}

	s := cryptobyte.String(value)
	x := new(big.Int)
	if !s.ReadASN1Integer(x) || !s.Empty() {
		return nil, errors.New("malformed DH private value")
	}
	if err := checkPrivateValue(group, x); err != nil {
		return nil, err
	}

	y := new(big.Int).Exp(group.G, x, group.P)
	return &dh.PrivateKey{
		PublicKey: dh.PublicKey{Params: *group, Y: y},
		X:         x,
	}, nil
}

// checkPrivateValue verifies 2 <= x <= p-2.
func checkPrivateValue(group *dh.Group, x *big.Int) error {
	if x == nil || x.Cmp(two) < 0 || x.Cmp(new(big.Int).Sub(group.P, two)) > 0 {
		return dh.ErrInvalidPrivateKey
	}
	return nil
}
