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
	"crypto/ecdh"
	"crypto/elliptic"
	"encoding/asn1"

	"github.com/btcsuite/btcd/btcec/v2"

	"github.com/jeremyhahn/go-keypairgen/pkg/types"
)

var (
	// OIDPublicKeyECDSA is id-ecPublicKey from RFC 5480.
	OIDPublicKeyECDSA = asn1.ObjectIdentifier{1, 2, 840, 10045, 2, 1}

	// OIDDHKeyAgreement is dhKeyAgreement from PKCS #3.
	OIDDHKeyAgreement = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 3, 1}

	oidNamedCurveP224      = asn1.ObjectIdentifier{1, 3, 132, 0, 33}
	oidNamedCurveP256      = asn1.ObjectIdentifier{1, 2, 840, 10045, 3, 1, 7}
	oidNamedCurveP384      = asn1.ObjectIdentifier{1, 3, 132, 0, 34}
	oidNamedCurveP521      = asn1.ObjectIdentifier{1, 3, 132, 0, 35}
	oidNamedCurveSecp256k1 = asn1.ObjectIdentifier{1, 3, 132, 0, 10}
)

// namedCurve ties a curve implementation to its name and OID. nist is nil
// for curves crypto/ecdh does not implement.
type namedCurve struct {
	name  types.Curve
	oid   asn1.ObjectIdentifier
	curve elliptic.Curve
	nist  ecdh.Curve
}

func (c *namedCurve) byteLen() int {
	return (c.curve.Params().BitSize + 7) / 8
}

var namedCurves = []*namedCurve{
	{types.CurveSecp224r1, oidNamedCurveP224, elliptic.P224(), nil},
	{types.CurveSecp256r1, oidNamedCurveP256, elliptic.P256(), ecdh.P256()},
	{types.CurveSecp384r1, oidNamedCurveP384, elliptic.P384(), ecdh.P384()},
	{types.CurveSecp521r1, oidNamedCurveP521, elliptic.P521(), ecdh.P521()},
	{types.CurveSecp256k1, oidNamedCurveSecp256k1, btcec.S256(), nil},
}

func curveFromOID(oid asn1.ObjectIdentifier) *namedCurve {
	for _, c := range namedCurves {
		if c.oid.Equal(oid) {
			return c
		}
	}
	return nil
}

func lookupCurve(curve elliptic.Curve) *namedCurve {
	if curve == nil {
		return nil
	}
	for _, c := range namedCurves {
		if c.curve == curve || c.curve.Params().Name == curve.Params().Name {
			return c
		}
	}
	return nil
}

// CurveName returns the canonical name of a curve the codec can encode.
func CurveName(curve elliptic.Curve) (types.Curve, bool) {
	c := lookupCurve(curve)
	if c == nil {
		return "", false
	}
	return c.name, true
}

// CurveOID returns the namedCurve OID for a curve the codec can encode.
func CurveOID(curve elliptic.Curve) (asn1.ObjectIdentifier, bool) {
	c := lookupCurve(curve)
	if c == nil {
		return nil, false
	}
	return c.oid, true
}
