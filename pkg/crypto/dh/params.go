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
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"

	"golang.org/x/crypto/cryptobyte"
	cryptobyte_asn1 "golang.org/x/crypto/cryptobyte/asn1"
)

// PEMTypeParameters is the PEM block type for PKCS #3 parameters.
const PEMTypeParameters = "DH PARAMETERS"

// ErrMalformedParameters is returned when DHParameter DER cannot be parsed.
var ErrMalformedParameters = errors.New("dh: malformed DHParameter")

// AddASN1 appends the PKCS #3 DHParameter structure
//
//	DHParameter ::= SEQUENCE {
//	    prime INTEGER,
//	    base INTEGER,
//	    privateValueLength INTEGER OPTIONAL }
//
// to b. The optional length is written only when L is non-zero.
func (g *Group) AddASN1(b *cryptobyte.Builder) {
	b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1BigInt(g.P)
		b.AddASN1BigInt(g.G)
		if g.L > 0 {
			b.AddASN1Int64(int64(g.L))
		}
	})
}

// ReadParameters consumes one DHParameter SEQUENCE from s.
func ReadParameters(s *cryptobyte.String) (*Group, error) {
	var seq cryptobyte.String
	if !s.ReadASN1(&seq, cryptobyte_asn1.SEQUENCE) {
		return nil, ErrMalformedParameters
	}

	p, g := new(big.Int), new(big.Int)
	if !seq.ReadASN1Integer(p) || !seq.ReadASN1Integer(g) {
		return nil, ErrMalformedParameters
	}

	group := &Group{P: p, G: g}
	if !seq.Empty() {
		var l int
		if !seq.ReadASN1Integer(&l) || l < 0 {
			return nil, ErrMalformedParameters
		}
		group.L = l
	}
	if !seq.Empty() {
		return nil, fmt.Errorf("%w: trailing data", ErrMalformedParameters)
	}
	if p.Sign() <= 0 || g.Sign() <= 0 {
		return nil, fmt.Errorf("%w: prime and base must be positive", ErrMalformedParameters)
	}
	return group, nil
}

// MarshalParameters returns the DER encoding of the group.
func (g *Group) MarshalParameters() ([]byte, error) {
	if g == nil || g.P == nil || g.G == nil {
		return nil, ErrInvalidGroup
	}
	var b cryptobyte.Builder
	g.AddASN1(&b)
	return b.Bytes()
}

// MarshalParametersPEM returns the group as a "DH PARAMETERS" PEM block.
func (g *Group) MarshalParametersPEM() ([]byte, error) {
	der, err := g.MarshalParameters()
	if err != nil {
		return nil, err
	}
	return pem.EncodeToMemory(&pem.Block{Type: PEMTypeParameters, Bytes: der}), nil
}

// ParseParameters parses a DER encoded DHParameter.
func ParseParameters(der []byte) (*Group, error) {
	s := cryptobyte.String(der)
	group, err := ReadParameters(&s)
	if err != nil {
		return nil, err
	}
	if !s.Empty() {
		return nil, fmt.Errorf("%w: trailing data", ErrMalformedParameters)
	}
	return group, nil
}

// ParseParametersPEM parses the first "DH PARAMETERS" block in data.
func ParseParametersPEM(data []byte) (*Group, error) {
	rest := data
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			return nil, fmt.Errorf("%w: no %s block found", ErrMalformedParameters, PEMTypeParameters)
		}
		if block.Type == PEMTypeParameters {
			return ParseParameters(block.Bytes)
		}
	}
}
