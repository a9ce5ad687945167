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

// Package dh implements finite field Diffie-Hellman over caller supplied
// groups (PKCS #3).
//
// There are no built-in groups. A Group is always provided explicitly, either
// in code or loaded from a PKCS #3 "DH PARAMETERS" file:
//
//	group, _ := dh.ParseParametersPEM(pemBytes)
//	alice, _ := dh.GenerateKey(group, rand.Reader)
//	bob, _ := dh.GenerateKey(group, rand.Reader)
//
//	s1, _ := dh.ComputeSharedSecret(alice, &bob.PublicKey)
//	s2, _ := dh.ComputeSharedSecret(bob, &alice.PublicKey)
//	// s1 == s2
//
//	key, _ := dh.DeriveKey(s1, nil, []byte("session"), 32)
package dh

import (
	"crypto"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/jeremyhahn/go-keypairgen/pkg/crypto/ecdh"
)

var (
	// ErrInvalidGroup is returned when group parameters are structurally unusable.
	ErrInvalidGroup = errors.New("dh: invalid group parameters")

	// ErrInvalidPublicKey is returned when a public value is outside (1, p-1).
	ErrInvalidPublicKey = errors.New("dh: invalid public value")

	// ErrInvalidPrivateKey is returned when a private key is nil or malformed.
	ErrInvalidPrivateKey = errors.New("dh: invalid private key")

	// ErrGroupMismatch is returned when two keys belong to different groups.
	ErrGroupMismatch = errors.New("dh: group mismatch")
)

var (
	one = big.NewInt(1)
	two = big.NewInt(2)
)

// Group holds the domain parameters of a DH group. L is the private value
// length in bits; zero means unspecified.
type Group struct {
	P *big.Int
	G *big.Int
	L int
}

// BitLen returns the size of the modulus in bits.
func (g *Group) BitLen() int {
	if g == nil || g.P == nil {
		return 0
	}
	return g.P.BitLen()
}

// Validate performs the structural checks on the group: p odd and > 3,
// 2 <= g <= p-2, and L either 0 or between 2 and bitlen(p). It does not test
// primality.
func (g *Group) Validate() error {
	if g == nil || g.P == nil || g.G == nil {
		return fmt.Errorf("%w: prime and base are required", ErrInvalidGroup)
	}
	if g.P.Sign() <= 0 || g.P.Cmp(big.NewInt(3)) <= 0 || g.P.Bit(0) == 0 {
		return fmt.Errorf("%w: prime must be an odd integer greater than 3", ErrInvalidGroup)
	}
	pMinus2 := new(big.Int).Sub(g.P, two)
	if g.G.Cmp(two) < 0 || g.G.Cmp(pMinus2) > 0 {
		return fmt.Errorf("%w: base must be in [2, p-2]", ErrInvalidGroup)
	}
	if g.L < 0 || g.L == 1 || g.L > g.P.BitLen() {
		return fmt.Errorf("%w: private value length %d out of range for %d-bit prime",
			ErrInvalidGroup, g.L, g.P.BitLen())
	}
	return nil
}

// Equal reports whether both groups share p and g. L is a generation hint
// and does not affect key compatibility.
func (g *Group) Equal(o *Group) bool {
	if g == nil || o == nil || g.P == nil || o.P == nil || g.G == nil || o.G == nil {
		return false
	}
	return g.P.Cmp(o.P) == 0 && g.G.Cmp(o.G) == 0
}

// Clone returns a deep copy of the group.
func (g *Group) Clone() *Group {
	if g == nil {
		return nil
	}
	c := &Group{L: g.L}
	if g.P != nil {
		c.P = new(big.Int).Set(g.P)
	}
	if g.G != nil {
		c.G = new(big.Int).Set(g.G)
	}
	return c
}

// CheckPublicValue verifies 1 < y < p-1.
func (g *Group) CheckPublicValue(y *big.Int) error {
	if y == nil {
		return ErrInvalidPublicKey
	}
	pMinus1 := new(big.Int).Sub(g.P, one)
	if y.Cmp(one) <= 0 || y.Cmp(pMinus1) >= 0 {
		return ErrInvalidPublicKey
	}
	return nil
}

// PublicKey is a DH public value bound to its group.
type PublicKey struct {
	Params Group
	Y      *big.Int
}

// Equal reports whether pub and x have the same group and value.
func (pub *PublicKey) Equal(x crypto.PublicKey) bool {
	other, ok := x.(*PublicKey)
	if !ok || pub.Y == nil || other.Y == nil {
		return false
	}
	return pub.Params.Equal(&other.Params) && pub.Y.Cmp(other.Y) == 0
}

// PrivateKey is a DH private value with its public counterpart.
type PrivateKey struct {
	PublicKey
	X *big.Int
}

// Public returns the public key corresponding to priv.
func (priv *PrivateKey) Public() crypto.PublicKey {
	return &priv.PublicKey
}

// Equal reports whether priv and x hold the same private value in the same group.
func (priv *PrivateKey) Equal(x crypto.PrivateKey) bool {
	other, ok := x.(*PrivateKey)
	if !ok || priv.X == nil || other.X == nil {
		return false
	}
	return priv.PublicKey.Equal(&other.PublicKey) && priv.X.Cmp(other.X) == 0
}

// maxKeyAttempts bounds the redraws when y = g^x mod p is 1 or p-1.
const maxKeyAttempts = 64

// GenerateKey draws a private value from random and computes y = g^x mod p.
//
// When group.L is set and smaller than bitlen(p), x has exactly L bits.
// Otherwise x is uniform in [2, p-2]. Private values whose public value
// fails CheckPublicValue are discarded and drawn again.
func GenerateKey(group *Group, random io.Reader) (*PrivateKey, error) {
	if err := group.Validate(); err != nil {
		return nil, err
	}
	if random == nil {
		random = rand.Reader
	}

	params := group.Clone()
	for i := 0; i < maxKeyAttempts; i++ {
		x, err := privateValue(params, random)
		if err != nil {
			return nil, fmt.Errorf("dh: failed to draw private value: %w", err)
		}

		// Small order bases can land on 1 or p-1, which peers reject.
		y := new(big.Int).Exp(params.G, x, params.P)
		if params.CheckPublicValue(y) != nil {
			continue
		}
		return &PrivateKey{
			PublicKey: PublicKey{Params: *params, Y: y},
			X:         x,
		}, nil
	}
	return nil, fmt.Errorf("%w: no usable public value after %d attempts", ErrInvalidGroup, maxKeyAttempts)
}

func privateValue(group *Group, random io.Reader) (*big.Int, error) {
	if group.L == 0 || group.L >= group.P.BitLen() {
		// [0, p-4] + 2 = [2, p-2]
		limit := new(big.Int).Sub(group.P, big.NewInt(3))
		x, err := rand.Int(random, limit)
		if err != nil {
			return nil, err
		}
		return x.Add(x, two), nil
	}

	top := new(big.Int).Lsh(one, uint(group.L-1))
	x, err := rand.Int(random, top)
	if err != nil {
		return nil, err
	}
	return x.Add(x, top), nil
}

// ComputeSharedSecret returns peer.Y^priv.X mod p, left padded to the byte
// length of p.
func ComputeSharedSecret(priv *PrivateKey, peer *PublicKey) ([]byte, error) {
	if priv == nil || priv.X == nil {
		return nil, ErrInvalidPrivateKey
	}
	if peer == nil {
		return nil, ErrInvalidPublicKey
	}
	if !priv.Params.Equal(&peer.Params) {
		return nil, ErrGroupMismatch
	}
	if err := priv.Params.CheckPublicValue(peer.Y); err != nil {
		return nil, err
	}

	z := new(big.Int).Exp(peer.Y, priv.X, priv.Params.P)
	if z.Cmp(one) <= 0 {
		return nil, fmt.Errorf("%w: degenerate shared secret", ErrInvalidPublicKey)
	}

	out := make([]byte, (priv.Params.P.BitLen()+7)/8)
	return z.FillBytes(out), nil
}

// DeriveKey expands a shared secret with HKDF-SHA256. It applies the same
// derivation and input checks as ecdh.DeriveKey.
func DeriveKey(sharedSecret, salt, info []byte, keyLength int) ([]byte, error) {
	return ecdh.DeriveKey(sharedSecret, salt, info, keyLength)
}
