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

package keygen

import (
	"crypto"
	"crypto/ecdsa"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jeremyhahn/go-keypairgen/pkg/crypto/dh"
	"github.com/jeremyhahn/go-keypairgen/pkg/encoding"
	"github.com/jeremyhahn/go-keypairgen/pkg/metrics"
	"github.com/jeremyhahn/go-keypairgen/pkg/types"
)

// KeyPair is one generated key pair. Every Generate call returns a new
// KeyPair that shares nothing with the generator or with earlier pairs.
type KeyPair struct {
	ID        uuid.UUID
	Algorithm types.Algorithm

	// Curve is the catalog name of the curve for EC pairs.
	Curve string

	// Group holds the domain parameters for DH pairs.
	Group *dh.Group

	// KeySizeBits is the curve size for EC and the modulus size for DH.
	KeySizeBits int

	// Public is an *ecdsa.PublicKey or a *dh.PublicKey.
	Public crypto.PublicKey

	// Private is an *ecdsa.PrivateKey or a *dh.PrivateKey.
	Private crypto.PrivateKey

	CreatedAt time.Time
}

// Parameter names the domain parameters: the curve for EC pairs and
// "dh<bits>" for DH pairs.
func (kp *KeyPair) Parameter() string {
	if kp.Algorithm == types.AlgorithmDH {
		return fmt.Sprintf("dh%d", kp.KeySizeBits)
	}
	return kp.Curve
}

// ECPrivateKey returns the private key of an EC pair.
func (kp *KeyPair) ECPrivateKey() (*ecdsa.PrivateKey, bool) {
	k, ok := kp.Private.(*ecdsa.PrivateKey)
	return k, ok
}

// DHPrivateKey returns the private key of a DH pair.
func (kp *KeyPair) DHPrivateKey() (*dh.PrivateKey, bool) {
	k, ok := kp.Private.(*dh.PrivateKey)
	return k, ok
}

// PublicDER returns the public key as DER SubjectPublicKeyInfo.
func (kp *KeyPair) PublicDER() ([]byte, error) {
	return kp.encode(func() ([]byte, error) { return encoding.EncodePublic(kp.Public) })
}

// PrivateDER returns the private key as DER PKCS #8.
func (kp *KeyPair) PrivateDER() ([]byte, error) {
	return kp.encode(func() ([]byte, error) { return encoding.EncodePrivate(kp.Private) })
}

// PublicPEM returns the public key as a "PUBLIC KEY" PEM block.
func (kp *KeyPair) PublicPEM() ([]byte, error) {
	return kp.encode(func() ([]byte, error) { return encoding.EncodePublicPEM(kp.Public) })
}

// PrivatePEM returns the private key as PEM, encrypted when password is set.
func (kp *KeyPair) PrivatePEM(password []byte) ([]byte, error) {
	return kp.encode(func() ([]byte, error) { return encoding.EncodePrivatePEM(kp.Private, password) })
}

func (kp *KeyPair) encode(fn func() ([]byte, error)) ([]byte, error) {
	start := time.Now()
	out, err := fn()
	record(metrics.OpEncode, kp.Algorithm, start, err)
	return out, err
}
