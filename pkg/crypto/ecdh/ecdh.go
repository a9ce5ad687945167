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

// Package ecdh performs Elliptic Curve Diffie-Hellman key agreement on key
// pairs produced by the EC generator, and derives symmetric keys from the
// shared secret with HKDF-SHA256.
//
// The NIST curves P-256, P-384 and P-521 go through crypto/ecdh. secp256k1
// goes through btcec. The shared secret is the big-endian x-coordinate of
// the agreed point, padded to the curve's byte length.
//
// Example usage:
//
//	alice, _ := gen.Generate()
//	bob, _ := gen.Generate()
//
//	secret, _ := ecdh.DeriveSharedSecret(alice.Private.(*ecdsa.PrivateKey),
//	    bob.Public.(*ecdsa.PublicKey))
//	encKey, _ := ecdh.DeriveKey(secret, nil, []byte("encryption"), 32)
package ecdh

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"github.com/btcsuite/btcd/btcec/v2"
	"golang.org/x/crypto/hkdf"
)

var (
	// ErrInvalidKey is returned for nil or malformed keys.
	ErrInvalidKey = errors.New("ecdh: invalid key")

	// ErrCurveMismatch is returned when the keys are on different curves.
	ErrCurveMismatch = errors.New("ecdh: curve mismatch")

	// ErrUnsupportedCurve is returned for curves with no agreement backend.
	ErrUnsupportedCurve = errors.New("ecdh: unsupported curve")
)

// DeriveSharedSecret performs ECDH between privateKey and publicKey and
// returns the raw shared secret.
//
// For actual encryption keys, use DeriveKey() with the returned shared secret.
func DeriveSharedSecret(privateKey *ecdsa.PrivateKey, publicKey *ecdsa.PublicKey) ([]byte, error) {
	if privateKey == nil || privateKey.D == nil || privateKey.Curve == nil {
		return nil, fmt.Errorf("%w: private key cannot be nil", ErrInvalidKey)
	}
	if publicKey == nil || publicKey.X == nil || publicKey.Y == nil || publicKey.Curve == nil {
		return nil, fmt.Errorf("%w: public key cannot be nil", ErrInvalidKey)
	}

	privName := privateKey.Curve.Params().Name
	pubName := publicKey.Curve.Params().Name
	if privName != pubName {
		return nil, fmt.Errorf("%w: private key uses %s, public key uses %s",
			ErrCurveMismatch, privName, pubName)
	}

	switch privName {
	case "P-256", "P-384", "P-521":
		return nistSharedSecret(privateKey, publicKey)
	case "secp256k1":
		return secp256k1SharedSecret(privateKey, publicKey)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCurve, privName)
	}
}

func nistSharedSecret(privateKey *ecdsa.PrivateKey, publicKey *ecdsa.PublicKey) ([]byte, error) {
	priv, err := privateKey.ECDH()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to convert private key: %w", ErrInvalidKey, err)
	}
	pub, err := publicKey.ECDH()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to convert public key: %w", ErrInvalidKey, err)
	}

	secret, err := priv.ECDH(pub)
	if err != nil {
		return nil, fmt.Errorf("ECDH operation failed: %w", err)
	}
	return secret, nil
}

func secp256k1SharedSecret(privateKey *ecdsa.PrivateKey, publicKey *ecdsa.PublicKey) ([]byte, error) {
	if privateKey.D.Sign() <= 0 || privateKey.D.Cmp(btcec.S256().N) >= 0 {
		return nil, fmt.Errorf("%w: private scalar out of range", ErrInvalidKey)
	}
	priv, _ := btcec.PrivKeyFromBytes(privateKey.D.FillBytes(make([]byte, 32)))

	if publicKey.X.BitLen() > 256 || publicKey.Y.BitLen() > 256 {
		return nil, fmt.Errorf("%w: coordinate too large", ErrInvalidKey)
	}
	point := make([]byte, 65)
	point[0] = 4
	publicKey.X.FillBytes(point[1:33])
	publicKey.Y.FillBytes(point[33:])
	pub, err := btcec.ParsePubKey(point)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}

	return btcec.GenerateSharedSecret(priv, pub), nil
}

// DeriveKey derives a key of the specified length from a shared secret using
// HKDF-SHA256 (HMAC-based Key Derivation Function).
//
// Parameters:
//   - sharedSecret: The raw shared secret from ECDH
//   - salt: Optional salt value (can be nil)
//   - info: Context-specific information (e.g., "encryption", "mac")
//   - keyLength: Desired output key length in bytes
//
// Example:
//
//	encKey, _ := DeriveKey(secret, nil, []byte("aes-256-gcm"), 32)
//	macKey, _ := DeriveKey(secret, nil, []byte("hmac-sha256"), 32)
func DeriveKey(sharedSecret, salt, info []byte, keyLength int) ([]byte, error) {
	if len(sharedSecret) == 0 {
		return nil, fmt.Errorf("shared secret cannot be empty")
	}
	if keyLength <= 0 {
		return nil, fmt.Errorf("key length must be positive, got %d", keyLength)
	}

	hkdfReader := hkdf.New(sha256.New, sharedSecret, salt, info)

	derivedKey := make([]byte, keyLength)
	if _, err := io.ReadFull(hkdfReader, derivedKey); err != nil {
		return nil, fmt.Errorf("HKDF derivation failed: %w", err)
	}

	return derivedKey, nil
}
