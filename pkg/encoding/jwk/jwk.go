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

// Package jwk exports generated EC key pairs as JSON Web Keys (RFC 7517)
// and computes RFC 7638 thumbprints. Only the curves registered for JOSE
// (P-256, P-384 and P-521) can be represented; DH keys have no JWK form.
package jwk

import (
	"crypto"
	"crypto/ecdsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-jose/go-jose/v4"
)

// ErrUnsupportedKey is returned for keys with no JWK representation.
var ErrUnsupportedKey = errors.New("jwk: unsupported key")

// Use values (RFC 7517 section 4.2)
const (
	UseSignature  = "sig"
	UseEncryption = "enc"
)

// Option configures a JWK before it is serialized.
type Option func(*jose.JSONWebKey)

// WithKeyID sets "kid". Without it the SHA-256 thumbprint is used.
func WithKeyID(kid string) Option {
	return func(k *jose.JSONWebKey) {
		k.KeyID = kid
	}
}

// WithUse sets "use" and the matching default "alg": ECDH-ES for key
// agreement, or the ES* algorithm for the curve when signing.
func WithUse(use string) Option {
	return func(k *jose.JSONWebKey) {
		k.Use = use
		k.Algorithm = ""
		if use == UseEncryption {
			k.Algorithm = string(jose.ECDH_ES)
			return
		}
		if alg, ok := signatureAlgorithm(k.Key); ok {
			k.Algorithm = string(alg)
		}
	}
}

// FromPublicKey wraps an EC public key. Keys default to use "enc" with
// alg "ECDH-ES" and kid set to the SHA-256 thumbprint.
func FromPublicKey(pub crypto.PublicKey, opts ...Option) (*jose.JSONWebKey, error) {
	if _, ok := pub.(*ecdsa.PublicKey); !ok {
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedKey, pub)
	}
	return newKey(pub, opts)
}

// FromPrivateKey wraps an EC private key. The result carries "d".
func FromPrivateKey(priv crypto.PrivateKey, opts ...Option) (*jose.JSONWebKey, error) {
	if _, ok := priv.(*ecdsa.PrivateKey); !ok {
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedKey, priv)
	}
	return newKey(priv, opts)
}

func newKey(key any, opts []Option) (*jose.JSONWebKey, error) {
	if _, ok := signatureAlgorithm(key); !ok {
		return nil, fmt.Errorf("%w: curve has no JOSE name", ErrUnsupportedKey)
	}
	k := &jose.JSONWebKey{Key: key}
	WithUse(UseEncryption)(k)
	for _, opt := range opts {
		opt(k)
	}
	if !k.Valid() {
		return nil, fmt.Errorf("%w: incomplete key", ErrUnsupportedKey)
	}

	if k.KeyID == "" {
		tp, err := k.Thumbprint(crypto.SHA256)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUnsupportedKey, err)
		}
		k.KeyID = base64.RawURLEncoding.EncodeToString(tp)
	}
	return k, nil
}

// Marshal returns the JSON form of key, which may be public or private.
func Marshal(key any, opts ...Option) ([]byte, error) {
	var (
		k   *jose.JSONWebKey
		err error
	)
	if _, private := key.(*ecdsa.PrivateKey); private {
		k, err = FromPrivateKey(key, opts...)
	} else {
		k, err = FromPublicKey(key, opts...)
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(k)
}

// Parse decodes a JSON Web Key.
func Parse(data []byte) (*jose.JSONWebKey, error) {
	var k jose.JSONWebKey
	if err := json.Unmarshal(data, &k); err != nil {
		return nil, fmt.Errorf("jwk: failed to parse: %w", err)
	}
	if !k.Valid() {
		return nil, fmt.Errorf("%w: invalid key parameters", ErrUnsupportedKey)
	}
	return &k, nil
}

// Thumbprint computes the base64url RFC 7638 thumbprint of pub.
func Thumbprint(pub crypto.PublicKey, hash crypto.Hash) (string, error) {
	k := jose.JSONWebKey{Key: pub}
	tp, err := k.Thumbprint(hash)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnsupportedKey, err)
	}
	return base64.RawURLEncoding.EncodeToString(tp), nil
}

// ThumbprintSHA256 is Thumbprint with SHA-256.
func ThumbprintSHA256(pub crypto.PublicKey) (string, error) {
	return Thumbprint(pub, crypto.SHA256)
}

func signatureAlgorithm(key any) (jose.SignatureAlgorithm, bool) {
	var pub *ecdsa.PublicKey
	switch k := key.(type) {
	case *ecdsa.PublicKey:
		pub = k
	case *ecdsa.PrivateKey:
		if k != nil {
			pub = &k.PublicKey
		}
	default:
		return "", false
	}
	if pub == nil || pub.Curve == nil {
		return "", false
	}
	switch pub.Curve.Params().Name {
	case "P-256":
		return jose.ES256, true
	case "P-384":
		return jose.ES384, true
	case "P-521":
		return jose.ES512, true
	}
	return "", false
}
