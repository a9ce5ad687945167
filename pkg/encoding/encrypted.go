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
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"fmt"
	"strings"

	"github.com/youmark/pkcs8"
)

// EncodeEncryptedPrivate encodes a private key as an encrypted PKCS #8
// EncryptedPrivateKeyInfo (PBES2, PBKDF2 with AES-256-CBC).
//
// Only keys on the NIST curves are supported. DH and secp256k1 keys are
// rejected with ErrUnsupportedKey.
func EncodeEncryptedPrivate(key crypto.PrivateKey, password []byte) ([]byte, error) {
	if len(password) == 0 {
		return nil, encodeErr(ErrPasswordRequired)
	}
	ec, ok := key.(*ecdsa.PrivateKey)
	if !ok || ec == nil || !isNISTCurve(ec.Curve) {
		return nil, encodeErr(fmt.Errorf("%w: encrypted PKCS #8 supports NIST curve keys only", ErrUnsupportedKey))
	}

	der, err := pkcs8.MarshalPrivateKey(ec, password, nil)
	if err != nil {
		return nil, encodeErr(fmt.Errorf("failed to marshal encrypted PKCS #8: %w", err))
	}
	return der, nil
}

// DecodeEncryptedPrivate decrypts and parses an EncryptedPrivateKeyInfo.
func DecodeEncryptedPrivate(der []byte, password []byte) (crypto.PrivateKey, error) {
	if len(der) == 0 {
		return nil, decodeErr(ErrInvalidPEMEncoding)
	}
	if len(password) == 0 {
		return nil, decodeErr(ErrPasswordRequired)
	}

	key, err := pkcs8.ParsePKCS8PrivateKey(der, password)
	if err != nil {
		if isPasswordError(err) {
			return nil, decodeErr(ErrInvalidPassword)
		}
		return nil, decodeErr(fmt.Errorf("failed to parse encrypted PKCS #8: %w", err))
	}

	ec, ok := key.(*ecdsa.PrivateKey)
	if !ok {
		return nil, decodeErr(fmt.Errorf("%w: %T", ErrUnsupportedKey, key))
	}
	return ec, nil
}

func isNISTCurve(curve elliptic.Curve) bool {
	c := lookupCurve(curve)
	return c != nil && c.curve.Params().Name != "secp256k1"
}

// isPasswordError reports whether err looks like a wrong password. The
// pkcs8 package does not export typed errors.
func isPasswordError(err error) bool {
	msg := err.Error()
	for _, s := range []string{"incorrect password", "asn1: structure error", "tags don't match"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
