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
	"encoding/pem"
	"fmt"
)

// PEM block types
const (
	PEMTypePublicKey           = "PUBLIC KEY"
	PEMTypePrivateKey          = "PRIVATE KEY"
	PEMTypeEncryptedPrivateKey = "ENCRYPTED PRIVATE KEY"
)

// EncodePublicPEM encodes a public key as a "PUBLIC KEY" PEM block.
//
// Example:
//
//	pemData, err := encoding.EncodePublicPEM(kp.Public)
func EncodePublicPEM(key crypto.PublicKey) ([]byte, error) {
	der, err := EncodePublic(key)
	if err != nil {
		return nil, err
	}
	return pem.EncodeToMemory(&pem.Block{Type: PEMTypePublicKey, Bytes: der}), nil
}

// EncodePrivatePEM encodes a private key as a "PRIVATE KEY" PEM block.
// If a password is provided the key is encrypted and written as an
// "ENCRYPTED PRIVATE KEY" block instead.
//
// Example:
//
//	pemData, err := encoding.EncodePrivatePEM(kp.Private, []byte("password"))
func EncodePrivatePEM(key crypto.PrivateKey, password []byte) ([]byte, error) {
	if len(password) > 0 {
		der, err := EncodeEncryptedPrivate(key, password)
		if err != nil {
			return nil, err
		}
		return pem.EncodeToMemory(&pem.Block{Type: PEMTypeEncryptedPrivateKey, Bytes: der}), nil
	}

	der, err := EncodePrivate(key)
	if err != nil {
		return nil, err
	}
	return pem.EncodeToMemory(&pem.Block{Type: PEMTypePrivateKey, Bytes: der}), nil
}

// DecodePEM decodes the first key block in data. Public key blocks yield a
// crypto.PublicKey and private key blocks a crypto.PrivateKey. The password
// is only consulted for encrypted private keys.
func DecodePEM(data []byte, password []byte) (any, error) {
	if len(data) == 0 {
		return nil, decodeErr(ErrInvalidPEMEncoding)
	}

	rest := data
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			return nil, decodeErr(ErrInvalidPEMEncoding)
		}

		switch block.Type {
		case PEMTypePublicKey:
			return DecodePublic(block.Bytes)
		case PEMTypePrivateKey:
			return DecodePrivate(block.Bytes)
		case PEMTypeEncryptedPrivateKey:
			return DecodeEncryptedPrivate(block.Bytes, password)
		}
	}
}

// DecodePublicPEM decodes the first "PUBLIC KEY" block in data.
func DecodePublicPEM(data []byte) (crypto.PublicKey, error) {
	key, err := DecodePEM(data, nil)
	if err != nil {
		return nil, err
	}
	if _, isPrivate := key.(interface{ Public() crypto.PublicKey }); isPrivate {
		return nil, decodeErr(fmt.Errorf("%w: expected a %s block", ErrInvalidPEMEncoding, PEMTypePublicKey))
	}
	return key, nil
}

// DecodePrivatePEM decodes the first private key block in data.
func DecodePrivatePEM(data []byte, password []byte) (crypto.PrivateKey, error) {
	key, err := DecodePEM(data, password)
	if err != nil {
		return nil, err
	}
	if _, ok := key.(interface{ Public() crypto.PublicKey }); !ok {
		return nil, decodeErr(fmt.Errorf("%w: expected a private key block", ErrInvalidPEMEncoding))
	}
	return key, nil
}
