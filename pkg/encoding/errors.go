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

import "errors"

var (
	// ErrEncodingFailure is returned when a key cannot be serialized
	ErrEncodingFailure = errors.New("encoding: encoding failure")

	// ErrDecodingFailure is returned when data cannot be parsed back into a key
	ErrDecodingFailure = errors.New("encoding: decoding failure")

	// ErrUnsupportedKey is returned for key types or curves the codec does not know
	ErrUnsupportedKey = errors.New("encoding: unsupported key type")

	// ErrInvalidPEMEncoding is returned when PEM decoding fails
	ErrInvalidPEMEncoding = errors.New("encoding: invalid PEM encoding")

	// ErrPasswordRequired is returned when an encrypted key is decoded without a password
	ErrPasswordRequired = errors.New("encoding: password required")

	// ErrInvalidPassword is returned when a password does not decrypt the key
	ErrInvalidPassword = errors.New("encoding: invalid password")
)
