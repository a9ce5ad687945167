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
	"errors"

	"github.com/jeremyhahn/go-keypairgen/pkg/encoding"
)

var (
	// ErrUnsupportedAlgorithm is returned when no generator exists for the
	// requested algorithm name.
	ErrUnsupportedAlgorithm = errors.New("keygen: unsupported algorithm")

	// ErrUnsupportedParameter is returned by Initialize for parameter specs
	// the generator cannot use. The generator state is left unchanged.
	ErrUnsupportedParameter = errors.New("keygen: unsupported parameter")

	// ErrNotInitialized is returned by Generate before a successful Initialize.
	ErrNotInitialized = errors.New("keygen: generator not initialized")

	// ErrGenerationFailure wraps errors raised by the primitives engine.
	ErrGenerationFailure = errors.New("keygen: key generation failed")

	// ErrEncodingFailure and ErrDecodingFailure are the codec errors,
	// re-exported so callers can match every failure from this package.
	ErrEncodingFailure = encoding.ErrEncodingFailure
	ErrDecodingFailure = encoding.ErrDecodingFailure
)

// errorType maps an error to the metrics error_type label.
func errorType(err error) string {
	switch {
	case errors.Is(err, ErrUnsupportedAlgorithm):
		return "unsupported_algorithm"
	case errors.Is(err, ErrUnsupportedParameter):
		return "unsupported_parameter"
	case errors.Is(err, ErrNotInitialized):
		return "not_initialized"
	case errors.Is(err, ErrGenerationFailure):
		return "generation_failure"
	case errors.Is(err, ErrEncodingFailure):
		return "encoding_failure"
	case errors.Is(err, ErrDecodingFailure):
		return "decoding_failure"
	default:
		return "unknown"
	}
}
