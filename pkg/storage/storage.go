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

// Package storage is the key-value layer behind the key store. Keys are
// slash separated paths such as "keys/<id>/meta.json".
package storage

import (
	"io/fs"
)

// Backend stores opaque values by key. Implementations must be safe for
// concurrent use.
type Backend interface {
	// Get returns the value for key, or ErrNotFound.
	Get(key string) ([]byte, error)

	// Put stores value under key, replacing any previous value.
	Put(key string, value []byte, opts *Options) error

	// Delete removes key, or returns ErrNotFound.
	Delete(key string) error

	// List returns the keys that start with prefix in sorted order. An
	// empty prefix lists everything.
	List(prefix string) ([]string, error)

	// Exists reports whether key is present.
	Exists(key string) (bool, error)

	// Close releases the backend. Later calls return ErrClosed.
	Close() error
}

// Options tune a single Put.
type Options struct {
	// Permissions is the file mode used by file backends. Zero selects the
	// backend default.
	Permissions fs.FileMode
}

// DefaultOptions returns owner read/write permissions.
func DefaultOptions() *Options {
	return &Options{Permissions: 0600}
}
