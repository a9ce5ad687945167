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

package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBackend_CRUD(t *testing.T) {
	m := NewMemory()

	require.NoError(t, m.Put("keys/a/meta.json", []byte("one"), nil))
	require.NoError(t, m.Put("keys/b/meta.json", []byte("two"), DefaultOptions()))
	require.NoError(t, m.Put("other", []byte("three"), nil))

	got, err := m.Get("keys/a/meta.json")
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), got)

	got[0] = 'X'
	again, err := m.Get("keys/a/meta.json")
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), again)

	keys, err := m.List("keys/")
	require.NoError(t, err)
	assert.Equal(t, []string{"keys/a/meta.json", "keys/b/meta.json"}, keys)

	all, err := m.List("")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	ok, err := m.Exists("other")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, m.Delete("other"))
	assert.ErrorIs(t, m.Delete("other"), ErrNotFound)
	_, err = m.Get("other")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryBackend_PutCopiesValue(t *testing.T) {
	m := NewMemory()
	value := []byte("abc")
	require.NoError(t, m.Put("k", value, nil))
	value[0] = 'z'

	got, err := m.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), got)
}

func TestMemoryBackend_Closed(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.Close())
	require.NoError(t, m.Close())

	_, err := m.Get("k")
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, m.Put("k", nil, nil), ErrClosed)
	assert.ErrorIs(t, m.Delete("k"), ErrClosed)
	_, err = m.List("")
	assert.ErrorIs(t, err, ErrClosed)
	_, err = m.Exists("k")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestValidateKey(t *testing.T) {
	tests := []struct {
		key   string
		valid bool
	}{
		{"keys/abc/public.pem", true},
		{"meta.json", true},
		{"", false},
		{"/etc/passwd", false},
		{`\windows`, false},
		{"../escape", false},
		{"keys/../../escape", false},
		{`keys\..\escape`, false},
		{"keys//double", false},
		{"keys/./dot", false},
		{"nul\x00byte", false},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			err := ValidateKey(tt.key)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidKey)
			}
		})
	}

	assert.ErrorIs(t, NewMemory().Put("../x", nil, nil), ErrInvalidKey)
	assert.Equal(t, "keys/id/meta.json", Join("keys", "id", "meta.json"))
}
