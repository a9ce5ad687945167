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

package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/go-keypairgen/pkg/storage"
)

func newMemStorage(t *testing.T) (*FileStorage, afero.Fs) {
	t.Helper()
	fsys := afero.NewMemMapFs()
	fs, err := NewWithFs(fsys, "/var/lib/keypairgen")
	require.NoError(t, err)
	return fs, fsys
}

func TestNew_EmptyRoot(t *testing.T) {
	_, err := NewWithFs(afero.NewMemMapFs(), "")
	assert.Error(t, err)
}

func TestNew_OsFs(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "store")
	fs, err := New(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, fs.Root())

	require.NoError(t, fs.Put("keys/id/private.pem", []byte("secret"), nil))
	info, err := os.Stat(filepath.Join(dir, "keys", "id", "private.pem"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestFileStorage_CRUD(t *testing.T) {
	fs, fsys := newMemStorage(t)

	require.NoError(t, fs.Put("keys/a/public.pem", []byte("pub"), nil))
	require.NoError(t, fs.Put("keys/a/meta.json", []byte("{}"), nil))
	require.NoError(t, fs.Put("keys/b/meta.json", []byte("{}"), nil))
	require.NoError(t, fs.Put("index", []byte("x"), &storage.Options{Permissions: 0640}))

	got, err := fs.Get("keys/a/public.pem")
	require.NoError(t, err)
	assert.Equal(t, []byte("pub"), got)

	ok, err := afero.Exists(fsys, "/var/lib/keypairgen/keys/a/public.pem")
	require.NoError(t, err)
	assert.True(t, ok)

	keys, err := fs.List("keys/")
	require.NoError(t, err)
	assert.Equal(t, []string{"keys/a/meta.json", "keys/a/public.pem", "keys/b/meta.json"}, keys)

	keys, err = fs.List("keys/a/")
	require.NoError(t, err)
	assert.Len(t, keys, 2)

	exists, err := fs.Exists("keys/b/meta.json")
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = fs.Exists("keys/c/meta.json")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = fs.Get("keys/c/meta.json")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestFileStorage_DeletePrunesEmptyDirectories(t *testing.T) {
	fs, fsys := newMemStorage(t)

	require.NoError(t, fs.Put("keys/a/meta.json", []byte("{}"), nil))
	require.NoError(t, fs.Put("keys/b/meta.json", []byte("{}"), nil))

	require.NoError(t, fs.Delete("keys/a/meta.json"))
	assert.ErrorIs(t, fs.Delete("keys/a/meta.json"), storage.ErrNotFound)

	gone, err := afero.DirExists(fsys, "/var/lib/keypairgen/keys/a")
	require.NoError(t, err)
	assert.False(t, gone)

	kept, err := afero.DirExists(fsys, "/var/lib/keypairgen/keys/b")
	require.NoError(t, err)
	assert.True(t, kept)
}

func TestFileStorage_RejectsInvalidKeys(t *testing.T) {
	fs, _ := newMemStorage(t)

	for _, key := range []string{"", "../outside", "/abs", "keys/../../x"} {
		assert.ErrorIs(t, fs.Put(key, []byte("x"), nil), storage.ErrInvalidKey, key)
		_, err := fs.Get(key)
		assert.ErrorIs(t, err, storage.ErrInvalidKey, key)
		_, err = fs.Exists(key)
		assert.ErrorIs(t, err, storage.ErrInvalidKey, key)
		assert.ErrorIs(t, fs.Delete(key), storage.ErrInvalidKey, key)
	}
}

func TestFileStorage_Closed(t *testing.T) {
	fs, _ := newMemStorage(t)
	require.NoError(t, fs.Put("k", []byte("v"), nil))
	require.NoError(t, fs.Close())

	_, err := fs.Get("k")
	assert.ErrorIs(t, err, storage.ErrClosed)
	assert.ErrorIs(t, fs.Put("k", nil, nil), storage.ErrClosed)
	assert.ErrorIs(t, fs.Delete("k"), storage.ErrClosed)
	_, err = fs.List("")
	assert.ErrorIs(t, err, storage.ErrClosed)
	_, err = fs.Exists("k")
	assert.ErrorIs(t, err, storage.ErrClosed)
}

func TestFileStorage_ConcurrentPut(t *testing.T) {
	fs, _ := newMemStorage(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := storage.Join("keys", string(rune('a'+i)), "meta.json")
			assert.NoError(t, fs.Put(key, []byte("{}"), nil))
		}(i)
	}
	wg.Wait()

	keys, err := fs.List("keys/")
	require.NoError(t, err)
	assert.Len(t, keys, 20)
}
