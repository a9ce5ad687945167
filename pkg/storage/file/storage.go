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

// Package file implements storage.Backend on an afero filesystem. Keys map
// to files below a root directory.
package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/afero"

	"github.com/jeremyhahn/go-keypairgen/pkg/storage"
)

const (
	defaultDirPerms = 0700

	// keys/* files hold private material.
	keysFilePerms = 0600
	defaultPerms  = 0644
)

// FileStorage stores each key as one file under rootDir.
type FileStorage struct {
	mu      sync.RWMutex
	fs      afero.Fs
	rootDir string
	closed  bool
}

var _ storage.Backend = (*FileStorage)(nil)

// New creates rootDir on the OS filesystem and returns a backend rooted there.
func New(rootDir string) (*FileStorage, error) {
	return NewWithFs(afero.NewOsFs(), rootDir)
}

// NewWithFs is New on an arbitrary afero filesystem. Tests pass
// afero.NewMemMapFs().
func NewWithFs(fsys afero.Fs, rootDir string) (*FileStorage, error) {
	if rootDir == "" {
		return nil, fmt.Errorf("file storage: root directory cannot be empty")
	}
	if err := fsys.MkdirAll(rootDir, defaultDirPerms); err != nil {
		return nil, fmt.Errorf("file storage: failed to create root directory: %w", err)
	}
	return &FileStorage{fs: fsys, rootDir: filepath.Clean(rootDir)}, nil
}

// Root returns the root directory.
func (f *FileStorage) Root() string {
	return f.rootDir
}

func (f *FileStorage) Get(key string) ([]byte, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.closed {
		return nil, storage.ErrClosed
	}
	p, err := f.keyToPath(key)
	if err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(f.fs, p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("file storage: failed to read key %q: %w", key, err)
	}
	return data, nil
}

// Put writes value to the file for key, creating parent directories. Files
// below keys/ are written 0600 unless opts says otherwise.
func (f *FileStorage) Put(key string, value []byte, opts *storage.Options) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return storage.ErrClosed
	}
	p, err := f.keyToPath(key)
	if err != nil {
		return err
	}
	if err := f.fs.MkdirAll(filepath.Dir(p), defaultDirPerms); err != nil {
		return fmt.Errorf("file storage: failed to create directory for key %q: %w", key, err)
	}
	if err := afero.WriteFile(f.fs, p, value, permissions(key, opts)); err != nil {
		return fmt.Errorf("file storage: failed to write key %q: %w", key, err)
	}
	return nil
}

// Delete removes the file for key and prunes parent directories left empty.
func (f *FileStorage) Delete(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return storage.ErrClosed
	}
	p, err := f.keyToPath(key)
	if err != nil {
		return err
	}
	if err := f.fs.Remove(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("file storage: failed to delete key %q: %w", key, err)
	}
	f.pruneEmptyParents(filepath.Dir(p))
	return nil
}

func (f *FileStorage) pruneEmptyParents(dir string) {
	for dir != f.rootDir && strings.HasPrefix(dir, f.rootDir) {
		empty, err := afero.IsEmpty(f.fs, dir)
		if err != nil || !empty {
			return
		}
		if err := f.fs.Remove(dir); err != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}

func (f *FileStorage) List(prefix string) ([]string, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.closed {
		return nil, storage.ErrClosed
	}

	keys := make([]string, 0)
	err := afero.Walk(f.fs, f.rootDir, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(f.rootDir, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("file storage: failed to list keys: %w", err)
	}

	sort.Strings(keys)
	return keys, nil
}

func (f *FileStorage) Exists(key string) (bool, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.closed {
		return false, storage.ErrClosed
	}
	p, err := f.keyToPath(key)
	if err != nil {
		return false, err
	}
	ok, err := afero.Exists(f.fs, p)
	if err != nil {
		return false, fmt.Errorf("file storage: failed to check key %q: %w", key, err)
	}
	return ok, nil
}

// Close marks the backend closed. Files are left in place.
func (f *FileStorage) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *FileStorage) keyToPath(key string) (string, error) {
	if err := storage.ValidateKey(key); err != nil {
		return "", err
	}
	return filepath.Join(f.rootDir, filepath.FromSlash(key)), nil
}

func permissions(key string, opts *storage.Options) fs.FileMode {
	if opts != nil && opts.Permissions != 0 {
		return opts.Permissions
	}
	if strings.HasPrefix(key, "keys/") {
		return keysFilePerms
	}
	return defaultPerms
}
