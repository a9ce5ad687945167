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

package rand

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingResolver always fails Rand and optionally reports unavailable.
type failingResolver struct {
	unavailable bool
}

func (f *failingResolver) Rand(n int) ([]byte, error) {
	return nil, errors.New("entropy exhausted")
}

func (f *failingResolver) Read(p []byte) (int, error) {
	return 0, errors.New("entropy exhausted")
}

func (f *failingResolver) Source() Source  { return &readerSource{} }
func (f *failingResolver) Available() bool { return !f.unavailable }
func (f *failingResolver) Close() error    { return nil }

func TestAutoResolver_FallbackOnError(t *testing.T) {
	fallback, _ := newSoftwareResolver()
	ar := &autoResolver{resolver: &failingResolver{}, fallback: fallback}
	defer func() { _ = ar.Close() }()

	data, err := ar.Rand(32)
	require.NoError(t, err)
	assert.Len(t, data, 32)

	buf := make([]byte, 24)
	n, err := ar.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 24, n)
}

func TestAutoResolver_NoFallback(t *testing.T) {
	ar := &autoResolver{resolver: &failingResolver{}}

	_, err := ar.Rand(32)
	assert.Error(t, err)

	_, err = ar.Read(make([]byte, 8))
	assert.Error(t, err)
}

func TestAutoResolver_BothFail(t *testing.T) {
	ar := &autoResolver{resolver: &failingResolver{}, fallback: &failingResolver{}}
	_, err := ar.Rand(16)
	assert.Error(t, err)
}

func TestAutoResolver_Available(t *testing.T) {
	fallback, _ := newSoftwareResolver()

	ar := &autoResolver{resolver: &failingResolver{unavailable: true}, fallback: fallback}
	assert.True(t, ar.Available())

	ar = &autoResolver{
		resolver: &failingResolver{unavailable: true},
		fallback: &failingResolver{unavailable: true},
	}
	assert.False(t, ar.Available())
}

func TestAutoResolver_ConfiguredFallback(t *testing.T) {
	r, err := NewResolver(&Config{Mode: ModeAuto, FallbackMode: ModeSoftware})
	require.NoError(t, err)
	defer func() { _ = r.Close() }()

	ar, ok := r.(*autoResolver)
	require.True(t, ok)
	assert.NotNil(t, ar.fallback)
	assert.NotNil(t, ar.Source())
}

func TestAutoResolver_Concurrent(t *testing.T) {
	fallback, _ := newSoftwareResolver()
	ar := &autoResolver{resolver: &failingResolver{}, fallback: fallback}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				data, err := ar.Rand(32)
				assert.NoError(t, err)
				assert.Len(t, data, 32)
			}
		}()
	}
	wg.Wait()
}
