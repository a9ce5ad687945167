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

package keystore

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/go-keypairgen/pkg/adapters/logger"
	"github.com/jeremyhahn/go-keypairgen/pkg/capability"
	"github.com/jeremyhahn/go-keypairgen/pkg/crypto/dh"
	"github.com/jeremyhahn/go-keypairgen/pkg/encoding"
	"github.com/jeremyhahn/go-keypairgen/pkg/keygen"
	"github.com/jeremyhahn/go-keypairgen/pkg/primitives"
	"github.com/jeremyhahn/go-keypairgen/pkg/storage"
	"github.com/jeremyhahn/go-keypairgen/pkg/storage/file"
	"github.com/jeremyhahn/go-keypairgen/pkg/types"
)

func newProvider(t *testing.T) *keygen.Provider {
	t.Helper()
	engine, err := primitives.NewSoftwareEngine()
	require.NoError(t, err)
	return keygen.NewProvider(engine, capability.Build(engine))
}

func generateEC(t *testing.T, p *keygen.Provider, curve string) *keygen.KeyPair {
	t.Helper()
	gen, err := p.New("EC")
	require.NoError(t, err)
	require.NoError(t, gen.Initialize(keygen.ECParameterSpec{CurveName: curve}))
	kp, err := gen.Generate()
	require.NoError(t, err)
	return kp
}

func generateDH(t *testing.T, p *keygen.Provider) *keygen.KeyPair {
	t.Helper()
	data, err := os.ReadFile("../crypto/dh/testdata/dh2048-l512.pem")
	require.NoError(t, err)
	group, err := dh.ParseParametersPEM(data)
	require.NoError(t, err)

	gen, err := p.New("DH")
	require.NoError(t, err)
	require.NoError(t, gen.Initialize(keygen.DHGroupSpecFromGroup(group)))
	kp, err := gen.Generate()
	require.NoError(t, err)
	return kp
}

func backends(t *testing.T) map[string]storage.Backend {
	t.Helper()
	fs, err := file.NewWithFs(afero.NewMemMapFs(), "/keys")
	require.NoError(t, err)
	return map[string]storage.Backend{
		"memory": storage.NewMemory(),
		"file":   fs,
	}
}

func TestKeyStore_SaveLoad(t *testing.T) {
	p := newProvider(t)

	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ks := New(backend)

			for _, kp := range []*keygen.KeyPair{
				generateEC(t, p, "secp256r1"),
				generateEC(t, p, "secp256k1"),
				generateDH(t, p),
			} {
				meta, err := ks.Save(kp, nil)
				require.NoError(t, err)
				assert.Equal(t, kp.ID.String(), meta.ID)
				assert.Equal(t, kp.Parameter(), meta.Parameter)
				assert.False(t, meta.Encrypted)
				assert.Len(t, meta.Fingerprint, 64)

				loaded, err := ks.Load(kp.ID.String(), nil)
				require.NoError(t, err)
				assert.Equal(t, kp.ID, loaded.ID)
				assert.Equal(t, kp.Algorithm, loaded.Algorithm)
				assert.Equal(t, kp.Curve, loaded.Curve)
				assert.Equal(t, kp.KeySizeBits, loaded.KeySizeBits)
				assert.True(t, kp.CreatedAt.Equal(loaded.CreatedAt))
				assert.Equal(t, kp.Parameter(), loaded.Parameter())

				pubDER, err := kp.PublicDER()
				require.NoError(t, err)
				loadedDER, err := loaded.PublicDER()
				require.NoError(t, err)
				assert.Equal(t, pubDER, loadedDER)

				privDER, err := kp.PrivateDER()
				require.NoError(t, err)
				loadedPriv, err := loaded.PrivateDER()
				require.NoError(t, err)
				assert.Equal(t, privDER, loadedPriv)
			}
		})
	}
}

func TestKeyStore_DHGroupPreserved(t *testing.T) {
	ks := New(storage.NewMemory())
	kp := generateDH(t, newProvider(t))
	require.Equal(t, 512, kp.Group.L)

	_, err := ks.Save(kp, nil)
	require.NoError(t, err)

	loaded, err := ks.Load(kp.ID.String(), nil)
	require.NoError(t, err)
	require.NotNil(t, loaded.Group)
	assert.True(t, loaded.Group.Equal(kp.Group))
	assert.Equal(t, 512, loaded.Group.L)
}

func TestKeyStore_EncryptedPrivateKey(t *testing.T) {
	ks := New(storage.NewMemory())
	kp := generateEC(t, newProvider(t), "secp384r1")
	password := []byte("correct horse")

	meta, err := ks.Save(kp, password)
	require.NoError(t, err)
	assert.True(t, meta.Encrypted)

	privPEM, err := ks.Backend().Get(objectKey(kp.ID.String(), privateObject))
	require.NoError(t, err)
	assert.Contains(t, string(privPEM), "ENCRYPTED PRIVATE KEY")

	_, err = ks.Load(kp.ID.String(), nil)
	assert.ErrorIs(t, err, encoding.ErrPasswordRequired)

	_, err = ks.Load(kp.ID.String(), []byte("wrong"))
	assert.Error(t, err)

	loaded, err := ks.Load(kp.ID.String(), password)
	require.NoError(t, err)
	priv, ok := loaded.ECPrivateKey()
	require.True(t, ok)
	orig, _ := kp.ECPrivateKey()
	assert.True(t, orig.Equal(priv))
}

func TestKeyStore_EncryptionUnsupportedForSecp256k1(t *testing.T) {
	ks := New(storage.NewMemory())
	kp := generateEC(t, newProvider(t), "secp256k1")

	_, err := ks.Save(kp, []byte("pw"))
	assert.ErrorIs(t, err, keygen.ErrEncodingFailure)

	keys, err := ks.Backend().List("")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestKeyStore_SaveTwice(t *testing.T) {
	ks := New(storage.NewMemory())
	kp := generateEC(t, newProvider(t), "secp256r1")

	_, err := ks.Save(kp, nil)
	require.NoError(t, err)
	_, err = ks.Save(kp, nil)
	assert.ErrorIs(t, err, ErrKeyExists)
}

func TestKeyStore_SaveInvalid(t *testing.T) {
	ks := New(storage.NewMemory())
	_, err := ks.Save(nil, nil)
	assert.ErrorIs(t, err, ErrInvalidID)
	_, err = ks.Save(&keygen.KeyPair{Algorithm: types.AlgorithmEC}, nil)
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestKeyStore_ListAndDelete(t *testing.T) {
	ks := New(storage.NewMemory())
	p := newProvider(t)

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	var ids []string
	for i, curve := range []string{"secp521r1", "secp224r1", "secp256r1"} {
		kp := generateEC(t, p, curve)
		kp.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		_, err := ks.Save(kp, nil)
		require.NoError(t, err)
		ids = append(ids, kp.ID.String())
	}
	require.NoError(t, ks.Backend().Put("keys/README", []byte("ignored"), nil))

	list, err := ks.List()
	require.NoError(t, err)
	require.Len(t, list, 3)
	for i, meta := range list {
		assert.Equal(t, ids[i], meta.ID)
	}
	assert.Equal(t, "secp521r1", list[0].Parameter)

	require.NoError(t, ks.Delete(ids[1]))
	assert.ErrorIs(t, ks.Delete(ids[1]), ErrKeyNotFound)

	list, err = ks.List()
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = ks.Load(ids[1], nil)
	assert.ErrorIs(t, err, ErrKeyNotFound)
	_, err = ks.PublicPEM(ids[1])
	assert.ErrorIs(t, err, ErrKeyNotFound)

	pubPEM, err := ks.PublicPEM(ids[0])
	require.NoError(t, err)
	assert.Contains(t, string(pubPEM), "BEGIN PUBLIC KEY")
}

func TestKeyStore_InvalidIDs(t *testing.T) {
	ks := New(storage.NewMemory())

	for _, id := range []string{"", "not-a-uuid", "../../etc/passwd"} {
		_, err := ks.Load(id, nil)
		assert.ErrorIs(t, err, ErrInvalidID, id)
		_, err = ks.Metadata(id)
		assert.ErrorIs(t, err, ErrInvalidID, id)
		assert.ErrorIs(t, ks.Delete(id), ErrInvalidID, id)
	}

	_, err := ks.Load(uuid.NewString(), nil)
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestKeyStore_IDNormalized(t *testing.T) {
	ks := New(storage.NewMemory())
	kp := generateEC(t, newProvider(t), "secp256r1")
	_, err := ks.Save(kp, nil)
	require.NoError(t, err)

	meta, err := ks.Metadata("  " + strings.ToUpper(kp.ID.String()) + " ")
	require.NoError(t, err)
	assert.Equal(t, kp.ID.String(), meta.ID)
}

func TestKeyStore_DetectsCorruption(t *testing.T) {
	p := newProvider(t)
	backend := storage.NewMemory()
	ks := New(backend)

	a := generateEC(t, p, "secp256r1")
	b := generateEC(t, p, "secp256r1")
	_, err := ks.Save(a, nil)
	require.NoError(t, err)

	otherPub, err := b.PublicPEM()
	require.NoError(t, err)
	require.NoError(t, backend.Put(objectKey(a.ID.String(), publicObject), otherPub, nil))

	_, err = ks.Load(a.ID.String(), nil)
	assert.ErrorIs(t, err, ErrCorrupt)

	require.NoError(t, backend.Put(objectKey(a.ID.String(), metadataObject), []byte("{"), nil))
	_, err = ks.Metadata(a.ID.String())
	assert.ErrorIs(t, err, ErrCorrupt)

	require.NoError(t, backend.Delete(objectKey(a.ID.String(), metadataObject)))
	require.NoError(t, backend.Put(objectKey(a.ID.String(), metadataObject),
		[]byte(`{"id":"`+a.ID.String()+`","algorithm":"DH"}`), nil))
	require.NoError(t, backend.Put(objectKey(a.ID.String(), publicObject), mustPublicPEM(t, a), nil))
	_, err = ks.Load(a.ID.String(), nil)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestKeyStore_Logging(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewSlogAdapter(&logger.SlogConfig{Output: &buf, Level: logger.LevelDebug})
	ks := New(storage.NewMemory(), WithLogger(log))

	kp := generateEC(t, newProvider(t), "secp256r1")
	_, err := ks.Save(kp, nil)
	require.NoError(t, err)
	require.NoError(t, ks.Delete(kp.ID.String()))

	out := buf.String()
	assert.Contains(t, out, "key pair stored")
	assert.Contains(t, out, "key pair deleted")
	assert.Contains(t, out, kp.ID.String())
}

func TestSplitObjectKey(t *testing.T) {
	id, name, ok := splitObjectKey("keys/abc/meta.json")
	assert.True(t, ok)
	assert.Equal(t, "abc", id)
	assert.Equal(t, "meta.json", name)

	_, _, ok = splitObjectKey("keys/README")
	assert.False(t, ok)
	_, _, ok = splitObjectKey("other/abc/meta.json")
	assert.False(t, ok)
	_, _, ok = splitObjectKey("keys/abc/nested/meta.json")
	assert.False(t, ok)
}

func mustPublicPEM(t *testing.T, kp *keygen.KeyPair) []byte {
	t.Helper()
	out, err := kp.PublicPEM()
	require.NoError(t, err)
	return out
}

// failingBackend rejects Put for keys ending in failOn.
type failingBackend struct {
	*storage.MemoryBackend
	failOn string
}

func (f *failingBackend) Put(key string, value []byte, opts *storage.Options) error {
	if strings.HasSuffix(key, f.failOn) {
		return errors.New("disk full")
	}
	return f.MemoryBackend.Put(key, value, opts)
}

func TestKeyStore_SaveRollsBackPartialWrites(t *testing.T) {
	p := newProvider(t)

	for _, failOn := range []string{"public.pem", "private.pem", "meta.json"} {
		t.Run(failOn, func(t *testing.T) {
			backend := &failingBackend{MemoryBackend: storage.NewMemory(), failOn: failOn}
			ks := New(backend)
			kp := generateEC(t, p, "secp256r1")

			_, err := ks.Save(kp, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), failOn)

			keys, err := backend.List("")
			require.NoError(t, err)
			assert.Empty(t, keys)

			backend.failOn = "never"
			_, err = ks.Save(kp, nil)
			require.NoError(t, err)
		})
	}
}
