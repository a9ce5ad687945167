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

// Package keystore persists generated key pairs. Each pair is stored as
// three objects in a storage.Backend:
//
//	keys/<id>/public.pem
//	keys/<id>/private.pem
//	keys/<id>/meta.json
//
// Private keys are written as PKCS #8, encrypted when a password is given.
package keystore

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jeremyhahn/go-keypairgen/pkg/adapters/logger"
	"github.com/jeremyhahn/go-keypairgen/pkg/crypto/dh"
	"github.com/jeremyhahn/go-keypairgen/pkg/encoding"
	"github.com/jeremyhahn/go-keypairgen/pkg/keygen"
	"github.com/jeremyhahn/go-keypairgen/pkg/metrics"
	"github.com/jeremyhahn/go-keypairgen/pkg/storage"
	"github.com/jeremyhahn/go-keypairgen/pkg/types"
)

const (
	keysPrefix     = "keys/"
	publicObject   = "public.pem"
	privateObject  = "private.pem"
	metadataObject = "meta.json"
)

var (
	// ErrKeyNotFound is returned for IDs with no stored metadata.
	ErrKeyNotFound = errors.New("keystore: key not found")

	// ErrKeyExists is returned by Save when the ID is already stored.
	ErrKeyExists = errors.New("keystore: key already exists")

	// ErrInvalidID is returned for IDs that are not UUIDs.
	ErrInvalidID = errors.New("keystore: invalid key id")

	// ErrCorrupt is returned when stored objects disagree with each other.
	ErrCorrupt = errors.New("keystore: stored key is corrupt")
)

// Metadata is the meta.json document stored next to each key pair.
type Metadata struct {
	ID                 string          `json:"id"`
	Algorithm          types.Algorithm `json:"algorithm"`
	Parameter          string          `json:"parameter"`
	Curve              string          `json:"curve,omitempty"`
	KeySizeBits        int             `json:"key_size_bits"`
	PrivateValueLength int             `json:"private_value_length,omitempty"`
	Encrypted          bool            `json:"encrypted"`

	// Fingerprint is the hex SHA-256 of the DER SubjectPublicKeyInfo.
	Fingerprint string    `json:"fingerprint"`
	CreatedAt   time.Time `json:"created_at"`
}

// KeyStore reads and writes key pairs through a storage backend.
type KeyStore struct {
	backend storage.Backend
	logger  logger.Logger
}

// Option configures a KeyStore.
type Option func(*KeyStore)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *KeyStore) {
		if l != nil {
			s.logger = l
		}
	}
}

// New returns a key store on backend.
func New(backend storage.Backend, opts ...Option) *KeyStore {
	s := &KeyStore{backend: backend, logger: logger.NoOp()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Backend returns the underlying storage backend.
func (s *KeyStore) Backend() storage.Backend {
	return s.backend
}

// Save stores kp. A non-empty password encrypts the private key, which is
// only possible for NIST curve keys.
func (s *KeyStore) Save(kp *keygen.KeyPair, password []byte) (meta *Metadata, err error) {
	start := time.Now()
	alg := ""
	if kp != nil {
		alg = kp.Algorithm.String()
	}
	defer func() { record(metrics.OpStore, alg, start, err) }()

	if kp == nil || kp.ID == uuid.Nil {
		return nil, fmt.Errorf("%w: key pair has no id", ErrInvalidID)
	}
	id := kp.ID.String()

	exists, err := s.backend.Exists(objectKey(id, metadataObject))
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: %s", ErrKeyExists, id)
	}

	pubDER, err := kp.PublicDER()
	if err != nil {
		return nil, err
	}
	pubPEM, err := kp.PublicPEM()
	if err != nil {
		return nil, err
	}
	privPEM, err := kp.PrivatePEM(password)
	if err != nil {
		return nil, err
	}

	meta = &Metadata{
		ID:          id,
		Algorithm:   kp.Algorithm,
		Parameter:   kp.Parameter(),
		Curve:       kp.Curve,
		KeySizeBits: kp.KeySizeBits,
		Encrypted:   len(password) > 0,
		Fingerprint: fingerprint(pubDER),
		CreatedAt:   kp.CreatedAt.UTC(),
	}
	if kp.Group != nil {
		meta.PrivateValueLength = kp.Group.L
	}
	metaJSON, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("keystore: failed to marshal metadata: %w", err)
	}

	// meta.json goes last: its presence marks a complete entry.
	writes := []object{
		{publicObject, pubPEM},
		{privateObject, privPEM},
		{metadataObject, metaJSON},
	}
	for i, w := range writes {
		if err := s.backend.Put(objectKey(id, w.name), w.data, storage.DefaultOptions()); err != nil {
			s.rollback(id, writes[:i])
			return nil, fmt.Errorf("keystore: failed to write %s for %s: %w", w.name, id, err)
		}
	}

	s.logger.Info("key pair stored",
		logger.String("id", id),
		logger.String("algorithm", alg),
		logger.String("parameter", meta.Parameter),
		logger.Bool("encrypted", meta.Encrypted))
	return meta, nil
}

// object is one file of a stored key pair.
type object struct {
	name string
	data []byte
}

// rollback removes objects written by a failed Save.
func (s *KeyStore) rollback(id string, written []object) {
	for _, w := range written {
		if err := s.backend.Delete(objectKey(id, w.name)); err != nil && !errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn("failed to remove partial key pair object",
				logger.String("id", id),
				logger.String("object", w.name),
				logger.Error(err))
		}
	}
}

// Metadata returns the stored metadata for id.
func (s *KeyStore) Metadata(id string) (*Metadata, error) {
	id, err := normalizeID(id)
	if err != nil {
		return nil, err
	}
	return s.readMetadata(id)
}

func (s *KeyStore) readMetadata(id string) (*Metadata, error) {
	data, err := s.backend.Get(objectKey(id, metadataObject))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, id)
		}
		return nil, err
	}
	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("%w: %s: metadata: %w", ErrCorrupt, id, err)
	}
	return &meta, nil
}

// PublicPEM returns the stored public key PEM for id.
func (s *KeyStore) PublicPEM(id string) ([]byte, error) {
	id, err := normalizeID(id)
	if err != nil {
		return nil, err
	}
	if _, err := s.readMetadata(id); err != nil {
		return nil, err
	}
	return s.backend.Get(objectKey(id, publicObject))
}

// Load reads the key pair stored under id. The password is required when
// the private key was saved encrypted.
func (s *KeyStore) Load(id string, password []byte) (kp *keygen.KeyPair, err error) {
	start := time.Now()
	alg := ""
	defer func() { record(metrics.OpLoad, alg, start, err) }()

	id, err = normalizeID(id)
	if err != nil {
		return nil, err
	}
	meta, err := s.readMetadata(id)
	if err != nil {
		return nil, err
	}
	alg = meta.Algorithm.String()

	privPEM, err := s.backend.Get(objectKey(id, privateObject))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: private key: %w", ErrCorrupt, id, err)
	}
	pubPEM, err := s.backend.Get(objectKey(id, publicObject))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: public key: %w", ErrCorrupt, id, err)
	}

	priv, err := encoding.DecodePrivatePEM(privPEM, password)
	if err != nil {
		return nil, err
	}
	pub, err := encoding.DecodePublicPEM(pubPEM)
	if err != nil {
		return nil, err
	}

	kp = &keygen.KeyPair{
		ID:          uuid.MustParse(id),
		Algorithm:   meta.Algorithm,
		Curve:       meta.Curve,
		KeySizeBits: meta.KeySizeBits,
		Private:     priv,
		CreatedAt:   meta.CreatedAt,
	}

	switch k := priv.(type) {
	case *ecdsa.PrivateKey:
		if meta.Algorithm != types.AlgorithmEC {
			return nil, fmt.Errorf("%w: %s: metadata says %s but key is EC", ErrCorrupt, id, meta.Algorithm)
		}
		kp.Public = &k.PublicKey
	case *dh.PrivateKey:
		if meta.Algorithm != types.AlgorithmDH {
			return nil, fmt.Errorf("%w: %s: metadata says %s but key is DH", ErrCorrupt, id, meta.Algorithm)
		}
		kp.Public = &k.PublicKey
		kp.Group = k.Params.Clone()
		if kp.Group.L == 0 {
			kp.Group.L = meta.PrivateValueLength
		}
	default:
		return nil, fmt.Errorf("%w: %s: unexpected key type %T", ErrCorrupt, id, priv)
	}

	if eq, ok := pub.(interface{ Equal(crypto.PublicKey) bool }); !ok || !eq.Equal(kp.Public) {
		return nil, fmt.Errorf("%w: %s: public key does not match private key", ErrCorrupt, id)
	}

	s.logger.Debug("key pair loaded", logger.String("id", id), logger.String("algorithm", alg))
	return kp, nil
}

// List returns the metadata of every stored key pair, oldest first.
func (s *KeyStore) List() ([]*Metadata, error) {
	keys, err := s.backend.List(keysPrefix)
	if err != nil {
		return nil, err
	}

	out := make([]*Metadata, 0)
	for _, key := range keys {
		id, name, ok := splitObjectKey(key)
		if !ok || name != metadataObject {
			continue
		}
		meta, err := s.readMetadata(id)
		if err != nil {
			s.logger.Warn("skipping unreadable key metadata", logger.String("id", id), logger.Error(err))
			continue
		}
		out = append(out, meta)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Delete removes every object stored for id.
func (s *KeyStore) Delete(id string) (err error) {
	start := time.Now()
	alg := ""
	defer func() { record(metrics.OpDelete, alg, start, err) }()

	id, err = normalizeID(id)
	if err != nil {
		return err
	}
	meta, err := s.readMetadata(id)
	if err != nil {
		return err
	}
	alg = meta.Algorithm.String()

	// meta.json goes first so a partial delete is not listed.
	for _, name := range []string{metadataObject, privateObject, publicObject} {
		if err := s.backend.Delete(objectKey(id, name)); err != nil && !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("keystore: failed to delete %s for %s: %w", name, id, err)
		}
	}

	s.logger.Info("key pair deleted", logger.String("id", id))
	return nil
}

func normalizeID(id string) (string, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return parsed.String(), nil
}

func objectKey(id, name string) string {
	return storage.Join("keys", id, name)
}

func splitObjectKey(key string) (id, name string, ok bool) {
	rest, found := strings.CutPrefix(key, keysPrefix)
	if !found {
		return "", "", false
	}
	id, name, ok = strings.Cut(rest, "/")
	return id, name, ok && id != "" && !strings.Contains(name, "/")
}

func fingerprint(der []byte) string {
	sum := sha256.Sum256(der)
	return hex.EncodeToString(sum[:])
}

func record(op, alg string, start time.Time, err error) {
	status := metrics.StatusSuccess
	if err != nil {
		status = metrics.StatusError
		metrics.RecordError(op, alg, errorType(err))
	}
	metrics.RecordOperation(op, alg, status, time.Since(start).Seconds())
}

func errorType(err error) string {
	switch {
	case errors.Is(err, ErrKeyNotFound):
		return "not_found"
	case errors.Is(err, ErrKeyExists):
		return "already_exists"
	case errors.Is(err, ErrInvalidID):
		return "invalid_id"
	case errors.Is(err, ErrCorrupt):
		return "corrupt"
	case errors.Is(err, encoding.ErrPasswordRequired):
		return "password_required"
	case errors.Is(err, keygen.ErrEncodingFailure):
		return "encoding_failure"
	case errors.Is(err, keygen.ErrDecodingFailure):
		return "decoding_failure"
	default:
		return "storage"
	}
}
