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

// Package rand provides the randomness source consumed by the primitives
// engine when it draws EC scalars and DH private values.
//
// # RNG Sources
//
//   - Auto: selects the best available source, falling back when configured
//   - Software: crypto/rand (stdlib secure random)
//   - Reader: any caller supplied io.Reader, used to inject failures in tests
//
// # Configuration
//
//	rng, _ := rand.NewResolver(rand.ModeAuto)
//	randomBytes, _ := rng.Rand(32)
//
//	rng, _ := rand.NewResolver(&rand.Config{
//	    Mode:         rand.ModeAuto,
//	    FallbackMode: rand.ModeSoftware,
//	})
//
// # Thread Safety
//
// All Resolver implementations are safe for concurrent use. Generators
// share one Resolver and never add locking around it.
package rand

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"sync"
)

// Mode specifies which RNG source to use.
type Mode string

const (
	// ModeAuto automatically selects the best available RNG.
	ModeAuto Mode = "auto"

	// ModeSoftware uses crypto/rand (stdlib secure random)
	ModeSoftware Mode = "software"
)

// ErrShortRead is returned when a source yields fewer bytes than requested.
var ErrShortRead = errors.New("rand: short read from entropy source")

// Config contains RNG configuration.
type Config struct {
	// Mode specifies the primary RNG source to use.
	// Defaults to ModeAuto if not specified.
	Mode Mode

	// FallbackMode specifies the RNG source to use if primary mode fails.
	// If not specified, failures are returned as errors.
	FallbackMode Mode
}

// Source represents a random number generator.
type Source interface {
	// Rand returns n random bytes.
	Rand(n int) ([]byte, error)

	// Available returns true if this RNG source is available and ready.
	Available() bool

	// Close closes the RNG and releases any resources.
	Close() error
}

// Resolver provides the main interface for generating random numbers.
// Applications should create a Resolver at startup and reuse it.
//
// Resolver implements io.Reader so it can be handed to ecdsa.GenerateKey
// and math/big helpers directly.
type Resolver interface {
	// Rand returns n random bytes from the configured RNG source.
	// If the primary source fails and FallbackMode is configured,
	// tries the fallback source.
	Rand(n int) ([]byte, error)

	// Read implements io.Reader.
	Read(p []byte) (n int, err error)

	// Source returns the underlying RNG Source being used.
	Source() Source

	// Available returns true if at least one RNG source is available.
	Available() bool

	// Close closes the resolver and releases any resources.
	Close() error
}

// NewResolver creates a new RNG resolver with the given configuration.
// Accepts a Mode, a *Config or nil (auto mode).
func NewResolver(config interface{}) (Resolver, error) {
	cfg := normalizeConfig(config)
	return newResolver(cfg)
}

// normalizeConfig converts various config types to *Config.
func normalizeConfig(config interface{}) *Config {
	if config == nil {
		return &Config{Mode: ModeAuto}
	}

	switch v := config.(type) {
	case Mode:
		return &Config{Mode: v}
	case *Config:
		if v == nil {
			return &Config{Mode: ModeAuto}
		}
		cfg := *v
		if cfg.Mode == "" {
			cfg.Mode = ModeAuto
		}
		return &cfg
	default:
		return &Config{Mode: ModeAuto}
	}
}

// newResolver creates the actual resolver implementation.
func newResolver(cfg *Config) (Resolver, error) {
	switch cfg.Mode {
	case ModeAuto, "":
		return newAutoResolver(cfg)
	case ModeSoftware:
		return newSoftwareResolver()
	default:
		return nil, fmt.Errorf("unknown RNG mode: %s", cfg.Mode)
	}
}

// ParseMode validates a mode string from configuration.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeAuto, ModeSoftware:
		return Mode(s), nil
	case "":
		return ModeAuto, nil
	default:
		return "", fmt.Errorf("unknown RNG mode: %s", s)
	}
}

// SoftwareResolver uses crypto/rand from the Go standard library.
type SoftwareResolver struct{}

var _ Resolver = (*SoftwareResolver)(nil)

func newSoftwareResolver() (Resolver, error) {
	return &SoftwareResolver{}, nil
}

func (s *SoftwareResolver) Rand(n int) ([]byte, error) {
	buf := make([]byte, n)
	_, err := rand.Read(buf)
	return buf, err
}

// Read implements io.Reader for compatibility with crypto/rand.Reader.
func (s *SoftwareResolver) Read(p []byte) (n int, err error) {
	return rand.Read(p)
}

func (s *SoftwareResolver) Source() Source {
	return &readerSource{r: rand.Reader}
}

func (s *SoftwareResolver) Available() bool {
	return true // crypto/rand always available
}

func (s *SoftwareResolver) Close() error {
	return nil
}

// ReaderResolver adapts an arbitrary io.Reader. Reads are serialized so a
// non thread-safe reader can still be shared between generators.
type ReaderResolver struct {
	mu sync.Mutex
	r  io.Reader
}

var _ Resolver = (*ReaderResolver)(nil)

// NewReaderResolver wraps r as a Resolver.
func NewReaderResolver(r io.Reader) *ReaderResolver {
	return &ReaderResolver{r: r}
}

func (rr *ReaderResolver) Rand(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := rr.Read(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (rr *ReaderResolver) Read(p []byte) (int, error) {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	n, err := io.ReadFull(rr.r, p)
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return n, fmt.Errorf("%w: %d of %d bytes", ErrShortRead, n, len(p))
		}
		return n, err
	}
	return n, nil
}

func (rr *ReaderResolver) Source() Source {
	return &readerSource{r: rr}
}

func (rr *ReaderResolver) Available() bool {
	return rr.r != nil
}

func (rr *ReaderResolver) Close() error {
	return nil
}

type readerSource struct {
	r io.Reader
}

func (s *readerSource) Rand(n int) ([]byte, error) {
	buf := make([]byte, n)
	_, err := io.ReadFull(s.r, buf)
	return buf, err
}

func (s *readerSource) Available() bool {
	return s.r != nil
}

func (s *readerSource) Close() error {
	return nil
}
