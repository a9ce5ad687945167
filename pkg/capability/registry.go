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

// Package capability records which named curves the primitives engine
// actually supports. The registry is built by probing the engine once and
// is immutable afterwards, so it can be shared by any number of generators
// without locking.
package capability

import (
	"strings"
	"sync"

	"github.com/jeremyhahn/go-keypairgen/pkg/adapters/logger"
	"github.com/jeremyhahn/go-keypairgen/pkg/metrics"
	"github.com/jeremyhahn/go-keypairgen/pkg/primitives"
	"github.com/jeremyhahn/go-keypairgen/pkg/types"
)

// DefaultCatalog is the probe order. DefaultCurveForKeySize resolves ties by
// this order, so secp256r1 precedes the other 256-bit curves.
var DefaultCatalog = []string{
	"secp192r1",
	"prime192v2",
	"prime192v3",
	"prime239v1",
	"prime239v2",
	"prime239v3",
	"secp256r1",
	"secp112r1",
	"secp112r2",
	"secp128r1",
	"secp128r2",
	"secp160r1",
	"secp224r1",
	"secp384r1",
	"secp521r1",
	"secp160k1",
	"secp192k1",
	"secp224k1",
	"secp256k1",
	"brainpoolp160r1",
	"brainpoolp192r1",
	"brainpoolp224r1",
	"brainpoolp256r1",
	"brainpoolp320r1",
	"brainpoolp384r1",
	"brainpoolp512r1",
}

// Prober is the part of the primitives engine the registry needs.
type Prober interface {
	CurveKeySize(name string) (int, error)
}

// CurveDescriptor is an enabled curve and its key size.
type CurveDescriptor struct {
	Name        string
	KeySizeBits int
}

// Features summarizes which algorithm families are usable.
type Features struct {
	EC bool
	DH bool
}

// Registry is the set of curves the engine reported as supported.
type Registry struct {
	curves   []CurveDescriptor
	keySizes []int
	byName   map[string]int
	features Features
}

type buildOptions struct {
	logger logger.Logger
}

// Option configures Build.
type Option func(*buildOptions)

// WithLogger sets the logger used while probing.
func WithLogger(l logger.Logger) Option {
	return func(o *buildOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// Build probes every curve in DefaultCatalog.
func Build(engine Prober, opts ...Option) *Registry {
	return BuildWithCatalog(engine, DefaultCatalog, opts...)
}

// BuildWithCatalog probes the given curve names in order. A probe that
// returns zero or an error excludes the curve without failing the build.
func BuildWithCatalog(engine Prober, catalog []string, opts ...Option) *Registry {
	o := &buildOptions{logger: logger.NoOp()}
	for _, opt := range opts {
		opt(o)
	}

	r := &Registry{
		curves:   make([]CurveDescriptor, 0, len(catalog)),
		keySizes: make([]int, 0),
		byName:   make(map[string]int, len(catalog)),
	}
	seenSize := make(map[int]bool)

	for _, name := range catalog {
		key := strings.ToLower(name)
		if _, dup := r.byName[key]; dup {
			continue
		}

		bits, err := engine.CurveKeySize(name)
		if err != nil || bits <= 0 {
			o.logger.Debug("curve not supported by engine",
				logger.String("curve", name), logger.Any("probe_error", err))
			continue
		}

		r.byName[key] = len(r.curves)
		r.curves = append(r.curves, CurveDescriptor{Name: name, KeySizeBits: bits})
		if !seenSize[bits] {
			seenSize[bits] = true
			r.keySizes = append(r.keySizes, bits)
		}
	}

	r.features.EC = len(r.curves) > 0
	r.features.DH = true
	if dr, ok := engine.(primitives.DHReporter); ok {
		r.features.DH = dr.DHEnabled()
	}

	metrics.SetEnabledCurves(len(r.curves))
	o.logger.Info("capability registry built",
		logger.Int("probed", len(catalog)),
		logger.Int("enabled", len(r.curves)),
		logger.Ints("key_sizes", r.EnabledKeySizes()))

	return r
}

// Lookup finds an enabled curve by name, ignoring case. NIST aliases such
// as "P-256" resolve to their SEC names.
func (r *Registry) Lookup(name string) (CurveDescriptor, bool) {
	if i, ok := r.byName[strings.ToLower(strings.TrimSpace(name))]; ok {
		return r.curves[i], true
	}
	if i, ok := r.byName[types.CanonicalCurve(name).String()]; ok {
		return r.curves[i], true
	}
	return CurveDescriptor{}, false
}

// DefaultCurveForKeySize returns the first enabled curve of the given size
// in catalog order.
func (r *Registry) DefaultCurveForKeySize(bits int) (CurveDescriptor, bool) {
	for _, c := range r.curves {
		if c.KeySizeBits == bits {
			return c, true
		}
	}
	return CurveDescriptor{}, false
}

// EnabledCurves returns the enabled curves in probe order.
func (r *Registry) EnabledCurves() []CurveDescriptor {
	out := make([]CurveDescriptor, len(r.curves))
	copy(out, r.curves)
	return out
}

// EnabledCurveNames returns the names of the enabled curves in probe order.
func (r *Registry) EnabledCurveNames() []string {
	names := make([]string, len(r.curves))
	for i, c := range r.curves {
		names[i] = c.Name
	}
	return names
}

// EnabledKeySizes returns the distinct key sizes in first-seen order.
func (r *Registry) EnabledKeySizes() []int {
	out := make([]int, len(r.keySizes))
	copy(out, r.keySizes)
	return out
}

// HasKeySize reports whether any enabled curve has the given size.
func (r *Registry) HasKeySize(bits int) bool {
	_, ok := r.DefaultCurveForKeySize(bits)
	return ok
}

// Features reports the usable algorithm families.
func (r *Registry) Features() Features {
	return r.features
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the process-wide registry. The first call probes engine;
// every later call returns that same registry and ignores its arguments.
func Default(engine Prober, opts ...Option) *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = Build(engine, opts...)
	})
	return defaultRegistry
}
