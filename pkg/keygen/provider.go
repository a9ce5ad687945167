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
	"fmt"
	"sync"

	"github.com/jeremyhahn/go-keypairgen/pkg/capability"
	"github.com/jeremyhahn/go-keypairgen/pkg/primitives"
	"github.com/jeremyhahn/go-keypairgen/pkg/types"
)

// Provider hands out generators backed by one engine and registry.
type Provider struct {
	engine   primitives.Engine
	registry *capability.Registry
	opts     []Option
}

// NewProvider returns a provider. opts apply to every generator it creates.
func NewProvider(engine primitives.Engine, registry *capability.Registry, opts ...Option) *Provider {
	return &Provider{
		engine:   engine,
		registry: registry,
		opts:     opts,
	}
}

// Registry returns the capability registry.
func (p *Provider) Registry() *capability.Registry {
	return p.registry
}

// Engine returns the primitives engine.
func (p *Provider) Engine() primitives.Engine {
	return p.engine
}

// New returns an unconfigured generator for the named algorithm. Names are
// matched case-insensitively; "EC", "ECDH", "DH" and "DiffieHellman" are
// recognized. An algorithm the engine cannot serve is unsupported too.
func (p *Provider) New(algorithm string, opts ...Option) (Generator, error) {
	alg, ok := types.ParseAlgorithm(algorithm)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, algorithm)
	}

	all := make([]Option, 0, len(p.opts)+len(opts))
	all = append(all, p.opts...)
	all = append(all, opts...)

	features := p.registry.Features()
	switch alg {
	case types.AlgorithmEC:
		if !features.EC {
			return nil, fmt.Errorf("%w: engine %s supports no curves", ErrUnsupportedAlgorithm, p.engine.Name())
		}
		return NewECGenerator(p.registry, p.engine, all...), nil
	case types.AlgorithmDH:
		if !features.DH {
			return nil, fmt.Errorf("%w: DH is disabled in engine %s", ErrUnsupportedAlgorithm, p.engine.Name())
		}
		return NewDHGenerator(p.engine, all...), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, algorithm)
	}
}

var (
	defaultOnce     sync.Once
	defaultProvider *Provider
	defaultErr      error
)

// DefaultProvider returns the process-wide provider backed by the software
// engine and capability.Default.
func DefaultProvider() (*Provider, error) {
	defaultOnce.Do(func() {
		engine, err := primitives.NewSoftwareEngine()
		if err != nil {
			defaultErr = err
			return
		}
		defaultProvider = NewProvider(engine, capability.Default(engine))
	})
	return defaultProvider, defaultErr
}

// New returns a generator from DefaultProvider.
func New(algorithm string, opts ...Option) (Generator, error) {
	p, err := DefaultProvider()
	if err != nil {
		return nil, err
	}
	return p.New(algorithm, opts...)
}
