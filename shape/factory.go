package shape

import (
	"fmt"
	"math/rand/v2"

	"github.com/plus3/blocks/rsg"
)

// GeneratorFunc builds a generator for a catalog of n pieces.
type GeneratorFunc func(n int) (rsg.Generator, error)

// Factory couples a catalog with a generator and hands out piece copies.
// A Factory is not safe for concurrent use.
type Factory struct {
	system    System
	shapes    []Geometry
	gen       rsg.Generator
	generator GeneratorFunc
}

type factoryConfig struct {
	seed      uint64
	seeded    bool
	generator GeneratorFunc
}

// FactoryOption configures NewFactory.
type FactoryOption func(*factoryConfig)

// WithSeed makes the default uniform generator deterministic.
func WithSeed(seed uint64) FactoryOption {
	return func(c *factoryConfig) {
		c.seed = seed
		c.seeded = true
	}
}

// WithGenerator replaces the default uniform generator. fn is called again,
// with the new piece count, every time the ruleset is switched.
func WithGenerator(fn GeneratorFunc) FactoryOption {
	return func(c *factoryConfig) {
		c.generator = fn
	}
}

// NewFactory builds the catalog for sys and its generator.
func NewFactory(sys System, opts ...FactoryOption) (*Factory, error) {
	cfg := &factoryConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.generator == nil {
		if !cfg.seeded {
			cfg.seed = rsg.TimeSeed()
		}
		cfg.generator = uniformFrom(rsg.NewRand(cfg.seed))
	}

	f := &Factory{generator: cfg.generator}
	if err := f.Switch(sys); err != nil {
		return nil, err
	}
	return f, nil
}

// uniformFrom keeps one entropy stream across ruleset switches.
func uniformFrom(rng *rand.Rand) GeneratorFunc {
	return func(n int) (rsg.Generator, error) {
		return rsg.NewUniform(n, rng)
	}
}

// Switch replaces the catalog and the generator together. On error the
// factory keeps its previous ruleset.
func (f *Factory) Switch(sys System) error {
	shapes, err := Catalog(sys)
	if err != nil {
		return err
	}
	gen, err := f.generator(len(shapes))
	if err != nil {
		return fmt.Errorf("generator for %s: %w", sys, err)
	}

	f.system = sys
	f.shapes = shapes
	f.gen = gen
	return nil
}

// System returns the active ruleset.
func (f *Factory) System() System { return f.system }

// Current draws the next piece.
func (f *Factory) Current() Geometry {
	return f.shapes[f.index(f.gen.Draw())].Clone()
}

// Preview returns the piece the next Current call will produce.
func (f *Factory) Preview() Geometry {
	return f.shapes[f.index(f.gen.Peek())].Clone()
}

// Shapes returns a copy of the whole catalog.
func (f *Factory) Shapes() []Geometry {
	shapes := make([]Geometry, len(f.shapes))
	for i, g := range f.shapes {
		shapes[i] = g.Clone()
	}
	return shapes
}

// index folds values from custom generators into the catalog range.
func (f *Factory) index(i int) int {
	n := len(f.shapes)
	return ((i % n) + n) % n
}
