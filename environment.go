// Copyright 2025 The Servitor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the license at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package servitor

// Environment is an immutable composition of facets, optionally chained to
// a parent Environment.  When the chain is flattened the parent's facet is
// injected first and this Environment's facet second, so the child's
// definitions win for identical keys.  Environments have no mutable state
// after construction and may be shared freely; extension always creates a
// new child via With.
type Environment struct {
	parent *Environment
	facet  *Facet

	// Flattened over the full parent chain at construction, so that
	// evaluators and capability checks are cheap.
	flat   *keymap
	keySet map[string]bool
}

func newEnvironment(parent *Environment, facet *Facet) *Environment {
	e := &Environment{parent: parent, facet: facet}
	flat := newKeymap()
	if parent != nil {
		flat.mergeFacet(&Facet{keys: *parent.flat})
	}
	flat.mergeFacet(facet)
	e.flat = flat
	e.keySet = make(map[string]bool, len(flat.order))
	for _, name := range flat.order {
		e.keySet[name] = true
	}
	return e
}

// Build constructs a root Environment from a builder block.
func Build(fn func(b *Builder)) (*Environment, error) {
	b := NewBuilder()
	if fn != nil {
		fn(b)
	}
	f, err := b.Facet()
	if err != nil {
		return nil, err
	}
	return newEnvironment(nil, f), nil
}

// MustBuild is Build for static configuration that cannot fail; it panics
// on a composition error.
func MustBuild(fn func(b *Builder)) *Environment {
	e, err := Build(fn)
	if err != nil {
		panic(err)
	}
	return e
}

// Compose constructs a root Environment from already-built facets, later
// facets shadowing earlier ones.
func Compose(facets ...*Facet) *Environment {
	b := NewBuilder()
	for _, f := range facets {
		b.keys.mergeFacet(f)
	}
	f, _ := b.Facet()
	return newEnvironment(nil, f)
}

// With returns a new Environment chaining this one as parent.  The receiver
// is never modified.
func (e *Environment) With(fn func(b *Builder)) (*Environment, error) {
	b := NewBuilder()
	if fn != nil {
		fn(b)
	}
	f, err := b.Facet()
	if err != nil {
		return nil, err
	}
	return newEnvironment(e, f), nil
}

// MustWith is With, panicking on a composition error.
func (e *Environment) MustWith(fn func(b *Builder)) *Environment {
	c, err := e.With(fn)
	if err != nil {
		panic(err)
	}
	return c
}

// Keys returns every key visible through the composed chain, in the order
// of ultimate (post-shadowing) definition.
func (e *Environment) Keys() []string {
	return e.flat.keys()
}

// Has reports whether the composed chain defines the named key.
func (e *Environment) Has(name string) bool {
	return e.keySet[name]
}

// Implements reports whether the composed key set is a superset of the
// capability's declared keys.  This is interface satisfaction, not a
// nominal type check.
func (e *Environment) Implements(c *Capability) bool {
	for _, name := range c.Keys() {
		if !e.keySet[name] {
			return false
		}
	}
	return true
}

// Evaluator builds a fresh Evaluator over the flattened chain.  Evaluators
// are disposable and must not be shared across concurrent contexts; build
// one per worker instance.
func (e *Environment) Evaluator() *Evaluator {
	return newEvaluator(e)
}

// Flatten evaluates every key through a fresh Evaluator.
func (e *Environment) Flatten() map[string]interface{} {
	return e.Evaluator().Flatten()
}

// IncludeInto contributes the full flattened chain to a builder, making
// *Environment satisfy Includable.
func (e *Environment) IncludeInto(b *Builder) {
	b.keys.mergeFacet(&Facet{keys: *e.flat})
}
