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

// Thunk is a lazy key definition.  It is evaluated at most once per
// Evaluator, against that Evaluator, so it may reference sibling keys --
// including keys composed in later -- through ev.Get or ev.Fetch.
type Thunk func(ev *Evaluator) interface{}

// Decorator is a key definition that derives its value from the previous
// definition of the same key on the facet being built.  The previous value
// is evaluated first and passed in; it is nil when no previous definition
// exists.
type Decorator func(ev *Evaluator, previous interface{}) interface{}

type entryKind int

const (
	entryConstant entryKind = iota
	entryLazy
	entryDecorator
)

// entry is a single tagged key definition.  Exactly one of value, thunk or
// wrap is meaningful, selected by kind.  A decorator entry additionally
// holds the definition it replaced.
type entry struct {
	kind  entryKind
	value interface{}
	thunk Thunk
	wrap  Decorator
	prev  *entry
}

// keymap is an ordered key -> entry mapping.  Redefining a key fully
// replaces the earlier entry and moves the key to the end of the order, so
// enumeration reflects the position of the ultimate definition.
type keymap struct {
	order   []string
	entries map[string]entry
}

func newKeymap() *keymap {
	return &keymap{entries: make(map[string]entry)}
}

func (k *keymap) put(name string, e entry) {
	if old, ok := k.entries[name]; ok {
		// A decorator that has not yet captured a previous definition
		// binds to the entry it is shadowing.
		if e.kind == entryDecorator && e.prev == nil {
			prev := old
			e.prev = &prev
		}
		for i, n := range k.order {
			if n == name {
				k.order = append(k.order[:i], k.order[i+1:]...)
				break
			}
		}
	}
	k.order = append(k.order, name)
	k.entries[name] = e
}

func (k *keymap) get(name string) (entry, bool) {
	e, ok := k.entries[name]
	return e, ok
}

// mergeFacet composes another facet's definitions in, later shadowing
// earlier.  Shadowing is full replacement; there is no merging of slice or
// map values.
func (k *keymap) mergeFacet(f *Facet) {
	for _, name := range f.keys.order {
		k.put(name, f.keys.entries[name])
	}
}

func (k *keymap) keys() []string {
	return append([]string{}, k.order...)
}

// Facet is an immutable, ordered bundle of configuration key definitions.
// Facets are the unit of composition: builders merge them, later
// definitions shadowing earlier ones by full replacement.
type Facet struct {
	keys keymap
}

// Keys returns the key names defined by this facet, in definition order.
func (f *Facet) Keys() []string {
	return f.keys.keys()
}

// Has reports whether the facet defines the named key.
func (f *Facet) Has(name string) bool {
	_, ok := f.keys.get(name)
	return ok
}

// IncludeInto contributes this facet's definitions to a builder, making
// *Facet satisfy Includable.
func (f *Facet) IncludeInto(b *Builder) {
	b.keys.mergeFacet(f)
}

// Includable is the inclusion contract accepted by Builder.Include.  A
// value that can contribute key definitions to a builder implements it.
type Includable interface {
	IncludeInto(b *Builder)
}
