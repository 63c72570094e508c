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

import (
	"fmt"
	"sort"
)

// Builder accumulates key definitions into a facet.  Statements apply in
// order; a later statement for a key fully replaces an earlier one.  The
// first composition error is latched and reported when the facet or
// environment is realized.
type Builder struct {
	keys *keymap
	err  error
}

func NewBuilder() *Builder {
	return &Builder{keys: newKeymap()}
}

// Set defines key as a constant value.
func (b *Builder) Set(key string, value interface{}) *Builder {
	b.keys.put(key, entry{kind: entryConstant, value: value})
	return b
}

// Lazy defines key as a thunk, evaluated at most once per Evaluator.
func (b *Builder) Lazy(key string, fn Thunk) *Builder {
	b.keys.put(key, entry{kind: entryLazy, thunk: fn})
	return b
}

// Wrap defines key as a decorator over the previous definition of the same
// key.  The decorator receives the evaluated previous value, or nil when
// there is none.
func (b *Builder) Wrap(key string, fn Decorator) *Builder {
	b.keys.put(key, entry{kind: entryDecorator, wrap: fn})
	return b
}

// Merge defines every pair in values as a constant, in sorted key order.
func (b *Builder) Merge(values map[string]interface{}) *Builder {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		b.Set(name, values[name])
	}
	return b
}

// Include composes another value's definitions into the builder.  Facets,
// Environments (their full flattened chain) and anything implementing
// Includable are accepted; any other value fails with ErrInvalidFacet.
func (b *Builder) Include(v interface{}) error {
	switch x := v.(type) {
	case *Facet:
		x.IncludeInto(b)
	case *Environment:
		x.IncludeInto(b)
	case Includable:
		x.IncludeInto(b)
	default:
		err := fmt.Errorf("%w: %T", ErrInvalidFacet, v)
		if b.err == nil {
			b.err = err
		}
		return err
	}
	return nil
}

// Facet realizes the accumulated definitions, or reports the first
// composition error.
func (b *Builder) Facet() (*Facet, error) {
	if b.err != nil {
		return nil, b.err
	}
	f := &Facet{keys: keymap{entries: make(map[string]entry)}}
	for _, name := range b.keys.order {
		f.keys.put(name, b.keys.entries[name])
	}
	return f, nil
}
