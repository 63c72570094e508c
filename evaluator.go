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
	"encoding/json"
	"fmt"
)

// Evaluator is a disposable, memoizing projection of one Environment into
// concrete values.  Each key evaluates at most once; repeated access
// returns the identical cached value, nil results included.  An Evaluator
// is not safe for concurrent use -- every worker instance builds its own
// from the shared Environment.
type Evaluator struct {
	env       *Environment
	flat      *keymap
	cache     map[string]interface{}
	resolved  map[string]bool
	resolving map[string]bool
}

func newEvaluator(env *Environment) *Evaluator {
	return &Evaluator{
		env:       env,
		flat:      env.flat,
		cache:     make(map[string]interface{}),
		resolved:  make(map[string]bool),
		resolving: make(map[string]bool),
	}
}

// Environment returns the Environment this Evaluator projects.
func (ev *Evaluator) Environment() *Environment {
	return ev.env
}

// Keys returns every visible key in post-shadowing definition order.
func (ev *Evaluator) Keys() []string {
	return ev.flat.keys()
}

// Has reports whether the named key is defined.
func (ev *Evaluator) Has(name string) bool {
	_, ok := ev.flat.get(name)
	return ok
}

// Get returns the evaluated value for name, or nil when the key is
// undefined or participates in a definition cycle.  Programmatic callers
// probing optional configuration should use Get; script-style access that
// wants fail-fast typo detection should use Fetch.
func (ev *Evaluator) Get(name string) interface{} {
	v, _ := ev.Fetch(name)
	return v
}

// Fetch returns the evaluated value for name, failing with ErrUndefinedKey
// when the key is not defined and ErrKeyCycle when its definition
// re-enters itself.
func (ev *Evaluator) Fetch(name string) (interface{}, error) {
	e, ok := ev.flat.get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUndefinedKey, name)
	}
	if ev.resolved[name] {
		return ev.cache[name], nil
	}
	if ev.resolving[name] {
		return nil, fmt.Errorf("%w: %q", ErrKeyCycle, name)
	}
	ev.resolving[name] = true
	v := ev.evalEntry(e)
	delete(ev.resolving, name)
	ev.cache[name] = v
	ev.resolved[name] = true
	return v, nil
}

func (ev *Evaluator) evalEntry(e entry) interface{} {
	switch e.kind {
	case entryLazy:
		return ev.resolveValue(e.thunk(ev))
	case entryDecorator:
		var prev interface{}
		if e.prev != nil {
			prev = ev.evalEntry(*e.prev)
		}
		return ev.resolveValue(e.wrap(ev, prev))
	default:
		return ev.resolveValue(e.value)
	}
}

// resolveValue recursively resolves nested sequences and maps whose leaves
// are themselves thunks, so stored collections may carry lazy entries.
func (ev *Evaluator) resolveValue(v interface{}) interface{} {
	switch x := v.(type) {
	case Thunk:
		return ev.resolveValue(x(ev))
	case func(*Evaluator) interface{}:
		return ev.resolveValue(x(ev))
	case []interface{}:
		rv := make([]interface{}, len(x))
		for i, item := range x {
			rv[i] = ev.resolveValue(item)
		}
		return rv
	case map[string]interface{}:
		rv := make(map[string]interface{}, len(x))
		for name, item := range x {
			rv[name] = ev.resolveValue(item)
		}
		return rv
	default:
		return v
	}
}

// Flatten forces evaluation of every key and returns the stabilized cache.
func (ev *Evaluator) Flatten() map[string]interface{} {
	rv := make(map[string]interface{}, len(ev.flat.order))
	for _, name := range ev.flat.order {
		rv[name] = ev.Get(name)
	}
	return rv
}

// MarshalJSON serializes the fully evaluated projection.
func (ev *Evaluator) MarshalJSON() ([]byte, error) {
	return json.Marshal(ev.Flatten())
}
