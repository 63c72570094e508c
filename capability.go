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

// Capability is a named set of key identifiers.  Environments satisfy a
// capability when their composed key set is a superset of the declared
// keys; see Environment.Implements.
type Capability struct {
	name string
	keys []string
}

func NewCapability(name string, keys ...string) *Capability {
	return &Capability{
		name: name,
		keys: append([]string{}, keys...),
	}
}

func (c *Capability) Name() string {
	return c.name
}

func (c *Capability) Keys() []string {
	return append([]string{}, c.keys...)
}
