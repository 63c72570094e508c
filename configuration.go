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
)

// Configuration collects the service declarations of one deployment.  Each
// declared service environment composes the host facet (root path, service
// name, container options) underneath the user's block, so the block's
// definitions win.
type Configuration struct {
	root     string
	names    map[string]bool
	services []*Service
}

// NewConfiguration returns an empty configuration rooted at the given base
// path.  Every declared service sees it under the root key.
func NewConfiguration(root string) *Configuration {
	return &Configuration{
		root:  root,
		names: make(map[string]bool),
	}
}

func (c *Configuration) Root() string {
	return c.root
}

// Service declares a named service.  Redeclaring a name fails with
// ErrDuplicateService; composition errors from the block propagate.
func (c *Configuration) Service(name string, fn func(b *Builder)) (*Service, error) {
	if c.names[name] {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateService, name)
	}
	host := MustBuild(func(b *Builder) {
		b.Set(KeyName, name)
		b.Set(KeyRoot, c.root)
		b.Include(ContainerFacet())
	})
	env, err := host.With(fn)
	if err != nil {
		return nil, fmt.Errorf("service %q: %w", name, err)
	}
	svc, err := NewService(name, env)
	if err != nil {
		return nil, err
	}
	c.names[name] = true
	c.services = append(c.services, svc)
	return svc, nil
}

// Services returns the declared services in declaration order.
func (c *Configuration) Services() []*Service {
	return append([]*Service{}, c.services...)
}

// Controller builds a controller over the declared services.  The base
// lifecycle and policy may be nil.
func (c *Configuration) Controller(base Lifecycle, policy *Policy) *Controller {
	ctl := NewController(c.services...)
	ctl.SetBase(base)
	ctl.SetPolicy(policy)
	return ctl
}
