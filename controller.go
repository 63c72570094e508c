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
	"log"
	"os"
	"runtime"
	"runtime/debug"
	"sync"
)

// Controller mediates the three lifecycle phases of an ordered list of
// services against a container runtime.  It holds a back-reference to the
// runtime's own lifecycle, not ownership of the runtime.
type Controller struct {
	services []*Service
	policy   *Policy
	base     Lifecycle
	logger   *log.Logger
	warmup   sync.Once
}

func NewController(services ...*Service) *Controller {
	return &Controller{
		services: append([]*Service{}, services...),
		logger:   log.New(os.Stderr, "", log.LstdFlags),
	}
}

// SetBase wires the container runtime's own start/stop hooks.
func (c *Controller) SetBase(base Lifecycle) {
	c.base = base
}

// SetPolicy overrides the default stop policy.
func (c *Controller) SetPolicy(p *Policy) {
	if p != nil {
		c.policy = p
		p.SetLogger(c.logger)
	}
}

// SetLogger overrides the controller log destination.
func (c *Controller) SetLogger(l *log.Logger) {
	if l != nil {
		c.logger = l
		if c.policy != nil {
			c.policy.SetLogger(l)
		}
	}
}

func (c *Controller) Services() []*Service {
	return append([]*Service{}, c.services...)
}

// Policy returns the configured policy, defaulting to DefaultPolicy.
// This is what the container runtime consults on every child exit.
func (c *Controller) Policy() *Policy {
	if c.policy == nil {
		c.policy = DefaultPolicy()
		c.policy.SetLogger(c.logger)
	}
	return c.policy
}

// Start starts every service in declaration order, then the container
// runtime's own lifecycle, then performs a one-time warm-up.  Services
// start before any worker instance exists, so they can acquire shared
// resources such as listening sockets.  A failing service start aborts and
// propagates: a misconfigured service must prevent the group from
// starting.
func (c *Controller) Start() error {
	for _, s := range c.services {
		if err := s.Start(); err != nil {
			return err
		}
	}
	if c.base != nil {
		if err := c.base.Start(); err != nil {
			return err
		}
	}
	c.warmup.Do(c.warmUp)
	return nil
}

// warmUp eagerly loads every service's preload list and compacts the heap,
// to reduce time-to-ready and improve copy-on-write behavior for the
// worker group.
func (c *Controller) warmUp() {
	for _, s := range c.services {
		preloadResources(s.Evaluator(), s.Logger())
	}
	runtime.GC()
	debug.FreeOSMemory()
}

// Setup registers every service's run behavior with the container runtime,
// in declaration order.  Registration order equals declaration order, but
// run execution across worker instances is unordered.  Errors propagate.
// The handle is returned for chaining.
func (c *Controller) Setup(ct Container) (Container, error) {
	for _, s := range c.services {
		if err := s.Setup(ct); err != nil {
			return ct, err
		}
	}
	return ct, nil
}

// Stop stops every service in declaration order, then the container
// runtime's own lifecycle.  An individual stop error is logged and
// swallowed so one failing shutdown never prevents the remaining services
// from being asked to stop.
func (c *Controller) Stop(graceful bool) {
	for _, s := range c.services {
		if err := s.Stop(); err != nil {
			c.logger.Printf("Failed to stop %s: %v", s.Name(), err)
		}
	}
	if c.base != nil {
		c.base.Stop(graceful)
	}
}
