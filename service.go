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
	"log"
	"os"
	"time"
)

// Configuration keys recognized by the lifecycle components.  All are
// optional unless a component documents otherwise.
const (
	KeyServiceClass       = "serviceClass"
	KeyName               = "name"
	KeyRoot               = "root"
	KeyCount              = "count"
	KeyStartupTimeout     = "startupTimeout"
	KeyHealthCheckTimeout = "healthCheckTimeout"
	KeyPreload            = "preload"
	KeyContainerOptions   = "containerOptions"
	KeyRun                = "run"
)

// Class is the concrete behavior a service delegates its lifecycle to.
// The implementation is designated by the serviceClass key; a service
// without one is inert and never run.
type Class interface {
	Start(s *Service) error
	Setup(s *Service, c Container) error
	Stop(s *Service) error
}

// Service is a named, runnable unit pairing an Environment with a freshly
// created Evaluator.  Lifecycle: Start once before container setup, Setup
// once to register run behavior with the container runtime, Stop once
// during shutdown.
type Service struct {
	name   string
	env    *Environment
	ev     *Evaluator
	class  Class
	logger *log.Logger
}

// NewService wraps env as a service.  A serviceClass value that does not
// implement Class fails with ErrInvalidClass.
func NewService(name string, env *Environment) (*Service, error) {
	s := &Service{
		name:   name,
		env:    env,
		ev:     env.Evaluator(),
		logger: log.New(os.Stderr, "["+name+"] ", log.LstdFlags),
	}
	if v := s.ev.Get(KeyServiceClass); v != nil {
		c, ok := v.(Class)
		if !ok {
			return nil, fmt.Errorf("%w: %q has %T", ErrInvalidClass, name, v)
		}
		s.class = c
	}
	return s, nil
}

func (s *Service) Name() string {
	return s.name
}

func (s *Service) Environment() *Environment {
	return s.env
}

// Evaluator returns the service's own evaluator.  Worker instances must
// not share it; they build fresh ones from Environment.
func (s *Service) Evaluator() *Evaluator {
	return s.ev
}

// Runnable reports whether a serviceClass was configured.
func (s *Service) Runnable() bool {
	return s.class != nil
}

// SetLogger overrides the service log destination.
func (s *Service) SetLogger(l *log.Logger) {
	if l != nil {
		s.logger = l
	}
}

func (s *Service) Logger() *log.Logger {
	return s.logger
}

// Start acquires whatever resources the service needs before worker
// instances exist, e.g. binding a listening socket for the group to share.
func (s *Service) Start() error {
	if s.class == nil {
		return nil
	}
	return s.class.Start(s)
}

// Setup registers the service's run behavior with the container runtime.
func (s *Service) Setup(c Container) error {
	if s.class == nil {
		return nil
	}
	return s.class.Setup(s, c)
}

// Stop releases resources during shutdown.
func (s *Service) Stop() error {
	if s.class == nil {
		return nil
	}
	return s.class.Stop(s)
}

// Flatten evaluates the full configuration of this service.
func (s *Service) Flatten() map[string]interface{} {
	return s.ev.Flatten()
}

// ContainerFacet defines containerOptions as the derived merge of the
// count, timeout and preload keys, with absent entries omitted.
func ContainerFacet() *Facet {
	b := NewBuilder()
	b.Lazy(KeyContainerOptions, func(ev *Evaluator) interface{} {
		opts := make(map[string]interface{})
		for _, name := range []string{
			KeyCount,
			KeyStartupTimeout,
			KeyHealthCheckTimeout,
			KeyPreload,
		} {
			if v := ev.Get(name); v != nil {
				opts[name] = v
			}
		}
		return opts
	})
	f, _ := b.Facet()
	return f
}

// intKey coerces a configuration value to an int, tolerating the numeric
// types YAML and JSON decoders produce.
func intKey(ev *Evaluator, name string) int {
	switch v := ev.Get(name).(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

// durationKey coerces a configuration value to a duration.  Bare numbers
// are interpreted as seconds, strings parse as time.ParseDuration.
func durationKey(ev *Evaluator, name string) time.Duration {
	switch v := ev.Get(name).(type) {
	case time.Duration:
		return v
	case int:
		return time.Duration(v) * time.Second
	case int64:
		return time.Duration(v) * time.Second
	case float64:
		return time.Duration(v * float64(time.Second))
	case string:
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0
		}
		return d
	default:
		return 0
	}
}

// stringsKey coerces a configuration value to a string slice.
func stringsKey(ev *Evaluator, name string) []string {
	switch v := ev.Get(name).(type) {
	case []string:
		return v
	case []interface{}:
		rv := make([]string, 0, len(v))
		for _, item := range v {
			if str, ok := item.(string); ok {
				rv = append(rv, str)
			}
		}
		return rv
	default:
		return nil
	}
}
