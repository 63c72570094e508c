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
	"context"
	"log"
	"os"
)

// Generic is the default service class: Setup registers a run function
// with the container runtime using the environment's container options.
// Each worker instance builds its own Evaluator, runs the health signal
// loop for the configured timeout, signals readiness, then executes the
// run hook (or idles until cancelled when none is configured).
type Generic struct{}

func (Generic) Start(s *Service) error {
	return nil
}

func (Generic) Setup(s *Service, c Container) error {
	env := s.Environment()
	logger := s.Logger()
	opts := RunOptions{
		Name:               s.Name(),
		Count:              intKey(s.Evaluator(), KeyCount),
		StartupTimeout:     durationKey(s.Evaluator(), KeyStartupTimeout),
		HealthCheckTimeout: durationKey(s.Evaluator(), KeyHealthCheckTimeout),
	}
	c.Run(opts, func(ctx context.Context, inst Instance) error {
		ev := env.Evaluator()
		display, _ := ev.Get(KeyName).(string)

		probe := func(inst Instance) error {
			if display != "" {
				inst.SetName(display)
			}
			return nil
		}
		hl := StartHealthLoop(inst, durationKey(ev, KeyHealthCheckTimeout), probe)
		defer hl.Stop()

		inst.Ready()

		if run, ok := ev.Get(KeyRun).(RunFunc); ok {
			return run(ctx, inst)
		}
		if run, ok := ev.Get(KeyRun).(func(context.Context, Instance) error); ok {
			return run(ctx, inst)
		}
		logger.Printf("No run hook configured, idling")
		<-ctx.Done()
		return ctx.Err()
	})
	return nil
}

func (Generic) Stop(s *Service) error {
	return nil
}

// preloadResources eagerly loads every path listed under the preload key.
// A path that fails to load is a warning, not an error: execution
// continues without that resource.
func preloadResources(ev *Evaluator, logger *log.Logger) {
	if logger == nil {
		logger = log.New(os.Stderr, "", log.LstdFlags)
	}
	for _, path := range stringsKey(ev, KeyPreload) {
		if _, err := os.ReadFile(path); err != nil {
			logger.Printf("Warning: failed to preload %s: %v", path, err)
			continue
		}
		logger.Printf("Preloaded %s", path)
	}
}

var _ Class = Generic{}
