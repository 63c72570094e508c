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
	"time"
)

// These interfaces describe the container runtime this package supervises
// against.  The runtime forks, monitors and restarts worker instances; the
// core only registers run behavior with it and reacts to its signals.  A
// bundled implementation lives in the group subpackage, but any runtime
// satisfying these contracts can be used.

// RunFunc is the per-worker-instance callback registered with a Container.
// It runs until the instance should exit; a non-nil error marks the exit
// as a failure.
type RunFunc func(ctx context.Context, inst Instance) error

// RunOptions configure one registered worker set.
type RunOptions struct {
	// Name labels the worker set and its instances.
	Name string

	// Count is the number of worker instances; zero means the runtime
	// default.
	Count int

	// StartupTimeout bounds how long an instance may run without
	// signaling Ready before it is considered hung.  Zero disables the
	// check.
	StartupTimeout time.Duration

	// HealthCheckTimeout is the liveness window: an instance whose last
	// Healthy signal is older than this is considered dead.  Zero
	// disables health checking.
	HealthCheckTimeout time.Duration
}

// Container registers per-worker-instance callbacks with the runtime.
type Container interface {
	Run(opts RunOptions, fn RunFunc)
}

// Instance is the runtime's per-worker handle, accepting readiness,
// liveness and status signals.
type Instance interface {
	Ready()
	Healthy()
	Status(text string)
	SetName(name string)
}

// Group is the runtime's handle for the whole supervised worker group.
// FailureRate reports failures per second over the runtime's statistics
// window.
type Group interface {
	Stopping() bool
	Stop(graceful bool)
	FailureRate() float64
}

// ExitStatus describes one child exit event.
type ExitStatus interface {
	Success() bool
}

// ChildExitHandler is consulted by the runtime on every child exit.  The
// Policy type implements it.
type ChildExitHandler interface {
	OnChildExit(g Group, status ExitStatus)
}

// Lifecycle is the runtime's own start/stop surface, delegated to by the
// Controller around its services.
type Lifecycle interface {
	Start() error
	Stop(graceful bool)
}
