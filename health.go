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
	"sync"
	"time"
)

// Probe refreshes secondary instance attributes (display name, status
// text) ahead of each liveness signal.  A probe that blocks delays the
// next signal; a probe that fails terminates the health loop, which the
// watchdog will then observe as a liveness failure.
type Probe func(inst Instance) error

// HealthLoop is a background liveness signaler, cancellable independently
// of the work it monitors.  The owner must call Stop when the monitored
// unit shuts down.
type HealthLoop struct {
	done chan struct{}
	once sync.Once
}

// StartHealthLoop guarantees inst receives a Healthy signal within any
// window of length timeout.  With a positive timeout it spawns a loop that
// probes, signals, and sleeps for half the timeout: as long as the loop is
// not itself stalled for a full timeout, a watchdog sampling at timeout
// granularity always observes a signal newer than timeout.  With a zero
// timeout it probes and signals once, synchronously, and no background
// task is created.
func StartHealthLoop(inst Instance, timeout time.Duration, probe Probe) *HealthLoop {
	hl := &HealthLoop{done: make(chan struct{})}
	if timeout <= 0 {
		if probe != nil {
			if err := probe(inst); err != nil {
				hl.Stop()
				return hl
			}
		}
		inst.Healthy()
		hl.Stop()
		return hl
	}
	go hl.run(inst, timeout/2, probe)
	return hl
}

func (hl *HealthLoop) run(inst Instance, interval time.Duration, probe Probe) {
	for {
		if probe != nil {
			if err := probe(inst); err != nil {
				return
			}
		}
		inst.Healthy()
		select {
		case <-hl.done:
			return
		case <-time.After(interval):
		}
	}
}

// Stop cancels the loop.  It is idempotent and does not affect the
// monitored work.
func (hl *HealthLoop) Stop() {
	hl.once.Do(func() {
		close(hl.done)
	})
}
