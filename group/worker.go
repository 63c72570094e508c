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

package group

import (
	"context"
	"time"

	"servitor"
)

// Worker is the supervisor's per-instance handle, passed to the run
// function as its servitor.Instance.  Signal methods are safe to call from
// the worker's own goroutine and from the health loop.
type Worker struct {
	sup    *Supervisor
	set    *workerSet
	id     int
	name   string
	status string

	started time.Time
	ready   time.Time
	healthy time.Time

	restarts int
	cancel   context.CancelFunc
}

// Ready signals that the instance finished starting.  The first Ready also
// counts as a liveness signal.
func (w *Worker) Ready() {
	s := w.sup
	s.mx.Lock()
	now := time.Now()
	if w.ready.IsZero() {
		w.ready = now
	}
	if w.healthy.Before(now) {
		w.healthy = now
	}
	w.status = "Running"
	s.bumpSerial()
	s.mx.Unlock()
}

// Healthy refreshes the instance's liveness stamp.
func (w *Worker) Healthy() {
	s := w.sup
	s.mx.Lock()
	w.healthy = time.Now()
	s.bumpSerial()
	s.mx.Unlock()
}

// Status publishes a short status line for the instance.
func (w *Worker) Status(text string) {
	s := w.sup
	s.mx.Lock()
	w.status = text
	s.bumpSerial()
	s.mx.Unlock()
}

// SetName publishes the instance's display name.
func (w *Worker) SetName(name string) {
	s := w.sup
	s.mx.Lock()
	if w.name != name {
		w.name = name
		s.bumpSerial()
	}
	s.mx.Unlock()
}

var _ servitor.Instance = (*Worker)(nil)
