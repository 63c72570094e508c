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
	"time"
)

// Policy decides, on every child exit, whether the supervised group has
// become unhealthy enough to stop.  It holds no per-evaluation state; the
// failure statistics live in the container runtime.  A breach is not an
// error: it results in a graceful stop request that an outer supervisor is
// expected to observe and react to, typically by restarting the whole
// group.
type Policy struct {
	maximumFailures int
	window          time.Duration
	logger          *log.Logger
}

// NewPolicy returns a policy stopping the group when the failure rate
// exceeds maximumFailures per window.  The window must be positive.
func NewPolicy(maximumFailures int, window time.Duration) (*Policy, error) {
	if window <= 0 {
		return nil, ErrBadWindow
	}
	return &Policy{
		maximumFailures: maximumFailures,
		window:          window,
		logger:          log.New(os.Stderr, "", log.LstdFlags),
	}, nil
}

// DefaultPolicy tolerates a handful of transient failures but halts a
// crash-loop within roughly 10-20 seconds: 6 failures per minute.
func DefaultPolicy() *Policy {
	p, _ := NewPolicy(6, time.Minute)
	return p
}

func (p *Policy) MaximumFailures() int {
	return p.maximumFailures
}

func (p *Policy) Window() time.Duration {
	return p.window
}

// Threshold returns the stop threshold in failures per second.
func (p *Policy) Threshold() float64 {
	return float64(p.maximumFailures) / p.window.Seconds()
}

// SetLogger overrides where breach events are reported.
func (p *Policy) SetLogger(l *log.Logger) {
	if l != nil {
		p.logger = l
	}
}

// OnChildExit consults the policy for one child exit event.  Successful
// exits are ignored.  Otherwise the group's current failure rate is read
// and, when it exceeds the threshold and the group is not already
// stopping, a graceful stop is requested.  The check re-evaluates on every
// exit; the group's stopping state is what prevents redundant requests.
func (p *Policy) OnChildExit(g Group, status ExitStatus) {
	if status == nil || status.Success() {
		return
	}
	rate := g.FailureRate()
	if rate <= p.Threshold() {
		return
	}
	if g.Stopping() {
		return
	}
	p.logger.Printf("Failure rate %.3f/s exceeds threshold %.3f/s, requesting group stop",
		rate, p.Threshold())
	g.Stop(true)
}
