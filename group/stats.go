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
	"sync"
	"time"
)

const statsRingSize = 1024

// failureStats tracks worker failure timestamps in a ring and derives a
// failures-per-second rate over a sliding window.  The rate is an
// approximation at the granularity of recorded events, not an exact
// discrete counter.
type failureStats struct {
	window time.Duration
	times  []time.Time
	next   int
	mx     sync.Mutex
}

func newFailureStats(window time.Duration) *failureStats {
	return &failureStats{
		window: window,
		times:  make([]time.Time, statsRingSize),
	}
}

func (f *failureStats) record(t time.Time) {
	f.mx.Lock()
	f.times[f.next%len(f.times)] = t
	f.next++
	f.mx.Unlock()
}

// perSecond returns the failure rate over the window ending at now.
func (f *failureStats) perSecond(now time.Time) float64 {
	count := 0
	f.mx.Lock()
	cutoff := now.Add(-f.window)
	window := f.window
	n := f.next
	if n > len(f.times) {
		n = len(f.times)
	}
	for i := 0; i < n; i++ {
		if f.times[i].After(cutoff) {
			count++
		}
	}
	f.mx.Unlock()
	return float64(count) / window.Seconds()
}

func (f *failureStats) setWindow(d time.Duration) {
	f.mx.Lock()
	f.window = d
	f.mx.Unlock()
}
