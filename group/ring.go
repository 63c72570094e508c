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
	"strings"
	"sync"
	"time"
)

// MaxRecords bounds how much history a Ring retains.
const MaxRecords = 1000

// Record is one retained log line.  IDs increase monotonically and are
// suitable as Etags in REST APIs; they are seeded from the clock so that a
// restarted supervisor invalidates cached views.
type Record struct {
	ID   int64     `json:"id,string"`
	Time time.Time `json:"time"`
	Text string    `json:"text"`
}

// Ring is a bounded in-memory log with change notification.  It
// implements io.Writer so a log.Logger can write straight into it.
type Ring struct {
	records []Record
	next    int
	id      int64
	cvs     map[*sync.Cond]bool
	mx      sync.Mutex
}

func NewRing() *Ring {
	return &Ring{
		records: make([]Record, MaxRecords),
		id:      time.Now().UnixNano(),
		cvs:     make(map[*sync.Cond]bool),
	}
}

// Write retains each line of b and wakes watchers.
func (r *Ring) Write(b []byte) (int, error) {
	str := strings.Trim(string(b), "\n")
	r.mx.Lock()
	for _, line := range strings.Split(str, "\n") {
		idx := r.next % len(r.records)
		r.id++
		r.records[idx] = Record{ID: r.id, Time: time.Now(), Text: line}
		r.next++
	}
	for cv := range r.cvs {
		cv.Broadcast()
	}
	r.mx.Unlock()
	return len(b), nil
}

// Records returns the retained records along with the current ID.  When
// last matches the current ID the log is unchanged and nil is returned
// immediately, so pollers never duplicate data.
func (r *Ring) Records(last int64) ([]Record, int64) {
	r.mx.Lock()
	defer r.mx.Unlock()
	if r.id == last {
		return nil, last
	}
	cnt := r.next
	if cnt > len(r.records) {
		cnt = len(r.records)
	}
	recs := make([]Record, 0, cnt)
	for i := r.next - cnt; i < r.next; i++ {
		recs = append(recs, r.records[i%len(r.records)])
	}
	return recs, r.id
}

// Watch blocks until the log ID differs from last, or until expire
// elapses.  An expire of zero polls.
func (r *Ring) Watch(last int64, expire time.Duration) int64 {
	expired := false
	var timer *time.Timer
	cv := sync.NewCond(&r.mx)
	if expire > 0 {
		timer = time.AfterFunc(expire, func() {
			r.mx.Lock()
			expired = true
			cv.Broadcast()
			r.mx.Unlock()
		})
	} else {
		expired = true
	}

	r.mx.Lock()
	r.cvs[cv] = true
	for r.id == last && !expired {
		cv.Wait()
	}
	delete(r.cvs, cv)
	rv := r.id
	r.mx.Unlock()
	if timer != nil {
		timer.Stop()
	}
	return rv
}
