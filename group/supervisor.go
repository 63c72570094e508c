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
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"servitor"
)

// Supervisor is a goroutine-based worker group.  Registered worker sets
// are launched on Start (or immediately, when registered after Start),
// restarted when they exit, and torn down on Stop.  It satisfies the
// servitor Container, Group and Lifecycle contracts; its Workers satisfy
// Instance.
type Supervisor struct {
	name string

	mx         sync.Mutex
	cvs        map[*sync.Cond]bool
	serial     int64
	updateTime time.Time

	sets    []*workerSet
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	stopping atomic.Bool

	stats        *failureStats
	handler      servitor.ChildExitHandler
	grace        time.Duration
	restartDelay time.Duration
	defaultCount int

	ring       *Ring
	fan        *Fanout
	logger     *log.Logger
	userLogger *log.Logger
}

type workerSet struct {
	opts    servitor.RunOptions
	fn      servitor.RunFunc
	workers []*Worker
}

// WorkerInfo is a consistent snapshot of one worker instance.
type WorkerInfo struct {
	Set         string    `json:"set"`
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Status      string    `json:"status"`
	Ready       bool      `json:"ready"`
	LastHealthy time.Time `json:"lastHealthy"`
	Started     time.Time `json:"started"`
	Restarts    int       `json:"restarts"`
}

func NewSupervisor(name string) *Supervisor {
	if name == "" {
		name = "servitor"
	}
	s := &Supervisor{
		name: name,
		cvs:  make(map[*sync.Cond]bool),
		// Serial numbers originate at the current timestamp so that
		// clients caching across a supervisor restart see an
		// invalidation.
		serial:       time.Now().UnixNano(),
		stats:        newFailureStats(time.Minute),
		grace:        10 * time.Second,
		restartDelay: 100 * time.Millisecond,
		defaultCount: 1,
		ring:         NewRing(),
		fan:          NewFanout(),
	}
	s.fan.Add(log.New(s.ring, "", 0))
	s.userLogger = log.New(os.Stderr, "", log.LstdFlags)
	s.fan.Add(s.userLogger)
	s.logger = s.fan.Logger()
	return s
}

func (s *Supervisor) Name() string {
	return s.name
}

// Logger returns the supervisor's fan-out logger.  Lines written through
// it land in the retained ring as well as any user destination.
func (s *Supervisor) Logger() *log.Logger {
	return s.logger
}

// SetLogWriter replaces the user log destination.  The retained ring is
// unaffected.
func (s *Supervisor) SetLogWriter(w io.Writer) {
	s.mx.Lock()
	defer s.mx.Unlock()
	if s.userLogger != nil {
		s.fan.Del(s.userLogger)
	}
	s.userLogger = log.New(w, "", 0)
	s.fan.Add(s.userLogger)
}

// SetExitHandler wires the policy consulted on every worker failure.
func (s *Supervisor) SetExitHandler(h servitor.ChildExitHandler) {
	s.mx.Lock()
	s.handler = h
	s.mx.Unlock()
}

// SetGrace bounds how long a graceful Stop waits before giving up on
// workers that have not returned.
func (s *Supervisor) SetGrace(d time.Duration) {
	s.mx.Lock()
	s.grace = d
	s.mx.Unlock()
}

// SetStatisticsWindow adjusts the failure-rate window (default one
// minute).
func (s *Supervisor) SetStatisticsWindow(d time.Duration) {
	s.stats.setWindow(d)
}

// SetDefaultCount sets the instance count used by worker sets that do not
// specify one.
func (s *Supervisor) SetDefaultCount(n int) {
	s.mx.Lock()
	if n > 0 {
		s.defaultCount = n
	}
	s.mx.Unlock()
}

// bumpSerial increments the serial and wakes watchers.  Call with the lock
// held.
func (s *Supervisor) bumpSerial() int64 {
	s.updateTime = time.Now()
	s.serial++
	for cv := range s.cvs {
		cv.Broadcast()
	}
	return s.serial
}

func (s *Supervisor) Serial() int64 {
	s.mx.Lock()
	defer s.mx.Unlock()
	return s.serial
}

// WatchSerial blocks until the serial differs from old, or expire elapses.
// A zero expire polls.  It returns the current serial.
func (s *Supervisor) WatchSerial(old int64, expire time.Duration) int64 {
	expired := false
	var timer *time.Timer
	cv := sync.NewCond(&s.mx)
	if expire > 0 {
		timer = time.AfterFunc(expire, func() {
			s.mx.Lock()
			expired = true
			cv.Broadcast()
			s.mx.Unlock()
		})
	} else {
		expired = true
	}

	s.mx.Lock()
	s.cvs[cv] = true
	for s.serial == old && !expired {
		cv.Wait()
	}
	delete(s.cvs, cv)
	rv := s.serial
	s.mx.Unlock()
	if timer != nil {
		timer.Stop()
	}
	return rv
}

// Log returns retained log records newer than last; see Ring.Records.
func (s *Supervisor) Log(last int64) ([]Record, int64) {
	return s.ring.Records(last)
}

// WatchLog blocks until the log changes from last or expire elapses.
func (s *Supervisor) WatchLog(last int64, expire time.Duration) int64 {
	return s.ring.Watch(last, expire)
}

// Run registers a worker set.  When the supervisor is already running the
// set's workers launch immediately; otherwise they launch on Start.
func (s *Supervisor) Run(opts servitor.RunOptions, fn servitor.RunFunc) {
	set := &workerSet{opts: opts, fn: fn}
	s.mx.Lock()
	s.sets = append(s.sets, set)
	if s.running {
		s.spawnSet(set)
	}
	s.bumpSerial()
	s.mx.Unlock()
}

// spawnSet launches the set's workers.  Call with the lock held, running.
func (s *Supervisor) spawnSet(set *workerSet) {
	count := set.opts.Count
	if count <= 0 {
		count = s.defaultCount
	}
	for i := 0; i < count; i++ {
		w := &Worker{sup: s, set: set, id: i, name: set.opts.Name}
		set.workers = append(set.workers, w)
		s.wg.Add(1)
		go s.runWorker(w)
	}
}

// Start launches every registered worker set and the watchdog.  It is the
// container runtime's own start, delegated to by the controller after the
// services have started.
func (s *Supervisor) Start() error {
	s.mx.Lock()
	if s.running {
		s.mx.Unlock()
		return nil
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.running = true
	s.stopping.Store(false)
	for _, set := range s.sets {
		set.workers = nil
		s.spawnSet(set)
	}
	s.bumpSerial()
	s.mx.Unlock()
	s.logger.Printf("*** Supervisor %s starting ***", s.name)
	go s.watchdog(s.ctx)
	return nil
}

// Stopping reports whether a group stop has been requested.
func (s *Supervisor) Stopping() bool {
	return s.stopping.Load()
}

// Stop tears the group down.  The stopping flag is claimed with a single
// compare-and-swap, so concurrent stop requests (two exit events racing,
// or a policy breach racing a shutdown signal) collapse into one.  A
// graceful stop waits up to the grace period for workers to return.
func (s *Supervisor) Stop(graceful bool) {
	if !s.stopping.CompareAndSwap(false, true) {
		return
	}
	s.logger.Printf("*** Supervisor %s stopping (graceful=%v) ***", s.name, graceful)
	s.mx.Lock()
	s.running = false
	cancel := s.cancel
	s.bumpSerial()
	s.mx.Unlock()
	if cancel != nil {
		cancel()
	}
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	if graceful && s.grace > 0 {
		select {
		case <-done:
		case <-time.After(s.grace):
			s.logger.Printf("Graceful shutdown timed out")
		}
	} else {
		<-done
	}
	s.logger.Printf("*** Supervisor %s stopped ***", s.name)
}

// FailureRate reports worker failures per second over the statistics
// window.
func (s *Supervisor) FailureRate() float64 {
	return s.stats.perSecond(time.Now())
}

// Workers returns a snapshot of every worker instance.
func (s *Supervisor) Workers() []WorkerInfo {
	s.mx.Lock()
	defer s.mx.Unlock()
	var rv []WorkerInfo
	for _, set := range s.sets {
		for _, w := range set.workers {
			rv = append(rv, WorkerInfo{
				Set:         set.opts.Name,
				ID:          w.id,
				Name:        w.name,
				Status:      w.status,
				Ready:       !w.ready.IsZero(),
				LastHealthy: w.healthy,
				Started:     w.started,
				Restarts:    w.restarts,
			})
		}
	}
	return rv
}

// runWorker is one worker's restart loop.  A non-nil error from the run
// function is a failure: it is recorded in the statistics and reported to
// the exit handler, which may stop the whole group.  Workers restart until
// the group stops, with a short delay to avoid a hot loop (crash-loop
// throttling is the policy's job, not ours).
func (s *Supervisor) runWorker(w *Worker) {
	defer s.wg.Done()
	for {
		ctx, cancel := context.WithCancel(s.ctx)
		s.mx.Lock()
		w.cancel = cancel
		w.started = time.Now()
		w.ready = time.Time{}
		w.healthy = time.Time{}
		w.status = "Starting"
		s.bumpSerial()
		s.mx.Unlock()

		err := s.invoke(ctx, w)
		cancel()

		if s.ctx.Err() != nil {
			// Group shutdown, not a worker exit event.
			return
		}

		s.mx.Lock()
		w.restarts++
		if err != nil {
			w.status = "Failed: " + err.Error()
		} else {
			w.status = "Exited"
		}
		handler := s.handler
		s.bumpSerial()
		s.mx.Unlock()

		if err != nil {
			s.stats.record(time.Now())
			s.logger.Printf("[%s.%d] Worker failed: %v",
				w.set.opts.Name, w.id, err)
			if handler != nil {
				// Dispatched so that a handler requesting a group stop
				// does not end up waiting on this very goroutine.
				go handler.OnChildExit(s, &exitStatus{err: err})
			}
		}
		if s.Stopping() {
			return
		}
		select {
		case <-s.ctx.Done():
			return
		case <-time.After(s.restartDelay):
		}
	}
}

func (s *Supervisor) invoke(ctx context.Context, w *Worker) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("worker panic: %v", r)
		}
	}()
	return w.set.fn(ctx, w)
}

// watchdog samples worker liveness on a fixed cadence.  A worker that
// never signals ready within its startup timeout, or whose last healthy
// signal is older than its health-check timeout, is cancelled; the
// resulting exit counts as a failure and flows through the exit handler
// like any other.
func (s *Supervisor) watchdog(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		// a "prime" number of milliseconds, for a more or less even
		// distribution of clock events
		case <-time.After(587 * time.Millisecond):
		}
		now := time.Now()
		s.mx.Lock()
		for _, set := range s.sets {
			for _, w := range set.workers {
				s.checkWorker(set, w, now)
			}
		}
		s.mx.Unlock()
	}
}

// checkWorker enforces the set's startup and health-check timeouts.  Call
// with the lock held.
func (s *Supervisor) checkWorker(set *workerSet, w *Worker, now time.Time) {
	if w.cancel == nil || w.started.IsZero() {
		return
	}
	if d := set.opts.StartupTimeout; d > 0 && w.ready.IsZero() {
		if now.Sub(w.started) > d {
			w.status = "Startup timeout"
			w.cancel()
			return
		}
	}
	if d := set.opts.HealthCheckTimeout; d > 0 {
		last := w.healthy
		if last.IsZero() {
			last = w.started
		}
		if now.Sub(last) > d {
			w.status = "Health check timeout"
			w.cancel()
		}
	}
}

// exitStatus is the child exit event handed to the policy.
type exitStatus struct {
	err error
}

func (e *exitStatus) Success() bool {
	return e.err == nil
}

func (e *exitStatus) String() string {
	if e.err == nil {
		return "success"
	}
	return e.err.Error()
}

var (
	_ servitor.Container = (*Supervisor)(nil)
	_ servitor.Group     = (*Supervisor)(nil)
	_ servitor.Lifecycle = (*Supervisor)(nil)
)
