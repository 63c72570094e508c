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
	"bytes"
	"errors"
	"log"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

// fakeClass journals lifecycle calls into a shared event list.
type fakeClass struct {
	events   *[]string
	startErr error
	stopErr  error
}

func (c *fakeClass) Start(s *Service) error {
	*c.events = append(*c.events, "start:"+s.Name())
	return c.startErr
}

func (c *fakeClass) Setup(s *Service, ct Container) error {
	*c.events = append(*c.events, "setup:"+s.Name())
	ct.Run(RunOptions{Name: s.Name()}, nil)
	return nil
}

func (c *fakeClass) Stop(s *Service) error {
	*c.events = append(*c.events, "stop:"+s.Name())
	return c.stopErr
}

// fakeRuntime satisfies Container and Lifecycle.
type fakeRuntime struct {
	events *[]string
	sets   []string
}

func (r *fakeRuntime) Run(opts RunOptions, fn RunFunc) {
	r.sets = append(r.sets, opts.Name)
}

func (r *fakeRuntime) Start() error {
	*r.events = append(*r.events, "base:start")
	return nil
}

func (r *fakeRuntime) Stop(graceful bool) {
	*r.events = append(*r.events, "base:stop")
}

func testService(t *testing.T, name string, class Class) *Service {
	env := MustBuild(func(b *Builder) {
		b.Set(KeyServiceClass, class)
	})
	svc, err := NewService(name, env)
	if err != nil {
		t.Fatalf("service %s: %v", name, err)
	}
	return svc
}

func TestControllerLifecycle(t *testing.T) {
	Convey("Given three services and a base runtime", t, func() {
		var events []string
		a := testService(t, "a", &fakeClass{events: &events})
		b := testService(t, "b", &fakeClass{events: &events})
		c := testService(t, "c", &fakeClass{events: &events})
		rt := &fakeRuntime{events: &events}

		ctl := NewController(a, b, c)
		ctl.SetBase(rt)

		Convey("Start runs services in order, then the base", func() {
			So(ctl.Start(), ShouldBeNil)
			So(events, ShouldResemble,
				[]string{"start:a", "start:b", "start:c", "base:start"})
		})

		Convey("Setup registers in declaration order", func() {
			_, err := ctl.Setup(rt)
			So(err, ShouldBeNil)
			So(rt.sets, ShouldResemble, []string{"a", "b", "c"})
		})

		Convey("Stop runs services in order, then the base", func() {
			ctl.Stop(true)
			So(events, ShouldResemble,
				[]string{"stop:a", "stop:b", "stop:c", "base:stop"})
		})
	})
}

func TestControllerStartFailure(t *testing.T) {
	Convey("A failing service start aborts the sequence", t, func() {
		var events []string
		boom := errors.New("no socket")
		a := testService(t, "a", &fakeClass{events: &events})
		b := testService(t, "b", &fakeClass{events: &events, startErr: boom})
		c := testService(t, "c", &fakeClass{events: &events})
		rt := &fakeRuntime{events: &events}

		ctl := NewController(a, b, c)
		ctl.SetBase(rt)
		So(ctl.Start(), ShouldEqual, boom)
		So(events, ShouldResemble, []string{"start:a", "start:b"})
	})
}

func TestControllerStopIsolation(t *testing.T) {
	Convey("A failing service stop never blocks the others", t, func() {
		var events []string
		var buf bytes.Buffer
		a := testService(t, "a", &fakeClass{events: &events})
		b := testService(t, "b", &fakeClass{
			events:  &events,
			stopErr: errors.New("stuck"),
		})
		c := testService(t, "c", &fakeClass{events: &events})
		rt := &fakeRuntime{events: &events}

		ctl := NewController(a, b, c)
		ctl.SetBase(rt)
		ctl.SetLogger(log.New(&buf, "", 0))
		ctl.Stop(true)

		So(events, ShouldResemble,
			[]string{"stop:a", "stop:b", "stop:c", "base:stop"})
		So(buf.String(), ShouldContainSubstring, "Failed to stop b: stuck")
	})
}

func TestControllerPolicy(t *testing.T) {
	Convey("The controller lazily supplies a default policy", t, func() {
		ctl := NewController()
		p := ctl.Policy()
		So(p, ShouldNotBeNil)
		So(p.Threshold(), ShouldEqual, 0.1)

		Convey("Which an explicit policy replaces", func() {
			mine, err := NewPolicy(1, time.Second)
			So(err, ShouldBeNil)
			ctl.SetPolicy(mine)
			So(ctl.Policy(), ShouldEqual, mine)
		})
	})
}

func TestConfiguration(t *testing.T) {
	Convey("Given a configuration rooted at /srv/app", t, func() {
		cfg := NewConfiguration("/srv/app")

		Convey("Declared services compose the host facet underneath", func() {
			svc, err := cfg.Service("web", func(b *Builder) {
				b.Set(KeyCount, 2)
			})
			So(err, ShouldBeNil)
			flat := svc.Flatten()
			So(flat[KeyName], ShouldEqual, "web")
			So(flat[KeyRoot], ShouldEqual, "/srv/app")
			So(flat[KeyCount], ShouldEqual, 2)

			Convey("And derive containerOptions from the scalar keys", func() {
				opts := flat[KeyContainerOptions].(map[string]interface{})
				So(opts[KeyCount], ShouldEqual, 2)
				So(opts, ShouldNotContainKey, KeyStartupTimeout)
			})
		})

		Convey("The block's definitions win over the host's", func() {
			svc, err := cfg.Service("web", func(b *Builder) {
				b.Set(KeyName, "frontend")
			})
			So(err, ShouldBeNil)
			So(svc.Flatten()[KeyName], ShouldEqual, "frontend")
			So(svc.Name(), ShouldEqual, "web")
		})

		Convey("Duplicate names are rejected", func() {
			_, err := cfg.Service("web", nil)
			So(err, ShouldBeNil)
			_, err = cfg.Service("web", nil)
			So(errors.Is(err, ErrDuplicateService), ShouldBeTrue)
		})

		Convey("A serviceClass that is not a Class fails", func() {
			_, err := cfg.Service("bad", func(b *Builder) {
				b.Set(KeyServiceClass, "not a class")
			})
			So(errors.Is(err, ErrInvalidClass), ShouldBeTrue)
		})

		Convey("A service without a class is inert", func() {
			svc, err := cfg.Service("inert", nil)
			So(err, ShouldBeNil)
			So(svc.Runnable(), ShouldBeFalse)
			So(svc.Start(), ShouldBeNil)
			So(svc.Stop(), ShouldBeNil)
		})

		Convey("Controller wires the declared services", func() {
			cfg.Service("a", nil)
			cfg.Service("b", nil)
			ctl := cfg.Controller(nil, nil)
			So(len(ctl.Services()), ShouldEqual, 2)
		})
	})
}
