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
	"encoding/json"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestEvaluatorMemoization(t *testing.T) {
	Convey("Given an environment with a lazy key", t, func() {
		calls := 0
		env := MustBuild(func(b *Builder) {
			b.Lazy("conn", func(ev *Evaluator) interface{} {
				calls++
				return &struct{ id int }{id: calls}
			})
		})

		Convey("One evaluator runs the thunk exactly once", func() {
			ev := env.Evaluator()
			first := ev.Get("conn")
			second := ev.Get("conn")
			So(second, ShouldEqual, first)
			So(calls, ShouldEqual, 1)
		})

		Convey("Separate evaluators evaluate independently", func() {
			a := env.Evaluator().Get("conn")
			b := env.Evaluator().Get("conn")
			So(a, ShouldNotEqual, b)
			So(calls, ShouldEqual, 2)
		})

		Convey("A nil result is cached like any other", func() {
			nilCalls := 0
			e := MustBuild(func(b *Builder) {
				b.Lazy("absent", func(ev *Evaluator) interface{} {
					nilCalls++
					return nil
				})
			})
			ev := e.Evaluator()
			So(ev.Get("absent"), ShouldBeNil)
			So(ev.Get("absent"), ShouldBeNil)
			So(nilCalls, ShouldEqual, 1)
		})
	})
}

func TestEvaluatorAccess(t *testing.T) {
	Convey("Given an evaluator", t, func() {
		env := MustBuild(func(b *Builder) {
			b.Set("defined", "yes")
		})
		ev := env.Evaluator()

		Convey("Get returns nil for an undefined key", func() {
			So(ev.Get("missing"), ShouldBeNil)
		})

		Convey("Fetch fails for an undefined key", func() {
			_, err := ev.Fetch("missing")
			So(errors.Is(err, ErrUndefinedKey), ShouldBeTrue)
		})

		Convey("Fetch returns a defined value", func() {
			v, err := ev.Fetch("defined")
			So(err, ShouldBeNil)
			So(v, ShouldEqual, "yes")
		})
	})
}

func TestEvaluatorCycles(t *testing.T) {
	Convey("Given mutually recursive key definitions", t, func() {
		env := MustBuild(func(b *Builder) {
			b.Lazy("a", func(ev *Evaluator) interface{} {
				return ev.Get("b")
			})
			b.Lazy("b", func(ev *Evaluator) interface{} {
				return ev.Get("a")
			})
		})

		Convey("Fetch reports the cycle instead of recursing forever", func() {
			ev := env.Evaluator()
			_, err := ev.Fetch("a")
			// The cycle surfaces inside the outer thunk, which Get
			// swallows; the outer Fetch itself succeeds with nil.
			So(err, ShouldBeNil)
			So(ev.Get("a"), ShouldBeNil)
		})

		Convey("A direct self-reference is detected", func() {
			e := MustBuild(func(b *Builder) {
				b.Lazy("self", func(ev *Evaluator) interface{} {
					v, err := ev.Fetch("self")
					So(errors.Is(err, ErrKeyCycle), ShouldBeTrue)
					So(v, ShouldBeNil)
					return "settled"
				})
			})
			So(e.Evaluator().Get("self"), ShouldEqual, "settled")
		})
	})
}

func TestEvaluatorDependentKeys(t *testing.T) {
	Convey("Given lazy keys referencing siblings", t, func() {
		env := MustBuild(func(b *Builder) {
			b.Set("host", "example.com")
			b.Set("port", 443)
			b.Lazy("url", func(ev *Evaluator) interface{} {
				host := ev.Get("host").(string)
				port := ev.Get("port").(int)
				if port == 443 {
					return "https://" + host
				}
				return "http://" + host
			})
		})

		Convey("Composition order does not matter for references", func() {
			So(env.Evaluator().Get("url"), ShouldEqual, "https://example.com")
		})

		Convey("A child redefinition is seen by the parent's thunk", func() {
			child := env.MustWith(func(b *Builder) {
				b.Set("port", 80)
			})
			So(child.Evaluator().Get("url"), ShouldEqual, "http://example.com")
		})
	})
}

func TestEvaluatorNestedValues(t *testing.T) {
	Convey("Collections may carry lazy leaves", t, func() {
		env := MustBuild(func(b *Builder) {
			b.Set("base", "/srv")
			b.Set("paths", []interface{}{
				"/etc/app.conf",
				Thunk(func(ev *Evaluator) interface{} {
					return ev.Get("base").(string) + "/app.sock"
				}),
			})
			b.Set("limits", map[string]interface{}{
				"open": 1024,
				"derived": Thunk(func(ev *Evaluator) interface{} {
					return 2048
				}),
			})
		})
		ev := env.Evaluator()

		Convey("Sequence leaves resolve", func() {
			So(ev.Get("paths"), ShouldResemble,
				[]interface{}{"/etc/app.conf", "/srv/app.sock"})
		})

		Convey("Map leaves resolve", func() {
			So(ev.Get("limits"), ShouldResemble,
				map[string]interface{}{"open": 1024, "derived": 2048})
		})
	})
}

func TestEvaluatorFlatten(t *testing.T) {
	Convey("Flatten forces the whole projection", t, func() {
		env := MustBuild(func(b *Builder) {
			b.Set("name", "web")
			b.Lazy("greeting", func(ev *Evaluator) interface{} {
				return "hello " + ev.Get("name").(string)
			})
		})
		ev := env.Evaluator()
		flat := ev.Flatten()
		So(flat, ShouldResemble, map[string]interface{}{
			"name":     "web",
			"greeting": "hello web",
		})

		Convey("And the projection marshals as JSON", func() {
			b, err := json.Marshal(ev)
			So(err, ShouldBeNil)
			var decoded map[string]interface{}
			So(json.Unmarshal(b, &decoded), ShouldBeNil)
			So(decoded["greeting"], ShouldEqual, "hello web")
		})
	})
}
