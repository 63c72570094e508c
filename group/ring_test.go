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
	"bytes"
	"fmt"
	"log"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestRing(t *testing.T) {
	Convey("Given an empty ring", t, func() {
		r := NewRing()
		_, id0 := r.Records(0)

		Convey("Written lines are retained in order", func() {
			logger := log.New(r, "", 0)
			logger.Println("first")
			logger.Println("second")
			recs, id := r.Records(0)
			So(len(recs), ShouldEqual, 2)
			So(recs[0].Text, ShouldEqual, "first")
			So(recs[1].Text, ShouldEqual, "second")
			So(id, ShouldBeGreaterThan, id0)

			Convey("An up-to-date poller gets nothing back", func() {
				recs, again := r.Records(id)
				So(recs, ShouldBeNil)
				So(again, ShouldEqual, id)
			})

			Convey("A multi-line write splits into records", func() {
				r.Write([]byte("three\nfour\n"))
				recs, _ := r.Records(id)
				So(len(recs), ShouldEqual, 4)
				So(recs[3].Text, ShouldEqual, "four")
			})
		})

		Convey("Retention is bounded", func() {
			for i := 0; i < MaxRecords+10; i++ {
				fmt.Fprintf(r, "line %d\n", i)
			}
			recs, _ := r.Records(0)
			So(len(recs), ShouldEqual, MaxRecords)
			So(recs[0].Text, ShouldEqual, "line 10")
		})

		Convey("Watch wakes on a write", func() {
			var got int64
			var wg sync.WaitGroup
			wg.Add(1)
			go func() {
				got = r.Watch(id0, 5*time.Second)
				wg.Done()
			}()
			time.Sleep(50 * time.Millisecond)
			r.Write([]byte("wake\n"))
			wg.Wait()
			So(got, ShouldBeGreaterThan, id0)
		})

		Convey("Watch expires when nothing changes", func() {
			start := time.Now()
			got := r.Watch(id0, 100*time.Millisecond)
			So(got, ShouldEqual, id0)
			So(time.Since(start), ShouldBeGreaterThanOrEqualTo,
				100*time.Millisecond)
		})
	})
}

func TestFanout(t *testing.T) {
	Convey("Given a fanout with two destinations", t, func() {
		f := NewFanout()
		var a, b bytes.Buffer
		la := log.New(&a, "", 0)
		lb := log.New(&b, "", 0)
		f.Add(la)
		f.Add(lb)

		Convey("Both receive each line", func() {
			f.Logger().Println("hello")
			So(a.String(), ShouldEqual, "hello\n")
			So(b.String(), ShouldEqual, "hello\n")
		})

		Convey("Double adds are ignored", func() {
			f.Add(la)
			f.Logger().Println("once")
			So(a.String(), ShouldEqual, "once\n")
		})

		Convey("Removed destinations stop receiving", func() {
			f.Del(lb)
			f.Logger().Println("solo")
			So(a.String(), ShouldEqual, "solo\n")
			So(b.String(), ShouldEqual, "")
		})
	})
}
