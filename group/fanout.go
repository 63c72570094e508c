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
	"log"
	"strings"
	"sync"
)

// Fanout presents a single log.Logger whose output is delivered,
// line-wise, to every registered destination logger.  Destinations keep
// their own prefixes and flags.
type Fanout struct {
	log     *log.Logger
	loggers []*log.Logger
	mx      sync.Mutex
}

func NewFanout() *Fanout {
	f := &Fanout{}
	f.log = log.New(f, "", 0)
	return f
}

// Write splits b into lines and delivers each to every destination.  This
// matches the semantic log.Logger expects of its writer.
func (f *Fanout) Write(b []byte) (int, error) {
	lines := strings.Split(strings.Trim(string(b), "\n"), "\n")
	f.mx.Lock()
	for _, line := range lines {
		for _, l := range f.loggers {
			l.Println(line)
		}
	}
	f.mx.Unlock()
	return len(b), nil
}

// Add registers a destination.  A destination is only ever added once.
func (f *Fanout) Add(l *log.Logger) {
	f.mx.Lock()
	defer f.mx.Unlock()
	for _, x := range f.loggers {
		if x == l {
			return
		}
	}
	f.loggers = append(f.loggers, l)
}

// Del unregisters a destination.
func (f *Fanout) Del(l *log.Logger) {
	f.mx.Lock()
	defer f.mx.Unlock()
	for i, x := range f.loggers {
		if x == l {
			f.loggers = append(f.loggers[:i], f.loggers[i+1:]...)
			break
		}
	}
}

// Logger returns the fan-in logger callers should write through.
func (f *Fanout) Logger() *log.Logger {
	return f.log
}
