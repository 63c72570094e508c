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

// Package group is the bundled container runtime: a supervised pool of
// goroutine worker instances.  A Supervisor implements the servitor
// Container, Group and Lifecycle contracts, and its Workers implement
// Instance -- it launches the
// registered worker sets, restarts workers when they exit, tracks a
// windowed failure rate, and reports every child exit to the configured
// handler (normally the controller's stop policy).  A watchdog detects
// instances that never become ready or whose liveness signal has gone
// stale.
package group
