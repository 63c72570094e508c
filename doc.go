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

// Package servitor provides a composable, lazily evaluated configuration
// engine together with lifecycle supervision primitives for groups of
// long-running worker instances.
//
// Configurations are assembled from facets -- ordered bundles of key
// definitions, either constants or lazy thunks -- composed into immutable
// Environments.  An Environment is projected into concrete values through a
// disposable, memoizing Evaluator, one per execution context.  Services pair
// an Environment with start/setup/stop lifecycle behavior, and a Controller
// drives an ordered collection of Services against a container runtime.
//
// The container runtime itself is a collaborator, not part of this package:
// anything implementing the Container, Group and Instance interfaces can be
// supervised.  A bundled goroutine-based runtime lives in the group
// subpackage.
package servitor
