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
	"errors"
)

var (
	ErrInvalidFacet     = errors.New("Not a facet or includable value")
	ErrUndefinedKey     = errors.New("Undefined configuration key")
	ErrKeyCycle         = errors.New("Configuration key cycle")
	ErrInvalidClass     = errors.New("Service class does not implement Class")
	ErrDuplicateService = errors.New("Duplicate service name")
	ErrBadWindow        = errors.New("Policy window must be positive")
)
