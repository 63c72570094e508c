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

package rest

import (
	"servitor/group"
)

const (
	mimeJson = "application/json; charset=UTF-8"
)

var ok struct{}

type ServiceInfo struct {
	Name     string                 `json:"name"`
	Runnable bool                   `json:"runnable"`
	Keys     []string               `json:"keys"`
	Config   map[string]interface{} `json:"config"`
}

type GroupInfo struct {
	Name        string             `json:"name"`
	Stopping    bool               `json:"stopping"`
	FailureRate float64            `json:"failureRate"`
	Threshold   float64            `json:"threshold"`
	Serial      int64              `json:"serial,string"`
	Workers     []group.WorkerInfo `json:"workers"`
}

type LogChunk struct {
	ID      int64          `json:"id,string"`
	Records []group.Record `json:"records"`
}

type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return e.Message
}
