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

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Manifest is one service declaration loaded from a YAML file.  Timeout
// fields accept time.ParseDuration syntax ("30s", "1m30s").
type Manifest struct {
	Name               string   `yaml:"name"`
	Command            []string `yaml:"command"`
	Env                []string `yaml:"env"`
	Count              int      `yaml:"count"`
	StartupTimeout     string   `yaml:"startupTimeout"`
	HealthCheckTimeout string   `yaml:"healthCheckTimeout"`
	Preload            []string `yaml:"preload"`
}

// LoadManifest parses one manifest file.  A manifest without a name takes
// its file's base name.
func LoadManifest(path string) (*Manifest, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m := &Manifest{}
	if err := yaml.Unmarshal(b, m); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if m.Name == "" {
		base := filepath.Base(path)
		m.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if len(m.Command) == 0 {
		return nil, fmt.Errorf("%s: no command", path)
	}
	return m, nil
}

// LoadManifestDir loads every *.yml and *.yaml file in dir, sorted by file
// name so declaration order is stable.
func LoadManifestDir(dir string) ([]*Manifest, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, ent := range ents {
		if ent.IsDir() {
			continue
		}
		switch filepath.Ext(ent.Name()) {
		case ".yml", ".yaml":
			names = append(names, ent.Name())
		}
	}
	sort.Strings(names)
	var rv []*Manifest
	for _, name := range names {
		m, err := LoadManifest(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		rv = append(rv, m)
	}
	return rv, nil
}
