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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t,
		os.WriteFile(filepath.Join(dir, name), []byte(body), 0644))
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "web.yml", `
name: web
command: ["/usr/bin/app", "--serve"]
env: ["PORT=8080"]
count: 3
startupTimeout: 30s
healthCheckTimeout: 1m
preload:
  - /etc/app/schema.json
`)

	m, err := LoadManifest(filepath.Join(dir, "web.yml"))
	require.NoError(t, err)
	assert.Equal(t, "web", m.Name)
	assert.Equal(t, []string{"/usr/bin/app", "--serve"}, m.Command)
	assert.Equal(t, []string{"PORT=8080"}, m.Env)
	assert.Equal(t, 3, m.Count)
	assert.Equal(t, "30s", m.StartupTimeout)
	assert.Equal(t, "1m", m.HealthCheckTimeout)
	assert.Equal(t, []string{"/etc/app/schema.json"}, m.Preload)
}

func TestLoadManifestDefaults(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "cache.yaml", `command: ["memcached"]`)

	m, err := LoadManifest(filepath.Join(dir, "cache.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "cache", m.Name)
	assert.Zero(t, m.Count)
}

func TestLoadManifestErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "empty.yml", `name: empty`)
	_, err := LoadManifest(filepath.Join(dir, "empty.yml"))
	assert.ErrorContains(t, err, "no command")

	writeFile(t, dir, "garbage.yml", `: not yaml :`)
	_, err = LoadManifest(filepath.Join(dir, "garbage.yml"))
	assert.Error(t, err)

	_, err = LoadManifest(filepath.Join(dir, "missing.yml"))
	assert.Error(t, err)
}

func TestLoadManifestDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "20-worker.yml", `command: ["worker"]`)
	writeFile(t, dir, "10-web.yml", `command: ["web"]`)
	writeFile(t, dir, "README.md", `not a manifest`)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.yml"), 0755))

	ms, err := LoadManifestDir(dir)
	require.NoError(t, err)
	require.Len(t, ms, 2)
	assert.Equal(t, "10-web", ms[0].Name)
	assert.Equal(t, "20-worker", ms[1].Name)
}
