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

// Command servitord supervises a group of services declared by YAML
// manifests, exposing a REST control interface for use by servitorctl.
package main

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/net/netutil"

	"servitor"
	"servitor/group"
	"servitor/rest"
)

var opts struct {
	addr        string
	dir         string
	root        string
	name        string
	auth        string
	limit       int
	grace       time.Duration
	maxFailures int
	window      time.Duration
}

func main() {
	cmd := &cobra.Command{
		Use:   "servitord",
		Short: "servitord supervises a group of services",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return run()
		},
	}
	fl := cmd.Flags()
	fl.StringVarP(&opts.addr, "address", "a", "127.0.0.1:8321", "listen address")
	fl.StringVarP(&opts.dir, "dir", "d", ".", "manifest directory")
	fl.StringVarP(&opts.root, "root", "r", "", "root path seen by services (default manifest dir)")
	fl.StringVarP(&opts.name, "name", "n", "servitor", "group name")
	fl.StringVarP(&opts.auth, "auth", "u", "", "user:pass for basic authentication")
	fl.IntVarP(&opts.limit, "limit", "l", 64, "maximum concurrent control connections")
	fl.DurationVarP(&opts.grace, "grace", "g", 10*time.Second, "graceful shutdown period")
	fl.IntVar(&opts.maxFailures, "max-failures", 6, "worker failures tolerated per window")
	fl.DurationVar(&opts.window, "window", time.Minute, "failure statistics window")
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	manifests, err := LoadManifestDir(opts.dir)
	if err != nil {
		return err
	}
	if opts.root == "" {
		opts.root = opts.dir
	}

	sup := group.NewSupervisor(opts.name)
	sup.SetGrace(opts.grace)
	sup.SetStatisticsWindow(opts.window)
	logger := sup.Logger()

	cfg := servitor.NewConfiguration(opts.root)
	for _, m := range manifests {
		m := m
		_, err := cfg.Service(m.Name, func(b *servitor.Builder) {
			b.Set(servitor.KeyServiceClass, servitor.Generic{})
			b.Set(servitor.KeyRun,
				group.Command(m.Command, m.Env, opts.grace, logger))
			if m.Count > 0 {
				b.Set(servitor.KeyCount, m.Count)
			}
			if m.StartupTimeout != "" {
				b.Set(servitor.KeyStartupTimeout, m.StartupTimeout)
			}
			if m.HealthCheckTimeout != "" {
				b.Set(servitor.KeyHealthCheckTimeout, m.HealthCheckTimeout)
			}
			if len(m.Preload) > 0 {
				b.Set(servitor.KeyPreload, m.Preload)
			}
		})
		if err != nil {
			return err
		}
	}

	policy, err := servitor.NewPolicy(opts.maxFailures, opts.window)
	if err != nil {
		return err
	}
	ctl := cfg.Controller(sup, policy)
	ctl.SetLogger(logger)
	sup.SetExitHandler(ctl.Policy())

	handler := rest.NewHandler(ctl, sup)
	if opts.auth != "" {
		user, pass, found := strings.Cut(opts.auth, ":")
		if !found {
			return fmt.Errorf("Bad auth (want user:pass)")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(pass), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		handler.SetAuth(user, hash)
	}

	if err := ctl.Start(); err != nil {
		return err
	}
	if _, err := ctl.Setup(sup); err != nil {
		ctl.Stop(false)
		return err
	}

	l, err := net.Listen("tcp", opts.addr)
	if err != nil {
		ctl.Stop(false)
		return err
	}
	l = netutil.LimitListener(l, opts.limit)
	logger.Printf("Control interface on %s", l.Addr())
	srv := &http.Server{Handler: handler}
	go srv.Serve(l)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Printf("Signal received, shutting down")
	srv.Close()
	ctl.Stop(true)
	return nil
}
