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

// Command servitorctl inspects and controls a running servitord.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"servitor/rest"
)

var opts struct {
	addr string
	auth string
}

func client() *rest.Client {
	c := rest.NewClient("http://" + opts.addr)
	if opts.auth != "" {
		user, pass, _ := strings.Cut(opts.auth, ":")
		c.SetAuth(user, pass)
	}
	return c
}

func main() {
	root := &cobra.Command{
		Use:           "servitorctl",
		Short:         "servitorctl inspects and controls servitord",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVarP(&opts.addr, "address", "a", "127.0.0.1:8321", "servitord address")
	pf.StringVarP(&opts.auth, "auth", "u", "", "user:pass for basic authentication")

	root.AddCommand(statusCmd(), configCmd(), stopCmd(), logCmd(), monitorCmd())
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "servitorctl: %v\n", err)
		os.Exit(1)
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show group and worker status",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			g, err := client().Group(ctx)
			if err != nil {
				return err
			}
			state := "running"
			if g.Stopping {
				state = "stopping"
			}
			fmt.Printf("%s: %s, failure rate %.3f/s (threshold %.3f/s)\n",
				g.Name, state, g.FailureRate, g.Threshold)
			for _, w := range g.Workers {
				fmt.Printf("  %-20s %-10s %s\n",
					fmt.Sprintf("%s.%d", w.Set, w.ID), ready(w.Ready), w.Status)
			}
			return nil
		},
	}
}

func ready(b bool) string {
	if b {
		return "ready"
	}
	return "starting"
}

func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config [service]",
		Short: "Show a service's evaluated configuration",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			if len(args) == 0 {
				names, err := client().Services(ctx)
				if err != nil {
					return err
				}
				for _, n := range names {
					fmt.Println(n)
				}
				return nil
			}
			cfg, err := client().ServiceConfig(ctx, args[0])
			if err != nil {
				return err
			}
			keys := make([]string, 0, len(cfg))
			for k := range cfg {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				b, _ := json.Marshal(cfg[k])
				fmt.Printf("%s: %s\n", k, b)
			}
			return nil
		},
	}
}

func stopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Request a graceful group stop",
		RunE: func(cmd *cobra.Command, args []string) error {
			return client().StopGroup(context.Background())
		},
	}
}

func logCmd() *cobra.Command {
	var follow bool
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show retained log records",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			c := client()
			var last int64
			for {
				wait := time.Duration(0)
				if follow && last != 0 {
					wait = 10 * time.Second
				}
				chunk, err := c.Log(ctx, last, wait)
				if err != nil {
					return err
				}
				for _, rec := range chunk.Records {
					fmt.Printf("%s %s\n",
						rec.Time.Format(time.StampMilli), rec.Text)
				}
				last = chunk.ID
				if !follow {
					return nil
				}
			}
		},
	}
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "keep polling for new records")
	return cmd
}
