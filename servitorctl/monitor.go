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
	"context"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"

	"servitor/rest"
)

func monitorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "monitor",
		Short: "Watch group status full screen",
		RunE: func(cmd *cobra.Command, args []string) error {
			return monitor(client())
		},
	}
}

func monitor(c *rest.Client) error {
	s, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := s.Init(); err != nil {
		return err
	}
	defer s.Fini()

	quit := make(chan struct{})
	go func() {
		for {
			ev := s.PollEvent()
			switch ev := ev.(type) {
			case *tcell.EventKey:
				switch {
				case ev.Key() == tcell.KeyEscape,
					ev.Key() == tcell.KeyCtrlC,
					ev.Rune() == 'q':
					close(quit)
					return
				}
			case *tcell.EventResize:
				s.Sync()
			}
		}
	}()

	t := time.NewTicker(time.Second)
	defer t.Stop()
	for {
		drawGroup(s, c)
		select {
		case <-quit:
			return nil
		case <-t.C:
		}
	}
}

func drawGroup(s tcell.Screen, c *rest.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	g, err := c.Group(ctx)
	cancel()

	s.Clear()
	bold := tcell.StyleDefault.Bold(true)
	plain := tcell.StyleDefault
	bad := tcell.StyleDefault.Foreground(tcell.ColorRed)

	if err != nil {
		puts(s, 0, 0, bad, fmt.Sprintf("Cannot reach servitord: %v", err))
		s.Show()
		return
	}

	state := "running"
	style := plain
	if g.Stopping {
		state, style = "stopping", bad
	}
	puts(s, 0, 0, bold, g.Name)
	puts(s, len(g.Name)+1, 0, style, state)
	puts(s, 0, 1, plain, fmt.Sprintf("failure rate %.3f/s  threshold %.3f/s",
		g.FailureRate, g.Threshold))
	puts(s, 0, 3, bold, fmt.Sprintf("%-20s %-10s %-9s %s",
		"WORKER", "READY", "RESTARTS", "STATUS"))
	for i, w := range g.Workers {
		st := plain
		if !w.Ready {
			st = bad
		}
		puts(s, 0, 4+i, st, fmt.Sprintf("%-20s %-10s %-9d %s",
			fmt.Sprintf("%s.%d", w.Set, w.ID), ready(w.Ready),
			w.Restarts, w.Status))
	}
	_, h := s.Size()
	puts(s, 0, h-1, bold, "[Q] Quit")
	s.Show()
}

func puts(s tcell.Screen, x, y int, style tcell.Style, text string) {
	for _, r := range text {
		s.SetContent(x, y, r, nil, style)
		x++
	}
}
