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
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"servitor"
)

// Command returns a run function that executes argv as a child process,
// one process per worker instance.  The process's stdout and stderr are
// delivered line-wise to logger.  On cancellation the process receives
// SIGTERM; if it has not exited within grace it is killed.  The child's
// exit status becomes the instance's exit status.
func Command(argv []string, env []string, grace time.Duration, logger *log.Logger) servitor.RunFunc {
	if logger == nil {
		logger = log.New(os.Stderr, "", log.LstdFlags)
	}
	if grace <= 0 {
		grace = 10 * time.Second
	}
	return func(ctx context.Context, inst servitor.Instance) error {
		if len(argv) == 0 {
			return errors.New("Empty command")
		}
		cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
		if len(env) > 0 {
			cmd.Env = append(os.Environ(), env...)
		}
		cmd.Cancel = func() error {
			return cmd.Process.Signal(syscall.SIGTERM)
		}
		cmd.WaitDelay = grace

		if stdout, err := cmd.StdoutPipe(); err != nil {
			logger.Printf("Failed to capture stdout: %v", err)
		} else {
			go pipeLog(stdout, logger, "stdout> ")
		}
		if stderr, err := cmd.StderrPipe(); err != nil {
			logger.Printf("Failed to capture stderr: %v", err)
		} else {
			go pipeLog(stderr, logger, "stderr> ")
		}

		if err := cmd.Start(); err != nil {
			return err
		}
		inst.Status(fmt.Sprintf("Running pid %d", cmd.Process.Pid))
		inst.Ready()

		err := cmd.Wait()
		if ctx.Err() != nil {
			// Deliberate cancellation; surface it rather than the
			// signal-death it induced.
			return ctx.Err()
		}
		return err
	}
}

// pipeLog gathers a child stream in whole lines.
func pipeLog(r io.ReadCloser, logger *log.Logger, prefix string) {
	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadString('\n')
		if len(line) != 0 {
			logger.Print(prefix, strings.Trim(line, "\n"))
		}
		if err != nil {
			return
		}
	}
}
