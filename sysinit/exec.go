// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sysinit

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// DefaultCommandTimeout bounds helper invocations like the device manager or
// the module loader.
const DefaultCommandTimeout = 30 * time.Second

// CommandRunner runs external helper programs to completion.
type CommandRunner interface {
	Run(ctx context.Context, path string, args ...string) error
}

// ExecRunner implements [CommandRunner] with [exec.CommandContext]. Combined
// output is logged at trace level.
type ExecRunner struct {
	Timeout time.Duration
	Logger  *slog.Logger
}

var _ CommandRunner = ExecRunner{}

// Run executes the file at path with the given arguments and waits for it
// to finish. Might return [exec.ExitError].
func (r ExecRunner) Run(ctx context.Context, path string, args ...string) error {
	timeout := r.Timeout
	if timeout == 0 {
		timeout = DefaultCommandTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var output bytes.Buffer

	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdout = &output
	cmd.Stderr = &output

	err := cmd.Run()

	trace(loggerOrDefault(r.Logger), "command finished",
		slog.String("command", path+" "+strings.Join(args, " ")),
		slog.String("output", strings.TrimSpace(output.String())),
		slog.Any("error", err))

	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	return nil
}
