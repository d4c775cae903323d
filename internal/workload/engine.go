// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package workload

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"
)

// Defaults for the [Engine].
const (
	DefaultEnginePidFile = "/var/log/microCE.pid"
	DefaultPollWindow    = 5 * time.Second
	DefaultPollWindows   = 2

	pollInterval = 100 * time.Millisecond
)

// Engine is the long running container engine daemon. It is started
// detached and never waited for.
type Engine struct {
	Path    string
	PidFile string

	// PollWindow and PollWindows bound how long [Engine.Start] waits for
	// the pid file.
	PollWindow  time.Duration
	PollWindows int

	// ProcRoot is where process liveness is probed. Defaults to "/proc".
	ProcRoot string

	Logger *slog.Logger
}

// NewEngine returns an [Engine] for the binary at the given path with the
// defaults set.
func NewEngine(path string, logger *slog.Logger) Engine {
	return Engine{
		Path:        path,
		PidFile:     DefaultEnginePidFile,
		PollWindow:  DefaultPollWindow,
		PollWindows: DefaultPollWindows,
		ProcRoot:    "/proc",
		Logger:      logger,
	}
}

func (e Engine) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}

	return e.Logger
}

// Running returns the pid of the engine if its pid file is valid and the
// process is alive.
func (e Engine) Running() (int32, bool) {
	pid, err := ReadPidFile(e.PidFile)
	if err != nil {
		return 0, false
	}

	procRoot := e.ProcRoot
	if procRoot == "" {
		procRoot = "/proc"
	}

	_, err = os.Stat(filepath.Join(procRoot, strconv.Itoa(int(pid))))

	return pid, err == nil
}

// Start spawns the engine and waits for it to write its pid file. It
// returns the pid of the engine. If it is already running, nothing is
// spawned.
//
// The pid file is polled for PollWindows windows of PollWindow each.
// [ErrTimeout] is returned if no live pid appears within them.
func (e Engine) Start(ctx context.Context) (int32, error) {
	logger := e.logger().With(slog.String("path", e.Path))

	if pid, running := e.Running(); running {
		logger.Info("engine already running", slog.Int("pid", int(pid)))
		return pid, nil
	}

	// A stale file would satisfy the poll below.
	_ = os.Remove(e.PidFile)

	cmd := exec.Command(e.Path, "--pid-file", e.PidFile)
	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("start engine: %w", err)
	}

	logger.Debug("engine spawned", slog.Int("child", cmd.Process.Pid))

	// Exit status is collected by the reaper.
	_ = cmd.Process.Release()

	for window := range e.PollWindows {
		pid, err := e.poll(ctx)
		if err == nil {
			logger.Info("engine running", slog.Int("pid", int(pid)))
			return pid, nil
		}

		if ctx.Err() != nil {
			return 0, ctx.Err()
		}

		logger.Warn("engine not up yet",
			slog.Int("window", window+1),
			slog.Duration("waited", e.PollWindow))
	}

	return 0, fmt.Errorf("%w: engine pid file %s", ErrTimeout, e.PidFile)
}

func (e Engine) poll(ctx context.Context) (int32, error) {
	ctx, cancel := context.WithTimeout(ctx, e.PollWindow)
	defer cancel()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		if pid, running := e.Running(); running {
			return pid, nil
		}

		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-ticker.C:
		}
	}
}
