// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"context"
	"log/slog"

	"github.com/ukama/microinit/internal/config"
	"github.com/ukama/microinit/internal/logging"
	"github.com/ukama/microinit/internal/supervisor"
	"github.com/ukama/microinit/sysinit"
)

// rcInitSteps set up a process started inside a running userspace.
func rcInitSteps(logger *slog.Logger) []step {
	steps := []step{{"subreaper", withSubreaper()}}
	steps = append(steps, userspaceSteps(logger)...)

	return append(steps, step{"init hooks", sysinit.WithRunDir(sysinit.InitDir, logger)})
}

// runRCInit sets up the userspace and reaps orphans until it is asked to
// stop. The system itself is shut down by the init that started it.
func runRCInit(ctx context.Context, cfg IO) int {
	logger := setupLogging(cfg.Stderr, true).Logger

	state := &sysinit.State{}
	defer state.DoCleanup(logger)

	if err := runSteps(ctx, state, logger, rcInitSteps(logger)); err != nil {
		logger.Error("rc.init failed", slog.Any("error", err))
		return 1
	}

	supervise := supervisor.Supervisor{
		Shutdown: func(_ context.Context, action sysinit.ShutdownAction) error {
			logger.Info("rc.init stopping", slog.String("requested", action.String()))
			return nil
		},
		Logger: logger,
	}

	if err := supervise.Run(ctx); err != nil {
		logger.Error("reaper", slog.Any("error", err))
		return 1
	}

	return 0
}

// runShutdown takes the system down with the action selected by the
// invocation name.
func runShutdown(ctx context.Context, args []string, cfg IO) int {
	logs := setupLogging(cfg.Stderr, true)
	defer func() { _ = logs.Close() }()

	logger := logs.Logger

	if err := logs.AttachFile(logging.DefaultFile); err != nil {
		logger.Debug("no log file", slog.Any("error", err))
	}

	env := sysinit.RoleFor(args[0])
	work := newWorkloads(loadConfig(logger, config.Paths()...), logger)

	shutdown := supervisor.DefaultShutdown(logger)
	shutdown.Teardown = work.teardown

	if err := shutdown.Run(ctx, env.ShutdownAction); err != nil {
		logger.Error("shutdown failed", slog.Any("error", err))
		return 1
	}

	return 0
}
