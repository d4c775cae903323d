// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/ukama/microinit/internal/config"
	"github.com/ukama/microinit/internal/logging"
	"github.com/ukama/microinit/internal/supervisor"
	"github.com/ukama/microinit/sysinit"
	"golang.org/x/sys/unix"
)

// ReexecPath is executed after the root was pivoted, so the init process
// runs from the new root.
const ReexecPath = "/sbin/init"

// step is a named bring-up step.
type step struct {
	name string
	fn   sysinit.Func
}

func stepNames(steps []step) []string {
	names := make([]string, 0, len(steps))
	for _, s := range steps {
		names = append(names, s.name)
	}

	return names
}

// runSteps runs the steps with [sysinit.Run]. Errors are prefixed with the
// name of the step.
func runSteps(ctx context.Context, state *sysinit.State, logger *slog.Logger, steps []step) error {
	funcs := make([]sysinit.Func, 0, len(steps))

	for _, s := range steps {
		funcs = append(funcs, func(ctx context.Context, state *sysinit.State) error {
			logger.Debug("bring-up step", slog.String("step", s.name))

			if err := s.fn(ctx, state); err != nil {
				return fmt.Errorf("%s: %w", s.name, err)
			}

			return nil
		})
	}

	return sysinit.Run(ctx, state, funcs...)
}

// userspaceSteps prepare the process environment for hooks and workloads.
func userspaceSteps(logger *slog.Logger) []step {
	return []step{
		{"environment", sysinit.WithEnv(sysinit.DefaultEnv())},
		{"limits", sysinit.WithLimits()},
		{"hostname", sysinit.WithHostname(sysinit.Hostname{
			Root:   "/",
			Kernel: sysinit.HostKernel{},
			Logger: logger,
		})},
		{"resolver", sysinit.WithResolvConf("/")},
	}
}

func withSubreaper() sysinit.Func {
	return func(_ context.Context, _ *sysinit.State) error {
		return supervisor.SetSubreaper()
	}
}

// withCtrlAltDelSignal makes the kernel send SIGINT to PID 1 on
// Ctrl-Alt-Del instead of rebooting. Only PID 1 receives it, so any other
// process fails with [sysinit.ErrNotPidOne].
func withCtrlAltDelSignal(pidOne bool) sysinit.Func {
	return func(_ context.Context, _ *sysinit.State) error {
		if !pidOne {
			return sysinit.ErrNotPidOne
		}

		return supervisor.DisableCtrlAltDel()
	}
}

// initProcess is the system init. It brings the system up and supervises it
// until shutdown.
type initProcess struct {
	env         sysinit.BootEnvironment
	pidOne      bool
	logs        *logging.Logging
	logger      *slog.Logger
	configPaths []string
	reexec      sysinit.Func

	workloads *workloads
}

// steps returns the bring-up steps for the boot environment. If userspace is
// up already, the kernel interfaces are not touched again.
func (p *initProcess) steps() []step {
	var steps []step

	if !p.env.InUserspace {
		steps = append(steps,
			step{"pivot", sysinit.WithPivot(p.env, p.logger)},
			step{"topology", sysinit.WithTopology(sysinit.DefaultTopology(p.logger))},
		)
	}

	steps = append(steps,
		step{"log file", attachLogFile(p.logs, logging.DefaultFile)},
		step{"subreaper", withSubreaper()},
	)

	if !p.env.InUserspace {
		steps = append(steps,
			step{"hotplug", sysinit.WithHotplug(sysinit.DefaultHotplug(p.logger))},
			step{"clock", sysinit.WithClock(sysinit.ExecRunner{Logger: p.logger}, sysinit.DefaultHWClock)},
			step{"loopback", sysinit.WithLoopback()},
		)

		if p.env.RootFSMagic.IsRAMBacked() && p.reexec != nil {
			steps = append(steps, step{"reexec", p.reexec})
		}
	}

	steps = append(steps, userspaceSteps(p.logger)...)

	return append(steps,
		step{"ctrl-alt-del", withCtrlAltDelSignal(p.pidOne)},
		step{"init hooks", sysinit.WithRunDir(sysinit.InitDir, p.logger)},
		step{"config", p.loadWorkloads},
		step{"workloads", func(ctx context.Context, state *sysinit.State) error {
			return withWorkloads(p.workloads)(ctx, state)
		}},
	)
}

// loadWorkloads reads the config, which is only possible once the final root
// is in place.
func (p *initProcess) loadWorkloads(_ context.Context, _ *sysinit.State) error {
	p.workloads = newWorkloads(loadConfig(p.logger, p.configPaths...), p.logger)
	return nil
}

// shutdown returns the shutdown of the running system, tearing down the
// workloads first.
func (p *initProcess) shutdown() supervisor.Shutdown {
	shutdown := supervisor.DefaultShutdown(p.logger)
	shutdown.Teardown = func(ctx context.Context) error {
		if p.workloads == nil {
			return nil
		}

		return p.workloads.teardown(ctx)
	}

	return shutdown
}

// reexecInit replaces the process with [ReexecPath] from the new root. It
// only returns on failure. Open files are close-on-exec.
func reexecInit(_ context.Context, _ *sysinit.State) error {
	err := unix.Exec(ReexecPath, []string{ReexecPath}, os.Environ())

	return fmt.Errorf("exec %s: %w", ReexecPath, err)
}

func runInit(ctx context.Context, args []string, cfg IO) int {
	logs := setupLogging(cfg.Stderr, true)
	logger := logs.Logger

	env, err := sysinit.DetectBootEnvironment(args[0])
	if err != nil {
		logger.Error("detect boot environment", slog.Any("error", err))
		return 1
	}

	logger.Info("init starting",
		slog.String("root_fs", env.RootFSMagic.String()),
		slog.Bool("in_userspace", env.InUserspace),
		slog.Int("pid", os.Getpid()),
	)

	proc := &initProcess{
		env:         env,
		pidOne:      sysinit.IsPidOne(),
		logs:        logs,
		logger:      logger,
		configPaths: config.Paths(),
		reexec:      reexecInit,
	}

	if !proc.pidOne {
		logger.Warn("not running as PID 1")
	}

	state := &sysinit.State{}
	defer state.DoCleanup(logger)

	if err := runSteps(ctx, state, logger, proc.steps()); err != nil {
		logger.Error("bring-up failed", slog.Any("error", err))
		return 1
	}

	if failures := state.Failures(); len(failures) > 0 {
		logger.Warn("system degraded", slog.Int("failures", len(failures)))
	} else {
		logger.Info("system up")
	}

	supervise := supervisor.Supervisor{
		Shutdown: proc.shutdown().Run,
		Logger:   logger,
	}

	if err := supervise.Run(ctx); err != nil {
		logger.Error("supervisor", slog.Any("error", err))
		return 1
	}

	return 0
}
