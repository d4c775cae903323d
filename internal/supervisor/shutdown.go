// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package supervisor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/moby/sys/mountinfo"
	"github.com/ukama/microinit/sysinit"
	"golang.org/x/sys/unix"
)

// DefaultHookGrace is how long shutdown hooks get before the file systems
// are synced and unmounted.
const DefaultHookGrace = time.Second

// Shutdown drives the system from running to power off or reboot.
//
// All steps are best effort. Failures are logged and the shutdown proceeds,
// since hanging is worse than powering off with a dirty file system.
type Shutdown struct {
	// Teardown stops workloads before the hooks run. Optional.
	Teardown func(ctx context.Context) error

	// HookDir contains the executables started before unmounting.
	HookDir string

	// HookGrace is waited for after the hooks are started.
	HookGrace time.Duration

	// Mounts returns the mount table. Defaults to [Mounts].
	Mounts func() ([]*mountinfo.Info, error)

	// Unmount is called for every planned unmount. Defaults to umount2(2).
	Unmount func(target string, flags int) error

	// Sync flushes file system buffers. Defaults to sync(2).
	Sync func()

	// Reboot issues the final reboot(2) command.
	Reboot func(cmd int) error

	Logger *slog.Logger
}

// DefaultShutdown returns the [Shutdown] acting on the running system.
func DefaultShutdown(logger *slog.Logger) Shutdown {
	return Shutdown{
		HookDir:   sysinit.ShutdownDir,
		HookGrace: DefaultHookGrace,
		Mounts:    Mounts,
		Unmount:   unix.Unmount,
		Sync:      unix.Sync,
		Reboot:    unix.Reboot,
		Logger:    logger,
	}
}

// RebootCommand returns the reboot(2) command for the given action.
func RebootCommand(action sysinit.ShutdownAction) int {
	if action == sysinit.ActionReboot {
		return unix.LINUX_REBOOT_CMD_RESTART
	}

	return unix.LINUX_REBOOT_CMD_POWER_OFF
}

// Run performs the shutdown. On a real system it does not return. An error
// is returned only if the final reboot call fails.
func (s Shutdown) Run(ctx context.Context, action sysinit.ShutdownAction) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}

	logger = logger.With(slog.String("action", action.String()))

	logger.Info("shutdown: draining")
	s.drain(ctx, logger)

	logger.Info("shutdown: syncing")

	if s.Sync != nil {
		s.Sync()
	}

	logger.Info("shutdown: unmounting")
	s.unmountAll(logger)

	if s.Sync != nil {
		s.Sync()
	}

	logger.Info("shutdown: finalizing")

	if err := s.Reboot(RebootCommand(action)); err != nil {
		return fmt.Errorf("reboot: %w", err)
	}

	return nil
}

func (s Shutdown) drain(ctx context.Context, logger *slog.Logger) {
	if s.Teardown != nil {
		if err := s.Teardown(ctx); err != nil {
			logger.Error("workload teardown", slog.Any("error", err))
		}
	}

	if s.HookDir == "" {
		return
	}

	started, err := sysinit.RunDir(s.HookDir, logger)
	if err != nil {
		logger.Error("shutdown hooks", slog.Any("error", err))
		return
	}

	if len(started) == 0 || s.HookGrace <= 0 {
		return
	}

	select {
	case <-ctx.Done():
	case <-time.After(s.HookGrace):
	}
}

func (s Shutdown) unmountAll(logger *slog.Logger) {
	mountsFn := s.Mounts
	if mountsFn == nil {
		mountsFn = Mounts
	}

	mounts, err := mountsFn()
	if err != nil {
		logger.Error("read mounts", slog.Any("error", err))
		return
	}

	for _, unmount := range PlanUnmounts(mounts) {
		err := s.Unmount(unmount.Target, unmount.Strategy.Flags())
		if err != nil {
			logger.Error("unmount",
				slog.String("target", unmount.Target),
				slog.String("strategy", unmount.Strategy.String()),
				slog.Any("error", err))

			continue
		}

		logger.Debug("unmounted",
			slog.String("target", unmount.Target),
			slog.String("type", unmount.FSType),
			slog.String("strategy", unmount.Strategy.String()))
	}
}
