// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sysinit

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// DefaultPivotTarget is where the new root file system is assembled.
const DefaultPivotTarget = "/mnt"

// Pivot moves the system from a RAM backed initial root to a fresh tmpfs
// root.
//
// The old root content is copied into a tmpfs mounted at Target. Afterwards,
// everything on the old root device is removed, the tmpfs is moved onto "/"
// and the process chroots into it. Mount points of other file systems on the
// old root stay in place.
type Pivot struct {
	Env    BootEnvironment
	Kernel Kernel
	Root   string
	Target string
	Logger *slog.Logger
}

// DefaultPivot returns the [Pivot] for the running system.
func DefaultPivot(env BootEnvironment, logger *slog.Logger) Pivot {
	return Pivot{
		Env:    env,
		Kernel: HostKernel{},
		Root:   "/",
		Target: DefaultPivotTarget,
		Logger: logger,
	}
}

// Run performs the pivot. It does nothing if the root file system is not
// RAM backed.
//
// Failing mount, chdir or chroot calls are fatal, as the root is in an
// undefined state afterwards. Copy and removal errors are logged only.
func (p Pivot) Run() error {
	logger := loggerOrDefault(p.Logger)

	if !p.Env.RootFSMagic.IsRAMBacked() {
		logger.Info("root is not RAM backed, skip pivot",
			slog.String("magic", p.Env.RootFSMagic.String()))

		return nil
	}

	err := p.Kernel.Mount("rootfs", p.Target, string(FSTypeTmp), 0, "")
	if err != nil {
		return fatal(fmt.Errorf("mount new root: %w", err))
	}

	if err := CopyTree(p.Root, p.Target, logger); err != nil {
		logger.Warn("copy root incomplete", slog.Any("error", err))
	}

	unix.Sync()

	if err := os.Chdir(p.Target); err != nil {
		return fatal(err)
	}

	p.removeOldRoot(logger)

	err = p.Kernel.Mount(".", p.Root, "", MountMove, "")
	if err != nil {
		return fatal(fmt.Errorf("move new root: %w", err))
	}

	if err := chroot("."); err != nil {
		return fatal(err)
	}

	if err := os.Chdir("/"); err != nil {
		return fatal(err)
	}

	logger.Info("root pivoted", slog.String("from", p.Env.RootFSMagic.String()))

	return nil
}

func (p Pivot) removeOldRoot(logger *slog.Logger) {
	info, err := os.Stat(p.Root)
	if err != nil {
		logger.Warn("stat old root", slog.Any("error", err))
		return
	}

	dev, ok := deviceID(info)
	if !ok {
		return
	}

	entries, err := os.ReadDir(p.Root)
	if err != nil {
		logger.Warn("read old root", slog.Any("error", err))
		return
	}

	for _, entry := range entries {
		path := filepath.Join(p.Root, entry.Name())
		if filepath.Clean(path) == filepath.Clean(p.Target) {
			continue
		}

		if err := removeSameDevice(path, dev); err != nil {
			trace(logger, "remove old root entry",
				slog.String("path", path), slog.Any("error", err))
		}
	}
}

// WithPivot returns a setup [Func] that wraps [Pivot.Run] of [DefaultPivot]
// and can be used with [Run].
func WithPivot(env BootEnvironment, logger *slog.Logger) Func {
	return func(_ context.Context, _ *State) error {
		return DefaultPivot(env, logger).Run()
	}
}
