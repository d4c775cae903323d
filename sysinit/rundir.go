// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sysinit

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
)

// Hook directories run at boot and before shutdown.
const (
	InitDir     = "/etc/init.d"
	ShutdownDir = "/etc/shutdown.d"
)

// RunDir starts every regular file in dir in directory order without
// arguments and without waiting for it to finish. It returns the paths of
// the started programs.
//
// A missing directory is not an error. Entries that are not regular files or
// fail to start are logged and skipped.
func RunDir(dir string, logger *slog.Logger) ([]string, error) {
	logger = loggerOrDefault(logger)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Debug("no hook directory", slog.String("dir", dir))
			return nil, nil
		}

		return nil, fmt.Errorf("read hook directory: %w", err)
	}

	started := make([]string, 0, len(entries))

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())

		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			trace(logger, "skip hook", slog.String("path", path))
			continue
		}

		cmd := exec.Command(path)
		if err := cmd.Start(); err != nil {
			logger.Warn("start hook", slog.String("path", path), slog.Any("error", err))
			continue
		}

		logger.Info("hook started",
			slog.String("path", path),
			slog.Int("pid", cmd.Process.Pid),
		)

		// Exit status is collected by the reaper.
		_ = cmd.Process.Release()

		started = append(started, path)
	}

	return started, nil
}

// WithRunDir returns a setup [Func] that wraps [RunDir] and can be used with
// [Run].
func WithRunDir(dir string, logger *slog.Logger) Func {
	return func(_ context.Context, _ *State) error {
		_, err := RunDir(dir, logger)
		return err
	}
}
