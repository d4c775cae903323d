// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sysinit

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// DevSymlinks returns a map with well-known symlinks for /dev.
func DevSymlinks() Symlinks {
	return Symlinks{
		"/dev/fd":     "/proc/self/fd",
		"/dev/stdin":  "/proc/self/fd/0",
		"/dev/stdout": "/proc/self/fd/1",
		"/dev/stderr": "/proc/self/fd/2",
		"/dev/kcore":  "/proc/kcore",
	}
}

// Symlinks is a collection of symbolic links. Keys are symbolic links to
// create with the value being the target to link to.
type Symlinks map[string]string

// CreateSymlinks creates the symbolic links relative to root. Targets are
// written unchanged.
//
// An existing link with the same target is not an error, so repeated runs
// succeed. Failures are logged and returned joined after all links were
// tried.
func CreateSymlinks(root string, symlinks Symlinks, logger *slog.Logger) error {
	var errs []error

	logger = loggerOrDefault(logger)

	for link, target := range sortedMap(symlinks) {
		path := filepath.Join(root, link)

		err := os.Symlink(target, path)
		if errors.Is(err, fs.ErrExist) {
			if existing, _ := os.Readlink(path); existing == target {
				continue
			}
		}

		if err != nil {
			logger.Error("create symlink", slog.Any("error", err))
			errs = append(errs, fmt.Errorf("create symlink %s: %w", link, err))
		}
	}

	return errors.Join(errs...)
}
