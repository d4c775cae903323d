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

	"golang.org/x/sys/unix"
)

// DeviceNode is a character device node.
type DeviceNode struct {
	Path  string
	Mode  fs.FileMode
	Major uint32
	Minor uint32
}

// BaseDeviceNodes returns the device nodes required before any device
// manager ran.
func BaseDeviceNodes() []DeviceNode {
	return []DeviceNode{
		{Path: "/dev/console", Mode: 0o600, Major: 5, Minor: 1},
		{Path: "/dev/tty1", Mode: 0o620, Major: 4, Minor: 1},
		{Path: "/dev/tty", Mode: 0o666, Major: 5, Minor: 0},
		{Path: "/dev/null", Mode: 0o666, Major: 1, Minor: 3},
		{Path: "/dev/kmsg", Mode: 0o660, Major: 1, Minor: 11},
	}
}

// CreateDeviceNodes creates the given character devices relative to root.
//
// The mode is set explicitly after creation, so the umask does not apply.
// Devtmpfs usually provides most of them already. Existing nodes only get
// their mode adjusted. All other failures are logged and returned joined after all
// nodes were tried.
func CreateDeviceNodes(kernel Kernel, root string, nodes []DeviceNode, logger *slog.Logger) error {
	var errs []error

	logger = loggerOrDefault(logger)

	for _, node := range nodes {
		path := filepath.Join(root, node.Path)

		err := kernel.Mknod(path, unix.S_IFCHR|uint32(node.Mode.Perm()), node.Major, node.Minor)
		if errors.Is(err, fs.ErrExist) {
			trace(logger, "device exists", slog.String("path", path))

			err = nil
		}

		if err == nil {
			err = os.Chmod(path, node.Mode.Perm())
		}

		if err != nil {
			logger.Error("create device", slog.Any("error", err))
			errs = append(errs, fmt.Errorf("device %s: %w", node.Path, err))

			continue
		}

		trace(logger, "created device",
			slog.String("path", path),
			slog.Int("major", int(node.Major)),
			slog.Int("minor", int(node.Minor)))
	}

	return errors.Join(errs...)
}
