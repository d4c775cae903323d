// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package supervisor

import (
	"fmt"
	"log/slog"

	"golang.org/x/sys/unix"
)

// SetSubreaper marks the calling process as child subreaper, so orphaned
// descendants are reparented to it.
func SetSubreaper() error {
	if err := unix.Prctl(unix.PR_SET_CHILD_SUBREAPER, 1, 0, 0, 0); err != nil {
		return fmt.Errorf("set child subreaper: %w", err)
	}

	return nil
}

// DisableCtrlAltDel makes the kernel send SIGINT to init on ctrl-alt-del
// instead of rebooting immediately.
func DisableCtrlAltDel() error {
	if err := unix.Reboot(unix.LINUX_REBOOT_CMD_CAD_OFF); err != nil {
		return fmt.Errorf("disable ctrl-alt-del: %w", err)
	}

	return nil
}

// Reap collects all terminated children without blocking. It returns the
// number of children reaped.
func Reap(logger *slog.Logger) int {
	if logger == nil {
		logger = slog.Default()
	}

	var reaped int

	for {
		var status unix.WaitStatus

		pid, err := unix.Wait4(-1, &status, unix.WNOHANG, nil)
		if err == unix.EINTR { //nolint:errorlint
			continue
		}

		if err != nil || pid <= 0 {
			return reaped
		}

		reaped++

		logger.Debug("reaped child",
			slog.Int("pid", pid),
			slog.Int("exit_status", status.ExitStatus()),
			slog.Bool("signaled", status.Signaled()),
		)
	}
}
