// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import "errors"

var (
	// ErrUnknownCommand is returned if the binary is invoked with a name it
	// does not serve.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrWorkloadFailed is returned if at least one bundle failed to start.
	ErrWorkloadFailed = errors.New("workload failed")
)
