// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package workload

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ReadPidFile reads a decimal process ID from the given file.
func ReadPidFile(path string) (int32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read pid file: %w", err)
	}

	return ParsePid(string(data))
}

// ParsePid parses a positive 32 bit decimal process ID. Surrounding white
// space is ignored.
func ParsePid(s string) (int32, error) {
	pid, err := strconv.ParseInt(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidPid, err)
	}

	if pid <= 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidPid, pid)
	}

	return int32(pid), nil
}
