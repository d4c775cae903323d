// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sysinit

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
)

const cgroupDirMode = 0o666

// CgroupSubsystem is a record of /proc/cgroups.
type CgroupSubsystem struct {
	Name       string
	Hierarchy  string
	NumCgroups string
	Enabled    string
}

// IsEnabled returns true if the kernel reports the subsystem as enabled.
func (c CgroupSubsystem) IsEnabled() bool {
	return c.Enabled == "1"
}

// ParseCgroups parses the tab separated /proc/cgroups format.
//
// Blank lines and the "#" prefixed header the kernel prints are skipped.
// Rows with less than four columns are logged and skipped.
func ParseCgroups(reader io.Reader, logger *slog.Logger) ([]CgroupSubsystem, error) {
	var subsystems []CgroupSubsystem

	logger = loggerOrDefault(logger)
	scanner := bufio.NewScanner(reader)

	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) < 4 {
			logger.Warn("skip malformed cgroups row",
				slog.Int("line", lineNo),
				slog.String("row", line))

			continue
		}

		subsystems = append(subsystems, CgroupSubsystem{
			Name:       fields[0],
			Hierarchy:  fields[1],
			NumCgroups: fields[2],
			Enabled:    fields[3],
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan cgroups: %w", err)
	}

	return subsystems, nil
}

// EnabledCgroups returns the enabled subsystems in their original order.
func EnabledCgroups(subsystems []CgroupSubsystem) []CgroupSubsystem {
	var enabled []CgroupSubsystem

	for _, subsys := range subsystems {
		if subsys.IsEnabled() {
			enabled = append(enabled, subsys)
		}
	}

	return enabled
}

// CgroupMountPoint returns the cgroup v1 mount point for the given
// subsystem.
func CgroupMountPoint(name string) MountPoint {
	return MountPoint{Target: filepath.Join(cgroupRoot, name), MountOptions: MountOptions{
		FSType:  FSTypeCgroup,
		Source:  name,
		Flags:   mountSecure,
		Data:    name,
		DirMode: cgroupDirMode,
	}}
}

// SystemdCgroupMountPoint returns the named "systemd" hierarchy mount point
// that software probes for.
func SystemdCgroupMountPoint() MountPoint {
	return MountPoint{Target: filepath.Join(cgroupRoot, "systemd"), MountOptions: MountOptions{
		FSType:  FSTypeCgroup,
		Data:    "none,name=systemd",
		DirMode: cgroupDirMode,
	}}
}
