// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sysinit

import (
	"fmt"
	"os"
	"path/filepath"
)

// FSMagic is the file system type magic number as reported by statfs(2).
type FSMagic int64

// File system magic numbers of RAM backed root file systems.
const (
	MagicRamfs FSMagic = 0x858458f6
	MagicTmpfs FSMagic = 0x01021994
)

// IsRAMBacked returns true for the root file systems the kernel unpacks an
// initramfs into.
func (m FSMagic) IsRAMBacked() bool {
	return m == MagicRamfs || m == MagicTmpfs
}

func (m FSMagic) String() string {
	switch m {
	case MagicRamfs:
		return "ramfs"
	case MagicTmpfs:
		return "tmpfs"
	default:
		return fmt.Sprintf("0x%x", int64(m))
	}
}

// Role is the role the process was invoked in.
type Role int

const (
	RoleInit Role = iota
	RoleShutdown
)

func (r Role) String() string {
	if r == RoleShutdown {
		return "shutdown"
	}

	return "init"
}

// ShutdownAction is the final action of a shutdown.
type ShutdownAction int

const (
	ActionPoweroff ShutdownAction = iota
	ActionReboot
)

func (a ShutdownAction) String() string {
	if a == ActionReboot {
		return "reboot"
	}

	return "poweroff"
}

// Invocation names that select the shutdown role.
const (
	NameShutdown = "rc.shutdown"
	NameReboot   = "rc.reboot"
)

// BootEnvironment is determined once at process start.
type BootEnvironment struct {
	RootFSMagic    FSMagic
	InUserspace    bool
	Role           Role
	ShutdownAction ShutdownAction
}

// DetectBootEnvironment inspects the root file system and /proc and
// classifies the invocation by the base name of argv0.
func DetectBootEnvironment(argv0 string) (BootEnvironment, error) {
	env := RoleFor(argv0)

	magic, err := statfsType("/")
	if err != nil {
		return env, err
	}

	env.RootFSMagic = FSMagic(magic)

	_, err = os.Stat("/proc/self")
	env.InUserspace = err == nil

	return env, nil
}

// RoleFor returns a [BootEnvironment] with only the role related fields set
// for the given argv0.
func RoleFor(argv0 string) BootEnvironment {
	var env BootEnvironment

	switch filepath.Base(argv0) {
	case NameShutdown:
		env.Role = RoleShutdown
		env.ShutdownAction = ActionPoweroff
	case NameReboot:
		env.Role = RoleShutdown
		env.ShutdownAction = ActionReboot
	default:
		env.Role = RoleInit
	}

	return env
}
