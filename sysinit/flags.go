// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sysinit

import (
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// MountFlags are flags as defined by mount(2). The values are the kernel's,
// so they are passed to the syscall unchanged.
type MountFlags uintptr

// Mount flags used by the topology.
const (
	MountNoSUID   MountFlags = unix.MS_NOSUID
	MountNoDev    MountFlags = unix.MS_NODEV
	MountNoExec   MountFlags = unix.MS_NOEXEC
	MountRelATime MountFlags = unix.MS_RELATIME
	MountRemount  MountFlags = unix.MS_REMOUNT
	MountRec      MountFlags = unix.MS_REC
	MountShared   MountFlags = unix.MS_SHARED
	MountRdOnly   MountFlags = unix.MS_RDONLY
	MountMove     MountFlags = unix.MS_MOVE

	// mountSecure is the common set for pseudo file systems.
	mountSecure = MountNoSUID | MountNoDev | MountNoExec
)

var mountFlagNames = []struct {
	flag MountFlags
	name string
}{
	{MountRdOnly, "RDONLY"},
	{MountNoSUID, "NOSUID"},
	{MountNoDev, "NODEV"},
	{MountNoExec, "NOEXEC"},
	{MountRemount, "REMOUNT"},
	{MountMove, "MOVE"},
	{MountRec, "REC"},
	{MountRelATime, "RELATIME"},
	{MountShared, "SHARED"},
}

// Has returns true if all bits of other are set.
func (f MountFlags) Has(other MountFlags) bool {
	return f&other == other
}

// String returns the flag names joined by "|" or "0" if no flag is set.
func (f MountFlags) String() string {
	if f == 0 {
		return "0"
	}

	names := []string{}

	for _, fn := range mountFlagNames {
		if f.Has(fn.flag) {
			names = append(names, fn.name)
			f &^= fn.flag
		}
	}

	if f != 0 {
		names = append(names, "0x"+strconv.FormatUint(uint64(f), 16))
	}

	return strings.Join(names, "|")
}
