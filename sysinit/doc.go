// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package sysinit provides the building blocks for bringing up a minimal
// Linux userspace as PID 1 from an initramfs: detecting the boot environment,
// pivoting onto a writable tmpfs root, establishing the virtual file system
// topology and cgroup hierarchy, creating device nodes, cold plugging devices
// and basic system configuration like resource limits, hostname and the
// loopback interface.
//
// The building blocks are composed into phases with [Run]. Each phase
// records non-fatal failures in the [State] and only errors wrapping
// [ErrFatal] stop the bring-up.
package sysinit
