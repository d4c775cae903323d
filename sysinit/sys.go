// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sysinit

import (
	"bytes"
	"fmt"
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// Kernel is the set of syscalls the bring-up steps issue that change global
// system state. [HostKernel] is the implementation backed by the running
// kernel.
type Kernel interface {
	Mount(source, target, fsType string, flags MountFlags, data string) error
	Mknod(path string, mode uint32, major, minor uint32) error
	Hostname() (string, error)
	SetHostname(name string) error
}

// HostKernel implements [Kernel] with the actual syscalls.
type HostKernel struct{}

var _ Kernel = HostKernel{}

// Mount calls mount(2). Flags are passed unchanged.
func (HostKernel) Mount(source, target, fsType string, flags MountFlags, data string) error {
	err := unix.Mount(source, target, fsType, uintptr(flags), data)
	if err != nil {
		return fmt.Errorf("mount %s on %s: %w", fsType, target, err)
	}

	return nil
}

// Mknod calls mknod(2) for the given device numbers.
func (HostKernel) Mknod(path string, mode uint32, major, minor uint32) error {
	err := unix.Mknod(path, mode, int(unix.Mkdev(major, minor)))
	if err != nil {
		return &os.PathError{Op: "mknod", Path: path, Err: err}
	}

	return nil
}

// Hostname returns the current node name as reported by uname(2).
func (HostKernel) Hostname() (string, error) {
	var uts unix.Utsname

	if err := unix.Uname(&uts); err != nil {
		return "", fmt.Errorf("uname: %w", err)
	}

	return string(bytes.TrimRight(uts.Nodename[:], "\x00")), nil
}

// SetHostname calls sethostname(2).
func (HostKernel) SetHostname(name string) error {
	if err := unix.Sethostname([]byte(name)); err != nil {
		return fmt.Errorf("sethostname: %w", err)
	}

	return nil
}

func statfsType(path string) (int64, error) {
	var stat unix.Statfs_t

	if err := unix.Statfs(path, &stat); err != nil {
		return 0, &os.PathError{Op: "statfs", Path: path, Err: err}
	}

	return int64(stat.Type), nil //nolint:unconvert
}

func chroot(path string) error {
	if err := unix.Chroot(path); err != nil {
		return &os.PathError{Op: "chroot", Path: path, Err: err}
	}

	return nil
}

func setrlimit(resource int, soft, hard uint64) error {
	limit := unix.Rlimit{Cur: soft, Max: hard}

	if err := unix.Setrlimit(resource, &limit); err != nil {
		return fmt.Errorf("setrlimit %d: %w", resource, err)
	}

	return nil
}

func deviceID(info os.FileInfo) (uint64, bool) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return 0, false
	}

	return uint64(stat.Dev), true //nolint:unconvert
}

func rawDevice(info os.FileInfo) (uint64, bool) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return 0, false
	}

	return uint64(stat.Rdev), true //nolint:unconvert
}
