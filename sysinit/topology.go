// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sysinit

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

const (
	cgroupRoot     = "/sys/fs/cgroup"
	cgroupsFile    = "/proc/cgroups"
	memoryHierFile = "/sys/fs/cgroup/memory/memory.use_hierarchy"
)

// ProcMountPoints returns the first mount of the topology. Everything else
// depends on /proc.
func ProcMountPoints() MountPoints {
	return MountPoints{
		{Target: "/proc", MountOptions: MountOptions{
			FSType:   FSTypeProc,
			Flags:    mountSecure | MountRelATime,
			Severity: SeverityEssential,
		}},
		// Normalizes the propagation state of the root.
		{Target: "/", MountOptions: MountOptions{
			Flags:    MountRemount,
			Severity: SeverityBestEffort,
		}},
	}
}

// TmpMountPoints returns the tmpfs working areas.
func TmpMountPoints() MountPoints {
	tmpfs := func(target, data string) MountPoint {
		return MountPoint{Target: target, MountOptions: MountOptions{
			FSType: FSTypeTmp,
			Flags:  mountSecure | MountRelATime,
			Data:   data,
		}}
	}

	return MountPoints{
		tmpfs("/run", "size=10%,mode=755"),
		tmpfs("/tmp", "size=10%,mode=1777"),
		tmpfs("/var", "size=50%,mode=755"),
	}
}

// DevMountPoint returns the devtmpfs mount for /dev.
func DevMountPoint() MountPoint {
	return MountPoint{Target: "/dev", MountOptions: MountOptions{
		FSType:   FSTypeDevTmp,
		Source:   "dev",
		Flags:    MountNoSUID | MountNoExec | MountRelATime,
		Data:     "size=10m,nr_inodes=248418,mode=755",
		Severity: SeverityEssential,
	}}
}

// DevSubMountPoints returns the mounts below /dev.
func DevSubMountPoints() MountPoints {
	return MountPoints{
		{Target: "/dev/mqueue", MountOptions: MountOptions{
			FSType:  FSTypeMqueue,
			Flags:   mountSecure,
			DirMode: fs.ModeSticky | 0o777,
		}},
		{Target: "/dev/shm", MountOptions: MountOptions{
			FSType:  FSTypeTmp,
			Source:  "shm",
			Flags:   mountSecure,
			Data:    "mode=1777",
			DirMode: fs.ModeSticky | 0o777,
		}},
		{Target: "/dev/pts", MountOptions: MountOptions{
			FSType: FSTypeDevPts,
			Flags:  MountNoSUID | MountNoDev,
			Data:   "gid=5,mode=0620",
		}},
	}
}

// SysMountPoints returns /sys and the optional kernel file systems below it.
func SysMountPoints() MountPoints {
	optional := func(target string, fsType FSType, flags MountFlags) MountPoint {
		return MountPoint{Target: target, MountOptions: MountOptions{
			FSType:   fsType,
			Flags:    flags,
			Severity: SeverityBestEffort,
		}}
	}

	return MountPoints{
		{Target: "/sys", MountOptions: MountOptions{
			FSType:   FSTypeSys,
			Flags:    mountSecure,
			Severity: SeverityEssential,
		}},
		optional("/sys/kernel/security", FSTypeSecurity, mountSecure),
		optional("/sys/kernel/debug", FSTypeDebug, mountSecure),
		optional("/sys/kernel/config", FSTypeConfig, mountSecure),
		optional("/sys/fs/fuse/connections", FSTypeFuseCtl, mountSecure),
		optional("/sys/fs/selinux", FSTypeSELinux, mountSecure),
		optional("/sys/fs/pstore", FSTypePstore, mountSecure),
		{Target: "/sys/fs/bpf", MountOptions: MountOptions{
			FSType:   FSTypeBpf,
			Source:   "bpffs",
			Flags:    MountNoSUID,
			Severity: SeverityBestEffort,
		}},
		optional("/sys/firmware/efi/efivars", FSTypeEfiVar, mountSecure),
		optional("/proc/sys/fs/binfmt_misc", FSTypeBinfmt, mountSecure),
	}
}

// CgroupRootMountPoint returns the tmpfs the cgroup hierarchies are mounted
// in.
func CgroupRootMountPoint() MountPoint {
	return MountPoint{Target: cgroupRoot, MountOptions: MountOptions{
		FSType: FSTypeTmp,
		Source: "cgroup_root",
		Flags:  mountSecure,
		Data:   "mode=755,size=10m",
	}}
}

// SharedRootMountPoint returns the propagation change that makes "/"
// recursively shared.
func SharedRootMountPoint() MountPoint {
	return MountPoint{Target: "/", MountOptions: MountOptions{
		Flags: MountRec | MountShared,
	}}
}

// VarDirectory is a directory of the /var skeleton.
type VarDirectory struct {
	Path string
	Mode fs.FileMode
}

// VarSkeleton returns the directories created on the /var tmpfs.
func VarSkeleton() []VarDirectory {
	return []VarDirectory{
		{"/var/cache", 0o755},
		{"/var/empty", 0o555},
		{"/var/lib", 0o755},
		{"/var/local", 0o755},
		{"/var/lock", 0o755},
		{"/var/log", 0o755},
		{"/var/opt", 0o755},
		{"/var/spool", 0o755},
		{"/var/tmp", fs.ModeSticky | 0o777},
	}
}

// Topology establishes the canonical virtual file system layout. All paths
// are relative to Root, which is "/" on a real system.
type Topology struct {
	Root     string
	Kernel   Kernel
	Devices  []DeviceNode
	Symlinks Symlinks
	Logger   *slog.Logger
}

// DefaultTopology returns the [Topology] for the running system.
func DefaultTopology(logger *slog.Logger) Topology {
	return Topology{
		Root:     "/",
		Kernel:   HostKernel{},
		Devices:  BaseDeviceNodes(),
		Symlinks: DevSymlinks(),
		Logger:   logger,
	}
}

// Build runs all topology steps in order. Only failures of essential mounts
// abort and are returned wrapping [ErrFatal]. All other failures are
// collected in the returned error.
func (t Topology) Build() error {
	logger := loggerOrDefault(t.Logger)

	var errs []error

	steps := []struct {
		name string
		fn   func() error
	}{
		{"proc", func() error { return t.mountAll(ProcMountPoints()) }},
		{"tmpfs", func() error { return t.mountAll(TmpMountPoints()) }},
		{"var", t.createVarSkeleton},
		{"dev", func() error { return t.mountAll(MountPoints{DevMountPoint()}) }},
		{"devices", t.createDevices},
		{"dev mounts", func() error { return t.mountAll(DevSubMountPoints()) }},
		{"sys", func() error { return t.mountAll(SysMountPoints()) }},
		{"cgroup root", func() error { return t.mountAll(MountPoints{CgroupRootMountPoint()}) }},
		{"cgroups", t.mountCgroups},
		{"memory hierarchy", t.enableMemoryHierarchy},
		{"systemd cgroup", func() error { return t.mountCgroup(SystemdCgroupMountPoint()) }},
		{"shared root", func() error { return t.mountAll(MountPoints{SharedRootMountPoint()}) }},
	}

	for _, step := range steps {
		logger.Debug("topology step", slog.String("step", step.name))

		err := step.fn()
		if err == nil {
			continue
		}

		if errors.Is(err, ErrFatal) {
			return fmt.Errorf("%s: %w", step.name, err)
		}

		errs = append(errs, fmt.Errorf("%s: %w", step.name, err))
	}

	return errors.Join(errs...)
}

// WithTopology returns a setup [Func] that wraps [Topology.Build] and can be
// used with [Run].
func WithTopology(topology Topology) Func {
	return func(_ context.Context, _ *State) error {
		return topology.Build()
	}
}

func (t Topology) path(path string) string {
	return filepath.Join(t.Root, path)
}

func (t Topology) mountAll(mountPoints MountPoints) error {
	return MountAll(t.Kernel, t.Root, mountPoints, t.Logger)
}

func (t Topology) createVarSkeleton() error {
	var errs []error

	for _, dir := range VarSkeleton() {
		err := mkdirMode(t.path(dir.Path), dir.Mode)
		if err != nil {
			loggerOrDefault(t.Logger).Error("create directory", slog.Any("error", err))
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (t Topology) createDevices() error {
	return errors.Join(
		CreateDeviceNodes(t.Kernel, t.Root, t.Devices, t.Logger),
		CreateSymlinks(t.Root, t.Symlinks, t.Logger),
	)
}

func (t Topology) mountCgroups() error {
	logger := loggerOrDefault(t.Logger)

	file, err := os.Open(t.path(cgroupsFile))
	if err != nil {
		logger.Error("read cgroups", slog.Any("error", err))
		return fmt.Errorf("read cgroups: %w", err)
	}
	defer file.Close()

	subsystems, err := ParseCgroups(file, logger)
	if err != nil {
		logger.Error("parse cgroups", slog.Any("error", err))
		return err
	}

	var errs []error

	for _, subsys := range EnabledCgroups(subsystems) {
		errs = append(errs, t.mountCgroup(CgroupMountPoint(subsys.Name)))
	}

	return errors.Join(errs...)
}

// mountCgroup creates the hierarchy directory with its exact mode before
// mounting.
func (t Topology) mountCgroup(mountPoint MountPoint) error {
	err := mkdirMode(t.path(mountPoint.Target), mountPoint.DirMode)
	if err != nil {
		loggerOrDefault(t.Logger).Error("create cgroup directory",
			slog.Any("error", err))

		return err
	}

	return t.mountAll(MountPoints{mountPoint})
}

func (t Topology) enableMemoryHierarchy() error {
	err := os.WriteFile(t.path(memoryHierFile), []byte("1"), 0o600)
	if err != nil {
		trace(loggerOrDefault(t.Logger), "memory hierarchy", slog.Any("error", err))
	}

	return nil
}

// mkdirMode creates the directory and sets the exact mode, independent of
// the umask. An existing directory is not an error.
func mkdirMode(path string, mode fs.FileMode) error {
	err := os.Mkdir(path, mode)
	if err != nil && !errors.Is(err, fs.ErrExist) {
		return err //nolint:wrapcheck
	}

	if err := os.Chmod(path, mode); err != nil {
		return err //nolint:wrapcheck
	}

	return nil
}
