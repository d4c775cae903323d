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
)

// FSType is a file system type.
type FSType string

// Special file system types.
const (
	FSTypeBinfmt   FSType = "binfmt_misc"
	FSTypeBpf      FSType = "bpf"
	FSTypeCgroup   FSType = "cgroup"
	FSTypeConfig   FSType = "configfs"
	FSTypeDebug    FSType = "debugfs"
	FSTypeDevPts   FSType = "devpts"
	FSTypeDevTmp   FSType = "devtmpfs"
	FSTypeEfiVar   FSType = "efivarfs"
	FSTypeFuseCtl  FSType = "fusectl"
	FSTypeMqueue   FSType = "mqueue"
	FSTypeProc     FSType = "proc"
	FSTypePstore   FSType = "pstore"
	FSTypeSecurity FSType = "securityfs"
	FSTypeSELinux  FSType = "selinuxfs"
	FSTypeSys      FSType = "sysfs"
	FSTypeTmp      FSType = "tmpfs"

	defaultDirMode = 0o755
)

// Severity determines how a mount failure is handled.
type Severity int

const (
	// SeverityRequired failures are logged as errors. The system is degraded
	// but the bring-up continues.
	SeverityRequired Severity = iota

	// SeverityBestEffort failures are only traced. Many kernels lack some of
	// the optional file systems.
	SeverityBestEffort

	// SeverityEssential failures are fatal. The system is not usable without
	// the mount.
	SeverityEssential
)

func (s Severity) String() string {
	switch s {
	case SeverityBestEffort:
		return "best-effort"
	case SeverityEssential:
		return "essential"
	default:
		return "required"
	}
}

// MountOptions contains parameters for a mount point.
type MountOptions struct {
	// FSType is the file system type. May be empty for remounts and
	// propagation changes.
	FSType FSType

	// Source is the source device to mount. If empty it is set to the string
	// of the type.
	Source string

	// Flags are optional mount flags as defined by mount(2).
	Flags MountFlags

	// Data are optional additional parameters that depend of the [FSType].
	Data string

	// Severity determines how failures are handled by [MountAll].
	Severity Severity

	// DirMode is the mode the target directory is created with if it does
	// not exist. Defaults to 0755.
	DirMode fs.FileMode
}

// MountPoint is a target path with its [MountOptions].
type MountPoint struct {
	Target string
	MountOptions
}

// MountPoints is an ordered list of [MountPoint]s. Later entries may depend
// on directories provided by earlier ones.
type MountPoints []MountPoint

// Mount mounts the file system described by opts at the given path, relative
// to root.
//
// If the target directory does not exist, it is created. An error is
// returned if this or the mount syscall fails.
func Mount(kernel Kernel, root, path string, opts MountOptions) error {
	target := filepath.Join(root, path)

	if opts.FSType != "" {
		mode := opts.DirMode
		if mode == 0 {
			mode = defaultDirMode
		}

		if err := os.MkdirAll(target, mode); err != nil {
			return fmt.Errorf("mkdir %s: %w", target, err)
		}
	}

	source := opts.Source
	if source == "" {
		source = string(opts.FSType)
	}

	return kernel.Mount(source, target, string(opts.FSType), opts.Flags, opts.Data)
}

// MountAll mounts the given mount points in order.
//
// Failures of [SeverityEssential] mount points stop immediately and return
// an error wrapping [ErrFatal]. Other failures are logged according to their
// [Severity] and the next mount point is tried. The returned error then
// contains a [MountError] for required and an [OptionalMountError] for
// best-effort failures.
func MountAll(kernel Kernel, root string, mountPoints MountPoints, logger *slog.Logger) error {
	var (
		requiredErrs MountError
		optionalErrs OptionalMountError
	)

	logger = loggerOrDefault(logger)

	for _, mountPoint := range mountPoints {
		err := Mount(kernel, root, mountPoint.Target, mountPoint.MountOptions)
		if err == nil {
			trace(logger, "mounted",
				slog.String("target", mountPoint.Target),
				slog.String("type", string(mountPoint.FSType)),
				slog.String("flags", mountPoint.Flags.String()))

			continue
		}

		switch mountPoint.Severity {
		case SeverityEssential:
			return fatal(err)
		case SeverityBestEffort:
			trace(logger, "optional mount failed", slog.Any("error", err))
			optionalErrs = append(optionalErrs, err)
		default:
			logger.Error("mount failed", slog.Any("error", err))
			requiredErrs = append(requiredErrs, err)
		}
	}

	var errs []error
	if requiredErrs != nil {
		errs = append(errs, requiredErrs)
	}

	if optionalErrs != nil {
		errs = append(errs, optionalErrs)
	}

	return errors.Join(errs...)
}
