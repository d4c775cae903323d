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
	"sync"

	"github.com/otiai10/copy"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"
)

// CopyTree copies every top-level entry of src into dst, preserving mode,
// ownership, timestamps and symbolic links. Each top-level entry is copied
// concurrently.
//
// The copy stays on the file system of src. Entries on other file systems
// and dst itself, in case it is located inside src, are skipped. Character
// and block devices are recreated with mknod(2).
//
// Errors of individual files are logged and the copy continues. All of them
// are returned joined once the copy is done.
func CopyTree(src, dst string, logger *slog.Logger) error {
	logger = loggerOrDefault(logger)

	srcInfo, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	srcDev, ok := deviceID(srcInfo)
	if !ok {
		return fmt.Errorf("%w: no device id for %s", errors.ErrUnsupported, src)
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return fmt.Errorf("read source: %w", err)
	}

	var (
		mu     sync.Mutex
		errs   []error
		record = func(err error) {
			mu.Lock()
			defer mu.Unlock()

			errs = append(errs, err)
		}
	)

	opts := copy.Options{
		OnSymlink: func(string) copy.SymlinkAction {
			return copy.Shallow
		},
		OnDirExists: func(string, string) copy.DirExistsAction {
			return copy.Merge
		},
		Skip: func(info os.FileInfo, path, dest string) (bool, error) {
			if filepath.Clean(path) == filepath.Clean(dst) {
				return true, nil
			}

			if dev, ok := deviceID(info); ok && dev != srcDev {
				trace(logger, "skip foreign file system", slog.String("path", path))
				return true, nil
			}

			if info.Mode()&fs.ModeDevice != 0 {
				if err := copyDeviceNode(info, dest); err != nil {
					record(err)
					logger.Warn("copy device", slog.String("path", path), slog.Any("error", err))
				}

				return true, nil
			}

			return false, nil
		},
		OnError: func(path, _ string, err error) error {
			if err != nil {
				record(fmt.Errorf("copy %s: %w", path, err))
				logger.Warn("copy", slog.String("path", path), slog.Any("error", err))
			}

			return nil
		},
		PermissionControl: copy.PerservePermission,
		PreserveTimes:     true,
		PreserveOwner:     true,
	}

	var group errgroup.Group

	for _, entry := range entries {
		path := filepath.Join(src, entry.Name())
		if filepath.Clean(path) == filepath.Clean(dst) {
			continue
		}

		target := filepath.Join(dst, entry.Name())

		group.Go(func() error {
			if err := copy.Copy(path, target, opts); err != nil {
				record(fmt.Errorf("copy %s: %w", path, err))
			}

			return nil
		})
	}

	_ = group.Wait()

	return errors.Join(errs...)
}

func copyDeviceNode(info os.FileInfo, dest string) error {
	rdev, ok := rawDevice(info)
	if !ok {
		return fmt.Errorf("%w: no device numbers for %s", errors.ErrUnsupported, info.Name())
	}

	mode := uint32(info.Mode().Perm())
	if info.Mode()&fs.ModeCharDevice != 0 {
		mode |= unix.S_IFCHR
	} else {
		mode |= unix.S_IFBLK
	}

	err := unix.Mknod(dest, mode, int(rdev)) //nolint:gosec
	if err != nil && !errors.Is(err, unix.EEXIST) {
		return &os.PathError{Op: "mknod", Path: dest, Err: err}
	}

	return nil
}

// removeSameDevice removes path and everything below it that is located on
// the device dev. Mount points of other file systems and their parents are
// left in place.
func removeSameDevice(path string, dev uint64) error {
	info, err := os.Lstat(path)
	if err != nil {
		return err //nolint:wrapcheck
	}

	if id, ok := deviceID(info); !ok || id != dev {
		return nil
	}

	var errs []error

	if info.IsDir() {
		entries, err := os.ReadDir(path)
		if err != nil {
			return err //nolint:wrapcheck
		}

		for _, entry := range entries {
			err := removeSameDevice(filepath.Join(path, entry.Name()), dev)
			if err != nil {
				errs = append(errs, err)
			}
		}
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, unix.ENOTEMPTY) {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}
