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
	"strings"

	"golang.org/x/sys/unix"
)

// Resource limits applied for all processes started by init.
const (
	NoFileLimit  uint64 = 1 << 20
	rlimInfinity        = ^uint64(0)
)

// HostnamePrefix is prepended to the MAC address if no hostname is
// configured.
const HostnamePrefix = "ukama-"

// DefaultHWClock is the hardware clock helper binary.
const DefaultHWClock = "/sbin/hwclock"

const (
	hostnameFile   = "/etc/hostname"
	macAddressFile = "/sys/class/net/eth0/address"
	resolvConfFile = "/etc/resolv.conf"
	unsetHostname  = "(none)"
)

// SetLimits raises the open file limit and removes the process limit.
func SetLimits() error {
	return errors.Join(
		setrlimit(unix.RLIMIT_NOFILE, NoFileLimit, NoFileLimit),
		setrlimit(unix.RLIMIT_NPROC, rlimInfinity, rlimInfinity),
	)
}

// WithLimits returns a setup [Func] that wraps [SetLimits] and can be used
// with [Run].
func WithLimits() Func {
	return func(_ context.Context, _ *State) error {
		return SetLimits()
	}
}

// Hostname derives and sets the hostname.
type Hostname struct {
	Root   string
	Kernel Kernel
	Logger *slog.Logger
}

// Apply sets the hostname from /etc/hostname. If that is empty and the
// kernel has no hostname yet, "ukama-" followed by the MAC address of eth0
// without colons is used. It returns the resulting hostname.
func (h Hostname) Apply() (string, error) {
	logger := loggerOrDefault(h.Logger)

	configured, _ := readTrimmed(filepath.Join(h.Root, hostnameFile))
	if configured != "" {
		if err := h.Kernel.SetHostname(configured); err != nil {
			return "", err
		}

		logger.Info("hostname set", slog.String("hostname", configured))

		return configured, nil
	}

	current, err := h.Kernel.Hostname()
	if err == nil && current != "" && current != unsetHostname {
		logger.Debug("keep hostname", slog.String("hostname", current))
		return current, nil
	}

	mac, _ := readTrimmed(filepath.Join(h.Root, macAddressFile))
	if mac == "" {
		logger.Warn("no mac address found, keep default hostname")
		return current, nil
	}

	name := HostnamePrefix + strings.ReplaceAll(mac, ":", "")
	if err := h.Kernel.SetHostname(name); err != nil {
		return "", err
	}

	logger.Info("hostname set", slog.String("hostname", name))

	return name, nil
}

// WithHostname returns a setup [Func] that wraps [Hostname.Apply] and can be
// used with [Run].
func WithHostname(hostname Hostname) Func {
	return func(_ context.Context, _ *State) error {
		_, err := hostname.Apply()
		return err
	}
}

// PrepareResolvConf creates the empty target file and its parent directory
// if /etc/resolv.conf is a symbolic link. Nothing is done otherwise.
//
// Relative link targets are resolved against /etc.
func PrepareResolvConf(root string) error {
	link := filepath.Join(root, resolvConfFile)

	info, err := os.Lstat(link)
	if err != nil || info.Mode()&fs.ModeSymlink == 0 {
		return nil
	}

	target, err := os.Readlink(link)
	if err != nil {
		return fmt.Errorf("read resolv.conf link: %w", err)
	}

	if !filepath.IsAbs(target) {
		target = filepath.Join(filepath.Dir(resolvConfFile), target)
	}

	target = filepath.Join(root, target)

	if err := os.MkdirAll(filepath.Dir(target), defaultDirMode); err != nil {
		return fmt.Errorf("create resolv.conf dir: %w", err)
	}

	if err := os.WriteFile(target, nil, 0o644); err != nil {
		return fmt.Errorf("create resolv.conf: %w", err)
	}

	return nil
}

// WithResolvConf returns a setup [Func] that wraps [PrepareResolvConf] and
// can be used with [Run].
func WithResolvConf(root string) Func {
	return func(_ context.Context, _ *State) error {
		return PrepareResolvConf(root)
	}
}

// SyncClock sets the system clock from the hardware clock, interpreting it as
// UTC.
func SyncClock(ctx context.Context, runner CommandRunner, hwclock string) error {
	return runner.Run(ctx, hwclock, "--hctosys", "--utc")
}

// WithClock returns a setup [Func] that wraps [SyncClock] and can be used
// with [Run].
func WithClock(runner CommandRunner, hwclock string) Func {
	return func(ctx context.Context, _ *State) error {
		return SyncClock(ctx, runner, hwclock)
	}
}

func readTrimmed(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err //nolint:wrapcheck
	}

	return strings.TrimSpace(string(data)), nil
}
