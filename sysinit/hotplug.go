// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sysinit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Default helper binaries.
const (
	DefaultDeviceManager = "/sbin/mdev"
	DefaultModuleLoader  = "/sbin/modprobe"
)

const (
	hotplugFile     = "/proc/sys/kernel/hotplug"
	sysDevicesDir   = "/sys/devices"
	modaliasPattern = "/sys/bus/*/devices/*/modalias"
)

// Hotplug installs the device manager as the kernel's hotplug helper and
// cold plugs the devices that were enumerated before.
type Hotplug struct {
	Root          string
	DeviceManager string
	ModuleLoader  string
	Runner        CommandRunner
	Logger        *slog.Logger
}

// DefaultHotplug returns the [Hotplug] for the running system.
func DefaultHotplug(logger *slog.Logger) Hotplug {
	return Hotplug{
		Root:          "/",
		DeviceManager: DefaultDeviceManager,
		ModuleLoader:  DefaultModuleLoader,
		Runner:        ExecRunner{Logger: logger},
		Logger:        logger,
	}
}

// WithHotplug returns a setup [Func] that wraps [Hotplug.Run] and can be used
// with [Run].
func WithHotplug(hotplug Hotplug) Func {
	return func(ctx context.Context, _ *State) error {
		return hotplug.Run(ctx)
	}
}

// Run installs the hotplug helper, re-triggers USB enumeration, runs a cold
// plug scan of the device manager and loads modules for all known modaliases.
//
// Every step is tried. Failures are logged and returned joined.
func (h Hotplug) Run(ctx context.Context) error {
	logger := loggerOrDefault(h.Logger)

	errs := []error{
		h.installHelper(),
		h.triggerUSB(),
	}

	err := h.Runner.Run(ctx, h.DeviceManager, "-s")
	if err != nil {
		logger.Error("cold plug scan", slog.Any("error", err))
		errs = append(errs, err)
	}

	errs = append(errs, h.LoadModaliases(ctx))

	return errors.Join(errs...)
}

func (h Hotplug) path(path string) string {
	return filepath.Join(h.Root, path)
}

func (h Hotplug) installHelper() error {
	err := os.WriteFile(h.path(hotplugFile), []byte(h.DeviceManager), 0o600)
	if err != nil {
		loggerOrDefault(h.Logger).Error("install hotplug helper", slog.Any("error", err))
		return fmt.Errorf("install hotplug helper: %w", err)
	}

	return nil
}

// triggerUSB writes "add" into the uevent file of all top level USB devices.
func (h Hotplug) triggerUSB() error {
	logger := loggerOrDefault(h.Logger)

	entries, err := os.ReadDir(h.path(sysDevicesDir))
	if err != nil {
		logger.Error("read devices", slog.Any("error", err))
		return fmt.Errorf("read devices: %w", err)
	}

	var errs []error

	for _, entry := range entries {
		if !strings.HasPrefix(entry.Name(), "usb") {
			continue
		}

		uevent := filepath.Join(h.path(sysDevicesDir), entry.Name(), "uevent")
		if _, err := os.Stat(uevent); err != nil {
			continue
		}

		if err := os.WriteFile(uevent, []byte("add"), 0o600); err != nil {
			logger.Error("trigger uevent", slog.Any("error", err))
			errs = append(errs, err)

			continue
		}

		trace(logger, "triggered uevent", slog.String("path", uevent))
	}

	return errors.Join(errs...)
}

// LoadModaliases invokes the module loader for every modalias the kernel
// exports for bus devices.
//
// Many aliases have no matching module, so loader failures are only logged
// and iteration continues. Only an invalid pattern is returned.
func (h Hotplug) LoadModaliases(ctx context.Context) error {
	logger := loggerOrDefault(h.Logger)

	paths, err := filepath.Glob(h.path(modaliasPattern))
	if err != nil {
		return fmt.Errorf("glob modalias: %w", err)
	}

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			trace(logger, "read modalias", slog.Any("error", err))
			continue
		}

		alias := strings.TrimSpace(string(data))
		if alias == "" {
			continue
		}

		err = h.Runner.Run(ctx, h.ModuleLoader, "-abq", alias)
		if err != nil {
			logger.Debug("load modalias",
				slog.String("alias", alias),
				slog.Any("error", err))
		}
	}

	return nil
}
