// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sysinit

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	mu    sync.Mutex
	calls [][]string
	fail  map[string]error
}

func (r *fakeRunner) Run(_ context.Context, path string, args ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls = append(r.calls, append([]string{path}, args...))

	if len(args) > 0 {
		return r.fail[args[len(args)-1]]
	}

	return nil
}

func TestHotplug_Run(t *testing.T) {
	root := t.TempDir()

	for path, content := range map[string]string{
		"/proc/sys/kernel/hotplug":                  "",
		"/sys/devices/usb1/uevent":                  "",
		"/sys/devices/usb2/uevent":                  "",
		"/sys/devices/pci0000:00/uevent":            "",
		"/sys/bus/usb/devices/1-1/modalias":         "usb:v1D6Bp0002\n",
		"/sys/bus/pci/devices/0000:00:01.0/modalias": "pci:v00008086\n",
		"/sys/bus/pci/devices/0000:00:02.0/modalias": "\n",
	} {
		require.NoError(t, writeFile(root, path, content))
	}

	runner := &fakeRunner{
		fail: map[string]error{"pci:v00008086": assert.AnError},
	}

	hotplug := Hotplug{
		Root:          root,
		DeviceManager: DefaultDeviceManager,
		ModuleLoader:  DefaultModuleLoader,
		Runner:        runner,
	}

	err := hotplug.Run(context.Background())
	require.NoError(t, err, "modalias failures must not fail the phase")

	assert.Equal(t, [][]string{
		{DefaultDeviceManager, "-s"},
		{DefaultModuleLoader, "-abq", "pci:v00008086"},
		{DefaultModuleLoader, "-abq", "usb:v1D6Bp0002"},
	}, runner.calls)

	helper, err := os.ReadFile(filepath.Join(root, hotplugFile))
	require.NoError(t, err)
	assert.Equal(t, DefaultDeviceManager, string(helper))

	for _, dev := range []string{"usb1", "usb2"} {
		uevent, err := os.ReadFile(filepath.Join(root, sysDevicesDir, dev, "uevent"))
		require.NoError(t, err)
		assert.Equal(t, "add", string(uevent), dev)
	}

	pci, err := os.ReadFile(filepath.Join(root, sysDevicesDir, "pci0000:00", "uevent"))
	require.NoError(t, err)
	assert.Empty(t, pci)
}

func TestHotplug_Run_MissingSys(t *testing.T) {
	runner := &fakeRunner{}

	hotplug := Hotplug{
		Root:          t.TempDir(),
		DeviceManager: DefaultDeviceManager,
		ModuleLoader:  DefaultModuleLoader,
		Runner:        runner,
	}

	err := hotplug.Run(context.Background())
	require.Error(t, err)

	assert.Equal(t, [][]string{{DefaultDeviceManager, "-s"}}, runner.calls,
		"scan must run even if helper installation fails")
}
