// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sysinit

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCgroups = "#subsys_name\thierarchy\tnum_cgroups\tenabled\n" +
	"cpuset\t0\t1\t1\n" +
	"cpu\t0\t1\t1\n" +
	"memory\t0\t1\t0\n" +
	"pids\t0\t1\t1\n"

func newTestTopology(t *testing.T, failMount map[string]error) (Topology, *fakeKernel) {
	t.Helper()

	root := t.TempDir()
	require.NoError(t, writeFile(root, cgroupsFile, testCgroups))

	kernel := &fakeKernel{root: root, failMount: failMount}

	return Topology{
		Root:     root,
		Kernel:   kernel,
		Devices:  BaseDeviceNodes(),
		Symlinks: DevSymlinks(),
	}, kernel
}

func TestTopology_Build(t *testing.T) {
	topology, kernel := newTestTopology(t, nil)

	err := topology.Build()
	require.NoError(t, err)

	expected := []string{
		"/proc",
		"/",
		"/run",
		"/tmp",
		"/var",
		"/dev",
		"/dev/mqueue",
		"/dev/shm",
		"/dev/pts",
		"/sys",
		"/sys/kernel/security",
		"/sys/kernel/debug",
		"/sys/kernel/config",
		"/sys/fs/fuse/connections",
		"/sys/fs/selinux",
		"/sys/fs/pstore",
		"/sys/fs/bpf",
		"/sys/firmware/efi/efivars",
		"/proc/sys/fs/binfmt_misc",
		"/sys/fs/cgroup",
		"/sys/fs/cgroup/cpuset",
		"/sys/fs/cgroup/cpu",
		"/sys/fs/cgroup/pids",
		"/sys/fs/cgroup/systemd",
		"/",
	}
	assert.Equal(t, expected, kernel.targets())

	t.Run("propagation", func(t *testing.T) {
		last := kernel.mounts[len(kernel.mounts)-1]
		assert.Equal(t, MountRec|MountShared, last.Flags)

		remount := kernel.mounts[1]
		assert.Equal(t, MountRemount, remount.Flags)
	})

	t.Run("cgroups", func(t *testing.T) {
		call, exists := kernel.mount("/sys/fs/cgroup/cpu")
		require.True(t, exists)
		assert.Equal(t, mountCall{"cpu", "/sys/fs/cgroup/cpu", "cgroup", mountSecure, "cpu"}, call)

		_, exists = kernel.mount("/sys/fs/cgroup/memory")
		assert.False(t, exists, "disabled subsystem must not be mounted")

		info, err := os.Stat(filepath.Join(topology.Root, "/sys/fs/cgroup/cpu"))
		require.NoError(t, err)
		assert.Equal(t, fs.FileMode(0o666), info.Mode().Perm())
	})

	t.Run("var skeleton", func(t *testing.T) {
		for _, dir := range VarSkeleton() {
			info, err := os.Stat(filepath.Join(topology.Root, dir.Path))
			if assert.NoError(t, err, dir.Path) {
				assert.Equal(t, dir.Mode, info.Mode()&(fs.ModePerm|fs.ModeSticky), dir.Path)
			}
		}
	})

	t.Run("devices", func(t *testing.T) {
		assert.Equal(t, expectedDeviceNodes, kernel.mknods())

		for _, node := range BaseDeviceNodes() {
			info, err := os.Stat(filepath.Join(topology.Root, node.Path))
			if assert.NoError(t, err, node.Path) {
				assert.Equal(t, node.Mode, info.Mode().Perm(), node.Path)
			}
		}

		target, err := os.Readlink(filepath.Join(topology.Root, "/dev/stdout"))
		require.NoError(t, err)
		assert.Equal(t, "/proc/self/fd/1", target)
	})

	t.Run("idempotent devices", func(t *testing.T) {
		assert.NoError(t, topology.createDevices())
	})
}

func TestTopology_Build_Twice(t *testing.T) {
	topology, kernel := newTestTopology(t, nil)

	require.NoError(t, topology.Build())

	first := kernel.targets()
	firstNodes := kernel.mknods()

	kernel.mu.Lock()
	kernel.mounts = nil
	kernel.nodes = nil
	kernel.mu.Unlock()

	err := topology.Build()
	require.NoError(t, err, "second run must neither fail nor abort")
	assert.NotErrorIs(t, err, ErrFatal)

	assert.Equal(t, first, kernel.targets())
	assert.Equal(t, firstNodes, kernel.mknods())

	for _, node := range BaseDeviceNodes() {
		info, err := os.Stat(filepath.Join(topology.Root, node.Path))
		if assert.NoError(t, err, node.Path) {
			assert.Equal(t, node.Mode, info.Mode().Perm(), node.Path)
		}
	}
}

func TestTopology_Build_Failures(t *testing.T) {
	errMount := errors.New("mount failed")

	tests := []struct {
		name        string
		failMount   map[string]error
		expectedErr error
		lastTarget  string
	}{
		{
			name:        "essential proc",
			failMount:   map[string]error{"/proc": errMount},
			expectedErr: ErrFatal,
		},
		{
			name:        "essential sys",
			failMount:   map[string]error{"/sys": errMount},
			expectedErr: ErrFatal,
			lastTarget:  "/dev/pts",
		},
		{
			name:        "required run",
			failMount:   map[string]error{"/run": errMount},
			expectedErr: MountError{},
			lastTarget:  "/",
		},
		{
			name:        "optional debugfs",
			failMount:   map[string]error{"/sys/kernel/debug": errMount},
			expectedErr: OptionalMountError{},
			lastTarget:  "/",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			topology, kernel := newTestTopology(t, tt.failMount)

			err := topology.Build()
			require.ErrorIs(t, err, tt.expectedErr)
			assert.ErrorIs(t, err, errMount)

			targets := kernel.targets()
			if tt.lastTarget == "" {
				assert.Empty(t, targets)
				return
			}

			require.NotEmpty(t, targets)
			assert.Equal(t, tt.lastTarget, targets[len(targets)-1])
		})
	}
}

func TestTopology_Build_MissingCgroups(t *testing.T) {
	root := t.TempDir()
	kernel := &fakeKernel{root: root}

	err := Topology{Root: root, Kernel: kernel}.Build()
	require.ErrorIs(t, err, fs.ErrNotExist)
	assert.NotErrorIs(t, err, ErrFatal)

	_, exists := kernel.mount("/sys/fs/cgroup/systemd")
	assert.True(t, exists, "later steps must still run")
}
