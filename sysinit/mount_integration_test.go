// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

//go:build integration_sysinit

package sysinit_test

import (
	"testing"

	"github.com/moby/sys/mountinfo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukama/microinit/sysinit"
	"golang.org/x/sys/unix"
)

func TestMount(t *testing.T) {
	tests := []struct {
		name        string
		path        string
		opts        sysinit.MountOptions
		expectedErr error
	}{
		{
			name:        "missing source",
			path:        "/test/some/path",
			expectedErr: unix.ENOENT,
		},
		{
			name: "nonexisting path",
			path: "/test/some/new/path",
			opts: sysinit.MountOptions{
				FSType: sysinit.FSTypeTmp,
				Flags:  sysinit.MountNoSUID | sysinit.MountNoDev,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Cleanup(func() {
				err := unix.Unmount(tt.path, 0)
				if err != nil && tt.expectedErr == nil {
					t.Logf("Failed to unmount %s: %v", tt.path, err)
				}
			})

			err := sysinit.Mount(sysinit.HostKernel{}, "/", tt.path, tt.opts)
			require.ErrorIs(t, err, tt.expectedErr)

			if tt.expectedErr != nil {
				return
			}

			mounts, err := mountinfo.GetMounts(mountinfo.SingleEntryFilter(tt.path))
			require.NoError(t, err)

			if assert.Len(t, mounts, 1) {
				assert.Equal(t, string(tt.opts.FSType), mounts[0].FSType)
			}
		})
	}
}

func TestMountAll(t *testing.T) {
	mounts := sysinit.MountPoints{
		{Target: "/test/optional", MountOptions: sysinit.MountOptions{
			FSType:   "nonexisting",
			Severity: sysinit.SeverityBestEffort,
		}},
		{Target: "/test/required", MountOptions: sysinit.MountOptions{
			FSType: sysinit.FSTypeTmp,
		}},
	}

	t.Cleanup(func() {
		_ = unix.Unmount("/test/required", 0)
	})

	err := sysinit.MountAll(sysinit.HostKernel{}, "/", mounts, nil)
	require.ErrorIs(t, err, sysinit.OptionalMountError{})
	assert.NotErrorIs(t, err, sysinit.MountError{})

	mounted, err := mountinfo.Mounted("/test/required")
	require.NoError(t, err)
	assert.True(t, mounted)
}
