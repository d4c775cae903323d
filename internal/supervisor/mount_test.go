// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package supervisor_test

import (
	"testing"

	"github.com/moby/sys/mountinfo"
	"github.com/stretchr/testify/assert"
	"github.com/ukama/microinit/internal/supervisor"
	"golang.org/x/sys/unix"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		fsType   string
		expected supervisor.UnmountStrategy
	}{
		{"ext2", supervisor.UnmountNormal},
		{"ext3", supervisor.UnmountNormal},
		{"ext4", supervisor.UnmountNormal},
		{"btrfs", supervisor.UnmountNormal},
		{"xfs", supervisor.UnmountNormal},
		{"vfat", supervisor.UnmountNormal},
		{"msdos", supervisor.UnmountNormal},
		{"overlay", supervisor.UnmountNormal},
		{"nfs", supervisor.UnmountDetach},
		{"nfs4", supervisor.UnmountDetach},
		{"cifs", supervisor.UnmountDetach},
		{"proc", supervisor.UnmountSkip},
		{"tmpfs", supervisor.UnmountSkip},
		{"cgroup", supervisor.UnmountSkip},
		{"", supervisor.UnmountSkip},
	}

	for _, tt := range tests {
		t.Run(tt.fsType, func(t *testing.T) {
			assert.Equal(t, tt.expected, supervisor.Classify(tt.fsType))
		})
	}
}

func TestUnmountStrategy_Flags(t *testing.T) {
	assert.Equal(t, 0, supervisor.UnmountNormal.Flags())
	assert.Equal(t, unix.MNT_DETACH, supervisor.UnmountDetach.Flags())
}

func TestPlanUnmounts(t *testing.T) {
	mounts := []*mountinfo.Info{
		{Mountpoint: "/", FSType: "tmpfs"},
		{Mountpoint: "/proc", FSType: "proc"},
		{Mountpoint: "/data", FSType: "ext4"},
		{Mountpoint: "/data/overlay", FSType: "overlay"},
		{Mountpoint: "/home", FSType: "nfs4"},
	}

	expected := []supervisor.Unmount{
		{Target: "/home", FSType: "nfs4", Strategy: supervisor.UnmountDetach},
		{Target: "/data/overlay", FSType: "overlay", Strategy: supervisor.UnmountNormal},
		{Target: "/data", FSType: "ext4", Strategy: supervisor.UnmountNormal},
	}

	assert.Equal(t, expected, supervisor.PlanUnmounts(mounts))
}
