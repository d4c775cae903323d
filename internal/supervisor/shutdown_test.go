// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package supervisor_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/moby/sys/mountinfo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukama/microinit/internal/supervisor"
	"github.com/ukama/microinit/sysinit"
	"golang.org/x/sys/unix"
)

type recorder struct {
	events []string
}

func (r *recorder) add(format string, args ...any) {
	r.events = append(r.events, fmt.Sprintf(format, args...))
}

func newTestShutdown(rec *recorder, mounts []*mountinfo.Info) supervisor.Shutdown {
	return supervisor.Shutdown{
		Teardown: func(context.Context) error {
			rec.add("teardown")
			return assert.AnError
		},
		Mounts: func() ([]*mountinfo.Info, error) {
			rec.add("mounts")
			return mounts, nil
		},
		Unmount: func(target string, flags int) error {
			rec.add("unmount %s %d", target, flags)
			return nil
		},
		Sync: func() {
			rec.add("sync")
		},
		Reboot: func(cmd int) error {
			rec.add("reboot %#x", cmd)
			return nil
		},
	}
}

func TestShutdown_Run(t *testing.T) {
	mounts := []*mountinfo.Info{
		{Mountpoint: "/proc", FSType: "proc"},
		{Mountpoint: "/data", FSType: "ext4"},
		{Mountpoint: "/home", FSType: "nfs4"},
	}

	tests := []struct {
		name   string
		action sysinit.ShutdownAction
		cmd    int
	}{
		{
			name:   "poweroff",
			action: sysinit.ActionPoweroff,
			cmd:    unix.LINUX_REBOOT_CMD_POWER_OFF,
		},
		{
			name:   "reboot",
			action: sysinit.ActionReboot,
			cmd:    unix.LINUX_REBOOT_CMD_RESTART,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}

			err := newTestShutdown(rec, mounts).Run(context.Background(), tt.action)
			require.NoError(t, err)

			assert.Equal(t, []string{
				"teardown",
				"sync",
				"mounts",
				fmt.Sprintf("unmount /home %d", unix.MNT_DETACH),
				"unmount /data 0",
				"sync",
				fmt.Sprintf("reboot %#x", tt.cmd),
			}, rec.events)
		})
	}
}

func TestShutdown_Run_Failures(t *testing.T) {
	rec := &recorder{}

	shutdown := newTestShutdown(rec, nil)
	shutdown.HookDir = filepath.Join(t.TempDir(), "missing")
	shutdown.Mounts = func() ([]*mountinfo.Info, error) {
		return nil, assert.AnError
	}
	shutdown.Reboot = func(int) error {
		return unix.EPERM
	}

	err := shutdown.Run(context.Background(), sysinit.ActionPoweroff)
	require.ErrorIs(t, err, unix.EPERM)

	assert.Equal(t, []string{"teardown", "sync", "sync"}, rec.events)
}

func TestShutdown_Run_Hooks(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(t.TempDir(), "hook.out")

	script := "#!/bin/sh\necho done > " + out + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "10-hook"), []byte(script), 0o755))

	rec := &recorder{}

	shutdown := newTestShutdown(rec, nil)
	shutdown.HookDir = dir
	shutdown.HookGrace = supervisor.DefaultHookGrace

	err := shutdown.Run(context.Background(), sysinit.ActionPoweroff)
	require.NoError(t, err)

	content, err := os.ReadFile(out)
	require.NoError(t, err, "hook must have run within the grace period")
	assert.Equal(t, "done\n", string(content))
}
