// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package supervisor_test

import (
	"context"
	"log/slog"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukama/microinit/internal/supervisor"
	"github.com/ukama/microinit/sysinit"
	"golang.org/x/sys/unix"
)

func TestActionFor(t *testing.T) {
	tests := []struct {
		signal   os.Signal
		expected sysinit.ShutdownAction
		ok       bool
	}{
		{unix.SIGUSR1, sysinit.ActionPoweroff, true},
		{unix.SIGUSR2, sysinit.ActionPoweroff, true},
		{unix.SIGPWR, sysinit.ActionPoweroff, true},
		{unix.SIGTERM, sysinit.ActionReboot, true},
		{unix.SIGINT, sysinit.ActionReboot, true},
		{unix.SIGCHLD, 0, false},
		{unix.SIGHUP, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.signal.String(), func(t *testing.T) {
			action, ok := supervisor.ActionFor(tt.signal)
			assert.Equal(t, tt.ok, ok)

			if ok {
				assert.Equal(t, tt.expected, action)
			}
		})
	}
}

func TestSupervisor_Loop(t *testing.T) {
	var (
		reaped  int
		actions []sysinit.ShutdownAction
	)

	sup := supervisor.Supervisor{
		Reap: func(*slog.Logger) int {
			reaped++
			return 0
		},
		Shutdown: func(_ context.Context, action sysinit.ShutdownAction) error {
			actions = append(actions, action)
			return nil
		},
	}

	signals := make(chan os.Signal, 4)
	signals <- unix.SIGCHLD
	signals <- unix.SIGHUP
	signals <- unix.SIGCHLD
	signals <- unix.SIGTERM

	err := sup.Loop(context.Background(), signals)
	require.NoError(t, err)

	assert.Equal(t, 3, reaped, "initial reap plus one per SIGCHLD")
	assert.Equal(t, []sysinit.ShutdownAction{sysinit.ActionReboot}, actions)
}

func TestSupervisor_Loop_Cancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	sup := supervisor.Supervisor{
		Reap: func(*slog.Logger) int { return 0 },
	}

	err := sup.Loop(ctx, make(chan os.Signal))
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestReap(t *testing.T) {
	cmd := exec.Command("true")
	require.NoError(t, cmd.Start())
	require.NoError(t, cmd.Process.Release())

	var reaped int

	assert.Eventually(t, func() bool {
		reaped += supervisor.Reap(nil)
		return reaped > 0
	}, 5*time.Second, 10*time.Millisecond)
}
