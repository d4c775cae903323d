// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukama/microinit/internal/logging"
	"github.com/ukama/microinit/sysinit"
)

func noop(_ context.Context, _ *sysinit.State) error {
	return nil
}

func TestInitProcess_Steps(t *testing.T) {
	userspace := []string{"environment", "limits", "hostname", "resolver"}
	workloads := []string{"ctrl-alt-del", "init hooks", "config", "workloads"}

	tests := []struct {
		name     string
		env      sysinit.BootEnvironment
		pidOne   bool
		expected [][]string
	}{
		{
			name:   "cold boot from initramfs",
			env:    sysinit.BootEnvironment{RootFSMagic: sysinit.MagicTmpfs},
			pidOne: true,
			expected: [][]string{
				{"pivot", "topology", "log file", "subreaper", "hotplug", "clock", "loopback", "reexec"},
				userspace,
				workloads,
			},
		},
		{
			name:   "after reexec",
			env:    sysinit.BootEnvironment{RootFSMagic: sysinit.MagicTmpfs, InUserspace: true},
			pidOne: true,
			expected: [][]string{
				{"log file", "subreaper"},
				userspace,
				workloads,
			},
		},
		{
			name: "disk root not pid one",
			env:  sysinit.BootEnvironment{RootFSMagic: 0xef53},
			expected: [][]string{
				{"pivot", "topology", "log file", "subreaper", "hotplug", "clock", "loopback"},
				userspace,
				workloads,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			proc := &initProcess{
				env:    tt.env,
				pidOne: tt.pidOne,
				logs:   logging.Setup(io.Discard, slog.LevelError),
				reexec: noop,
			}

			var expected []string
			for _, names := range tt.expected {
				expected = append(expected, names...)
			}

			assert.Equal(t, expected, stepNames(proc.steps()))
		})
	}
}

func TestWithCtrlAltDelSignal_NotPidOne(t *testing.T) {
	err := withCtrlAltDelSignal(false)(context.Background(), &sysinit.State{})
	require.ErrorIs(t, err, sysinit.ErrNotPidOne)
	assert.NotErrorIs(t, err, sysinit.ErrFatal)
}

func TestRCInitSteps(t *testing.T) {
	expected := []string{"subreaper", "environment", "limits", "hostname", "resolver", "init hooks"}
	assert.Equal(t, expected, stepNames(rcInitSteps(nil)))
}

func TestRunSteps(t *testing.T) {
	var ran []string

	record := func(name string, err error) sysinit.Func {
		return func(_ context.Context, _ *sysinit.State) error {
			ran = append(ran, name)
			return err
		}
	}

	steps := []step{
		{"first", record("first", nil)},
		{"broken", record("broken", assert.AnError)},
		{"fatal", record("fatal", fmt.Errorf("%w: boom", sysinit.ErrFatal))},
		{"never", record("never", nil)},
	}

	state := &sysinit.State{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	err := runSteps(context.Background(), state, logger, steps)
	require.ErrorIs(t, err, sysinit.ErrFatal)
	assert.ErrorContains(t, err, "fatal: ")

	assert.Equal(t, []string{"first", "broken", "fatal"}, ran)

	failures := state.Failures()
	require.Len(t, failures, 1)
	require.ErrorIs(t, failures[0], assert.AnError)
	assert.ErrorContains(t, failures[0], "broken: ")
}

func TestInitProcess_ShutdownTeardown(t *testing.T) {
	proc := &initProcess{}

	shutdown := proc.shutdown()
	require.NotNil(t, shutdown.Teardown)
	require.NoError(t, shutdown.Teardown(context.Background()), "no workloads loaded")

	runtime := &fakeRuntime{
		containers: nil,
	}
	proc.workloads = &workloads{
		driver: testDriver(t, runtime),
		engine: &fakeEngine{},
		logger: slog.Default(),
	}

	require.NoError(t, shutdown.Teardown(context.Background()))
	assert.Equal(t, []string{"list"}, runtime.calls)
}
