// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukama/microinit/internal/config"
	"github.com/ukama/microinit/internal/workload"
)

func testDriver(t *testing.T, runtime workload.Runtime) *workload.Driver {
	t.Helper()

	return &workload.Driver{
		Runtime: runtime,
		PidDir:  filepath.Join(t.TempDir(), "onboot"),
		Timeout: time.Second,
		Logger:  slog.Default(),
	}
}

func TestWorkloads_Start(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Config{
		InitBundle: []config.App{
			{Name: "first", Path: writeBundle(t, dir, "first")},
			{Name: "missing", Path: filepath.Join(dir, "missing")},
			{Name: "second", Path: writeBundle(t, dir, "second")},
		},
	}

	tests := []struct {
		name          string
		names         []string
		engineErr     error
		fail          map[string]error
		expectedCalls []string
		expectedErr   error
	}{
		{
			name:          "all",
			expectedCalls: []string{"create first", "start first", "create second", "start second"},
		},
		{
			name:          "named",
			names:         []string{"second"},
			expectedCalls: []string{"create second", "start second"},
		},
		{
			name:          "engine failure does not stop bundles",
			names:         []string{"first"},
			engineErr:     workload.ErrTimeout,
			expectedCalls: []string{"create first", "start first"},
		},
		{
			name:          "bundle failure",
			fail:          map[string]error{"create first": assert.AnError},
			expectedCalls: []string{"create first", "create second", "start second"},
			expectedErr:   ErrWorkloadFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runtime := &fakeRuntime{fail: tt.fail}
			engine := &fakeEngine{err: tt.engineErr}

			work := &workloads{
				cfg:    cfg,
				driver: testDriver(t, runtime),
				engine: engine,
				logger: slog.Default(),
			}

			err := work.start(context.Background(), tt.names...)
			require.ErrorIs(t, err, tt.expectedErr)

			assert.Equal(t, 1, engine.starts)
			assert.Equal(t, tt.expectedCalls, runtime.calls)
		})
	}
}

func TestWorkloads_Stop(t *testing.T) {
	cfg := config.Config{
		ShutdownBundle: []config.App{{Name: "first"}, {Name: "gone"}},
	}

	containers := []workload.Container{
		{ID: "first", State: workload.StateRunning},
		{ID: "second", State: workload.StateStopped},
	}

	tests := []struct {
		name          string
		cfg           config.Config
		names         []string
		expectedCalls []string
	}{
		{
			name:          "shutdown bundles",
			cfg:           cfg,
			expectedCalls: []string{"list", "kill first", "delete first"},
		},
		{
			name:          "named",
			cfg:           cfg,
			names:         []string{"second"},
			expectedCalls: []string{"list", "delete second"},
		},
		{
			name: "nothing configured",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runtime := &fakeRuntime{containers: containers}

			work := &workloads{
				cfg:    tt.cfg,
				driver: testDriver(t, runtime),
				engine: &fakeEngine{},
				logger: slog.Default(),
			}

			require.NoError(t, work.stop(context.Background(), tt.names...))
			assert.Equal(t, tt.expectedCalls, runtime.calls)
		})
	}
}

func TestWorkloads_Teardown(t *testing.T) {
	runtime := &fakeRuntime{
		containers: []workload.Container{
			{ID: "first", State: workload.StateRunning},
			{ID: "second", State: workload.StateStopped},
		},
		fail: map[string]error{"kill first": assert.AnError},
	}

	work := &workloads{
		cfg:    config.Config{ShutdownBundle: []config.App{{Name: "first"}}},
		driver: testDriver(t, runtime),
		engine: &fakeEngine{},
		logger: slog.Default(),
	}

	require.NoError(t, work.teardown(context.Background()))

	expected := []string{
		"list", "kill first",
		"list", "kill first", "delete second",
	}
	assert.Equal(t, expected, runtime.calls)
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()

	broken := filepath.Join(dir, "uInit.yml")
	require.NoError(t, os.WriteFile(broken, []byte("init: [\n"), 0o644))

	valid := filepath.Join(dir, "microInit.toml")
	require.NoError(t, os.WriteFile(valid, []byte(`
[[init]]
name = "oci-runtime"
path = "/usr/sbin/runc"
`), 0o644))

	tests := []struct {
		name            string
		paths           []string
		expectedRuntime string
	}{
		{
			name:            "missing",
			paths:           []string{filepath.Join(dir, "missing.yml")},
			expectedRuntime: config.DefaultRuntimePath,
		},
		{
			name:            "broken",
			paths:           []string{broken},
			expectedRuntime: config.DefaultRuntimePath,
		},
		{
			name:            "valid",
			paths:           []string{filepath.Join(dir, "missing.yml"), valid},
			expectedRuntime: "/usr/sbin/runc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := loadConfig(slog.Default(), tt.paths...)
			assert.Equal(t, tt.expectedRuntime, cfg.RuntimePath())
		})
	}
}
