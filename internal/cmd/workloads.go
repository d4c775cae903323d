// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ukama/microinit/internal/config"
	"github.com/ukama/microinit/internal/workload"
	"github.com/ukama/microinit/sysinit"
)

// Engine starts the container engine daemon.
type Engine interface {
	Start(ctx context.Context) (int32, error)
}

// workloads combines the engine and the bundle driver configured by a
// [config.Config].
type workloads struct {
	cfg    config.Config
	driver *workload.Driver
	engine Engine
	logger *slog.Logger
}

func newWorkloads(cfg config.Config, logger *slog.Logger) *workloads {
	return &workloads{
		cfg:    cfg,
		driver: workload.NewDriver(cfg.RuntimePath(), logger),
		engine: workload.NewEngine(cfg.EnginePath(), logger),
		logger: logger,
	}
}

// loadConfig returns the config from the given paths. A broken config file
// is logged and the defaults are used, so the system still comes up.
func loadConfig(logger *slog.Logger, paths ...string) config.Config {
	cfg, err := config.NewLoader(logger, paths...).Get()
	if err != nil {
		logger.Error("load config, using defaults", slog.Any("error", err))
		return config.Config{}
	}

	return cfg
}

// start ensures the engine is running and boots the named init bundles, or
// all if none are given. A failing engine is logged only, since bundles are
// run by the runtime directly.
func (w *workloads) start(ctx context.Context, names ...string) error {
	if _, err := w.engine.Start(ctx); err != nil {
		w.logger.Error("start engine", slog.Any("error", err))
	}

	status := w.driver.Boot(ctx, w.cfg.InitBundles(names...))

	w.logger.Info("bundles booted", slog.String("status", status.String()))

	if !status.OK() {
		return fmt.Errorf("%w: %w", ErrWorkloadFailed, status.Err())
	}

	return nil
}

// stop tears down the named containers. Without names, all shutdown bundles
// are torn down.
func (w *workloads) stop(ctx context.Context, names ...string) error {
	if len(names) == 0 {
		for _, app := range w.cfg.ShutdownBundles() {
			names = append(names, app.Name)
		}
	}

	if len(names) == 0 {
		return nil
	}

	count, err := w.driver.Teardown(ctx, names...)
	if err != nil {
		return fmt.Errorf("teardown: %w", err)
	}

	w.logger.Info("containers torn down", slog.Int("count", count))

	return nil
}

// teardown stops the shutdown bundles and cleans up everything else the
// runtime still knows about.
func (w *workloads) teardown(ctx context.Context) error {
	return errors.Join(w.stop(ctx), w.driver.Cleanup(ctx))
}

// withWorkloads returns a setup [sysinit.Func] that boots all init bundles.
// Bundle failures are recorded in the state and are never fatal.
func withWorkloads(w *workloads) sysinit.Func {
	return func(ctx context.Context, _ *sysinit.State) error {
		return w.start(ctx)
	}
}
