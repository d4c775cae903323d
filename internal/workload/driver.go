// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package workload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	runc "github.com/containerd/go-runc"
	"github.com/ukama/microinit/internal/config"
	"golang.org/x/sys/unix"
)

// Defaults for the [Driver].
const (
	DefaultTimeout = 10 * time.Second
	DefaultPidDir  = "/run/log/onboot"
)

// Driver boots and tears down bundles with a [Runtime].
type Driver struct {
	Runtime Runtime

	// PidDir is where the runtime writes the pid files of created
	// containers.
	PidDir string

	// Timeout bounds every single runtime invocation.
	Timeout time.Duration

	// Stdio returns the standard streams passed to the runtime on create.
	// The container init inherits them, so they must be files and not
	// pipes. Defaults to the streams of the calling process.
	Stdio func() (runc.IO, error)

	Logger *slog.Logger
}

// NewDriver returns a [Driver] for the runtime binary at the given path with
// the defaults set.
func NewDriver(runtimePath string, logger *slog.Logger) *Driver {
	return &Driver{
		Runtime: NewCLI(runtimePath),
		PidDir:  DefaultPidDir,
		Timeout: DefaultTimeout,
		Stdio:   runc.NewSTDIO,
		Logger:  logger,
	}
}

func (d *Driver) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.Default()
	}

	return d.Logger
}

func (d *Driver) stdio() (runc.IO, error) {
	if d.Stdio == nil {
		return runc.NewSTDIO()
	}

	return d.Stdio()
}

func (d *Driver) timeout() time.Duration {
	if d.Timeout == 0 {
		return DefaultTimeout
	}

	return d.Timeout
}

// Boot brings the given bundles into running state in order.
//
// Bundles without existing directory are skipped. Failures of a bundle are
// recorded in the returned [Status] and the next bundle is processed.
func (d *Driver) Boot(ctx context.Context, apps []config.App) Status {
	var status Status

	logger := d.logger()

	if err := os.MkdirAll(d.PidDir, 0o755); err != nil {
		logger.Error("create pid directory", slog.Any("error", err))
	}

	for _, app := range apps {
		err := d.BootBundle(ctx, app)

		switch {
		case err == nil:
			logger.Info("bundle started", slog.String("name", app.Name))
			status.Started = append(status.Started, app.Name)
		case errors.Is(err, ErrBundleMissing):
			logger.Warn("skip bundle", slog.String("name", app.Name), slog.Any("error", err))
			status.Skipped = append(status.Skipped, app.Name)
		default:
			logger.Error("bundle failed", slog.String("name", app.Name), slog.Any("error", err))
			status.fail(app.Name, err)
		}
	}

	return status
}

// BootBundle creates and starts a single bundle.
func (d *Driver) BootBundle(ctx context.Context, app config.App) error {
	logger := d.logger().With(slog.String("name", app.Name))

	if app.Path == "" {
		return fmt.Errorf("%w: no path configured", ErrBundleMissing)
	}

	spec, err := LoadBundle(app.Path)
	if err != nil {
		return err
	}

	logger.Debug("bundle loaded",
		slog.String("oci_version", spec.Version),
		slog.String("root", spec.Root.Path))

	pidFile := filepath.Join(d.PidDir, app.Name)

	stdio, err := d.stdio()
	if err != nil {
		return fmt.Errorf("create: stdio: %w", err)
	}
	defer stdio.Close()

	// Without IO the output of the runtime is captured through a pipe the
	// container init keeps open, so create would not return until the
	// container exits.
	err = d.run(ctx, "create", func(ctx context.Context) error {
		return d.Runtime.Create(ctx, app.Name, app.Path, &runc.CreateOpts{
			IO:      stdio,
			PidFile: pidFile,
		})
	})
	if err != nil {
		return err
	}

	pid, err := ReadPidFile(pidFile)
	if err != nil {
		return err
	}

	logger.Debug("container created", slog.Int("pid", int(pid)))

	err = d.run(ctx, "start", func(ctx context.Context) error {
		return d.Runtime.Start(ctx, app.Name)
	})
	if err != nil {
		return err
	}

	if err := os.Remove(pidFile); err != nil {
		logger.Warn("remove pid file", slog.Any("error", err))
	}

	return nil
}

// Teardown drives the named containers to deleted state. Containers the
// runtime does not know are ignored. It returns the number of containers
// processed.
func (d *Driver) Teardown(ctx context.Context, names ...string) (int, error) {
	containers, err := d.list(ctx)
	if err != nil {
		return 0, err
	}

	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		wanted[name] = true
	}

	filtered := make([]Container, 0, len(names))

	for _, container := range containers {
		if wanted[container.ID] {
			filtered = append(filtered, container)
		}
	}

	d.cleanup(ctx, filtered)

	return len(filtered), nil
}

// Cleanup deletes all stopped containers and kills and deletes all running
// ones. Errors of single containers are logged and the next container is
// processed.
func (d *Driver) Cleanup(ctx context.Context) error {
	containers, err := d.list(ctx)
	if err != nil {
		return err
	}

	d.cleanup(ctx, containers)

	return nil
}

func (d *Driver) list(ctx context.Context) ([]Container, error) {
	var containers []Container

	err := d.run(ctx, "list", func(ctx context.Context) error {
		var err error

		containers, err = d.Runtime.List(ctx)

		return err
	})

	return containers, err
}

func (d *Driver) cleanup(ctx context.Context, containers []Container) {
	for _, container := range containers {
		logger := d.logger().With(
			slog.String("id", container.ID),
			slog.String("state", container.State),
		)

		switch container.State {
		case StateStopped:
			if err := d.delete(ctx, container.ID); err != nil {
				logger.Error("delete container", slog.Any("error", err))
				continue
			}
		case StateRunning:
			err := d.run(ctx, "kill", func(ctx context.Context) error {
				return d.Runtime.Kill(ctx, container.ID, int(unix.SIGKILL), nil)
			})
			if err != nil {
				logger.Error("kill container", slog.Any("error", err))
				continue
			}

			if err := d.delete(ctx, container.ID); err != nil {
				logger.Error("delete container", slog.Any("error", err))
				continue
			}
		default:
			logger.Debug("ignore container")
			continue
		}

		logger.Info("container deleted")
	}
}

// delete is forced, since a killed container may not have exited yet.
func (d *Driver) delete(ctx context.Context, id string) error {
	return d.run(ctx, "delete", func(ctx context.Context) error {
		return d.Runtime.Delete(ctx, id, &runc.DeleteOpts{Force: true})
	})
}

// run calls fn with a context bounded by the driver timeout. If the timeout
// is hit, the returned error wraps [ErrTimeout].
func (d *Driver) run(ctx context.Context, op string, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, d.timeout())
	defer cancel()

	err := fn(ctx)
	if err == nil {
		return nil
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w after %s: %w", op, ErrTimeout, d.timeout(), err)
	}

	return fmt.Errorf("%s: %w", op, err)
}
