// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package supervisor

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"github.com/ukama/microinit/sysinit"
	"golang.org/x/sys/unix"
)

// Signals handled by the [Supervisor].
var Signals = []os.Signal{
	unix.SIGCHLD,
	unix.SIGUSR1,
	unix.SIGUSR2,
	unix.SIGPWR,
	unix.SIGTERM,
	unix.SIGINT,
}

// ActionFor returns the shutdown action requested by the given signal. False
// is returned for signals that do not request a shutdown.
func ActionFor(sig os.Signal) (sysinit.ShutdownAction, bool) {
	switch sig {
	case unix.SIGUSR1, unix.SIGUSR2, unix.SIGPWR:
		return sysinit.ActionPoweroff, true
	case unix.SIGTERM, unix.SIGINT:
		return sysinit.ActionReboot, true
	default:
		return 0, false
	}
}

// Supervisor reaps children until a shutdown is requested.
type Supervisor struct {
	// Reap is called on every SIGCHLD. Defaults to [Reap].
	Reap func(logger *slog.Logger) int

	// Shutdown is called once a shutdown signal arrives.
	Shutdown func(ctx context.Context, action sysinit.ShutdownAction) error

	Logger *slog.Logger
}

// Run installs the signal handlers and runs [Supervisor.Loop].
func (s Supervisor) Run(ctx context.Context) error {
	signals := make(chan os.Signal, 16)

	signal.Notify(signals, Signals...)
	defer signal.Stop(signals)

	return s.Loop(ctx, signals)
}

// Loop handles the received signals until a shutdown is requested or the
// context is done. Zombies that exist before the first signal arrives are
// reaped right away.
func (s Supervisor) Loop(ctx context.Context, signals <-chan os.Signal) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}

	reap := s.Reap
	if reap == nil {
		reap = Reap
	}

	reap(logger)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case sig := <-signals:
			if sig == unix.SIGCHLD {
				reap(logger)
				continue
			}

			action, ok := ActionFor(sig)
			if !ok {
				continue
			}

			logger.Info("shutdown requested",
				slog.String("signal", sig.String()),
				slog.String("action", action.String()))

			return s.Shutdown(ctx, action)
		}
	}
}
