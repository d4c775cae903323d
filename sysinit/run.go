// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sysinit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
)

// Func is a function run by [Run].
type Func func(ctx context.Context, state *State) error

// Run runs the given functions in the order given.
//
// An error returned by a [Func] that wraps [ErrFatal] stops the run and is
// returned. Any other error is logged, recorded in the [State] and the next
// [Func] runs. Panics are recovered from and treated as fatal, since the
// system is in an unknown state afterwards.
//
// A typical bring-up looks like:
//
//	err := Run(ctx, state,
//		WithPivot(env, logger),
//		WithTopology(DefaultTopology(logger)),
//		WithHotplug(DefaultHotplug(logger)),
//		WithLoopback(),
//		func(ctx context.Context, state *State) error {
//			return startWorkloads(ctx)
//		},
//	)
func Run(ctx context.Context, state *State, funcs ...Func) error {
	for _, fn := range funcs {
		err := runFunc(ctx, state, fn)
		if err == nil {
			continue
		}

		if errors.Is(err, ErrFatal) {
			return err
		}

		slog.Warn("bring-up step failed", slog.Any("error", err))
		state.Fail(err)
	}

	return nil
}

func runFunc(ctx context.Context, state *State, fn Func) (err error) {
	defer func() {
		rec := recover()
		if rec == nil {
			return
		}

		if recoveredErr, ok := rec.(error); ok {
			err = fmt.Errorf("%w: %w: %w", ErrFatal, ErrPanic, recoveredErr)
		} else {
			err = fmt.Errorf("%w: %w: %v", ErrFatal, ErrPanic, rec)
		}
	}()

	return fn(ctx, state)
}

// IsPidOne returns true if the running process has PID 1.
func IsPidOne() bool {
	return os.Getpid() == 1
}
