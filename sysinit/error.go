// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sysinit

import (
	"errors"
	"fmt"
)

var (
	// ErrFatal marks errors that leave the system in a state that is unsafe
	// to continue from. [Run] stops at the first error wrapping it.
	ErrFatal = errors.New("fatal bring-up failure")

	// ErrPanic is returned if a [Func] panicked.
	ErrPanic = errors.New("function panicked")

	// ErrNotPidOne is returned by steps that only PID 1 can run.
	ErrNotPidOne = errors.New("process does not have ID 1")
)

// OptionalMountError is a collection of errors that occurred for mount points
// with [SeverityBestEffort].
type OptionalMountError []error

func (e OptionalMountError) Error() string {
	return fmt.Sprintf("optional mount errors: %q", []error(e))
}

func (OptionalMountError) Is(other error) bool {
	_, ok := other.(OptionalMountError)
	return ok
}

func (e OptionalMountError) Unwrap() []error {
	return e
}

// MountError is a collection of errors that occurred for mount points with
// [SeverityRequired]. The system is degraded but still usable.
type MountError []error

func (e MountError) Error() string {
	return fmt.Sprintf("required mount errors: %q", []error(e))
}

func (MountError) Is(other error) bool {
	_, ok := other.(MountError)
	return ok
}

func (e MountError) Unwrap() []error {
	return e
}

func fatal(err error) error {
	return fmt.Errorf("%w: %w", ErrFatal, err)
}
