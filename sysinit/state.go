// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sysinit

import (
	"errors"
	"log/slog"
	"slices"
)

// CleanupFunc is run by [State.DoCleanup].
type CleanupFunc func() error

// State is passed through all [Func]s run by [Run]. It collects non-fatal
// failures and cleanup functions.
type State struct {
	cleanupFns []CleanupFunc
	failures   []error
}

// Cleanup registers a function that is run by [State.DoCleanup]. Functions
// are run in reverse order of registration.
func (s *State) Cleanup(fn CleanupFunc) {
	s.cleanupFns = append(s.cleanupFns, fn)
}

// Fail records a non-fatal failure.
func (s *State) Fail(err error) {
	if err != nil {
		s.failures = append(s.failures, err)
	}
}

// Failures returns all recorded non-fatal failures.
func (s *State) Failures() []error {
	return slices.Clone(s.failures)
}

// Err returns all recorded failures joined or nil if there are none.
func (s *State) Err() error {
	return errors.Join(s.failures...)
}

// DoCleanup runs all registered cleanup functions in reverse order and
// forgets them. Errors are logged.
func (s *State) DoCleanup(logger *slog.Logger) {
	logger = loggerOrDefault(logger)
	fns := s.cleanupFns
	s.cleanupFns = nil

	slices.Reverse(fns)

	for _, fn := range fns {
		if err := fn(); err != nil {
			logger.Error("cleanup", slog.Any("error", err))
		}
	}
}
