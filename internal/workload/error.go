// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package workload

import (
	"errors"
	"strings"
)

var (
	// ErrTimeout is returned if a runtime invocation or the engine startup
	// exceeds its time limit.
	ErrTimeout = errors.New("timeout")

	// ErrBundleMissing is returned if the bundle directory does not exist.
	ErrBundleMissing = errors.New("bundle missing")

	// ErrInvalidBundle is returned if the bundle config can not be used.
	ErrInvalidBundle = errors.New("invalid bundle")

	// ErrInvalidPid is returned if a pid file does not contain a positive
	// 32 bit decimal number.
	ErrInvalidPid = errors.New("invalid pid")
)

// Failure is the failure of a single bundle.
type Failure struct {
	Name string
	Err  error
}

func (f Failure) Error() string {
	return f.Name + ": " + f.Err.Error()
}

func (f Failure) Unwrap() error {
	return f.Err
}

// Status aggregates the results of processing multiple bundles.
type Status struct {
	Started  []string
	Skipped  []string
	Failures []Failure
}

// OK returns true if no bundle failed.
func (s Status) OK() bool {
	return len(s.Failures) == 0
}

// Err returns the failures joined or nil if there are none.
func (s Status) Err() error {
	if s.OK() {
		return nil
	}

	errs := make([]error, 0, len(s.Failures))
	for _, failure := range s.Failures {
		errs = append(errs, failure)
	}

	return errors.Join(errs...)
}

// FailedNames returns the names of the failed bundles.
func (s Status) FailedNames() []string {
	names := make([]string, 0, len(s.Failures))
	for _, failure := range s.Failures {
		names = append(names, failure.Name)
	}

	return names
}

func (s Status) String() string {
	return "started=[" + strings.Join(s.Started, ",") +
		"] skipped=[" + strings.Join(s.Skipped, ",") +
		"] failed=[" + strings.Join(s.FailedNames(), ",") + "]"
}

func (s *Status) fail(name string, err error) {
	s.Failures = append(s.Failures, Failure{Name: name, Err: err})
}
