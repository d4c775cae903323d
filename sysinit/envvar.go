// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sysinit

import (
	"context"
	"fmt"
	"os"
)

// EnvVars is a map of environment variable values by name.
type EnvVars map[string]string

// DefaultEnv returns the environment inherited by hooks and workloads. The
// kernel starts init with an almost empty environment.
func DefaultEnv() EnvVars {
	return EnvVars{
		"PATH": "/usr/local/sbin:/usr/local/bin:/usr/sbin:/usr/bin:/sbin:/bin",
		"HOME": "/root",
		"TERM": "linux",
	}
}

// SetEnv sets the given [EnvVars] in the environment. Variables already set
// are kept.
func SetEnv(envVars EnvVars) error {
	for key, value := range sortedMap(envVars) {
		if _, exists := os.LookupEnv(key); exists {
			continue
		}

		if err := os.Setenv(key, value); err != nil {
			return fmt.Errorf("set %s: %w", key, err)
		}
	}

	return nil
}

// WithEnv returns a setup [Func] that wraps [SetEnv] and can be used with
// [Run].
func WithEnv(envVars EnvVars) Func {
	return func(_ context.Context, _ *State) error {
		return SetEnv(envVars)
	}
}
