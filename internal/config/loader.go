// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"errors"
	"log/slog"
	"os"
	"sync"
)

// EnvPath is the environment variable that overrides the config file path.
const EnvPath = "MICROINIT_CONFIG"

// DefaultPaths are the config file locations in order of preference.
var DefaultPaths = []string{
	"/etc/uInit.yml",
	"/etc/microInit.toml",
}

// Paths returns the config file candidates. If [EnvPath] is set, only its
// value is returned.
func Paths() []string {
	if path := os.Getenv(EnvPath); path != "" {
		return []string{path}
	}

	return DefaultPaths
}

// Loader reads the configuration once and returns copies of it on every
// call of [Loader.Get].
type Loader struct {
	load func() (Config, error)
}

// NewLoader returns a [Loader] that tries the given paths in order. The
// first existing file is used. If none exists, a warning is logged and the
// empty [Config] is used.
func NewLoader(logger *slog.Logger, paths ...string) *Loader {
	if logger == nil {
		logger = slog.Default()
	}

	return &Loader{
		load: sync.OnceValues(func() (Config, error) {
			for _, path := range paths {
				cfg, err := ParseFile(path)
				if errors.Is(err, ErrConfigMissing) {
					logger.Debug("config not found", slog.String("path", path))
					continue
				}

				if err != nil {
					return Config{}, err
				}

				logger.Info("config loaded",
					slog.String("path", path),
					slog.Int("init_bundles", len(cfg.InitBundle)),
					slog.Int("shutdown_bundles", len(cfg.ShutdownBundle)),
				)

				return cfg, nil
			}

			logger.Warn("no config found, using defaults", slog.Any("paths", paths))

			return Config{}, nil
		}),
	}
}

// Get returns the loaded [Config]. The file is only read on the first call.
func (l *Loader) Get() (Config, error) {
	cfg, err := l.load()
	return cfg.Clone(), err
}
