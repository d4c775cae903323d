// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package config reads the workload configuration of the appliance.
package config

import (
	"slices"
)

// Well known names of [App] entries in the init list.
const (
	NameRuntime = "oci-runtime"
	NameEngine  = "microCE"
)

// Defaults used if the respective [App] has no path configured.
const (
	DefaultRuntimePath = "/usr/bin/crun"
	DefaultEnginePath  = "/usr/bin/microCE.d"
)

// App is a single entry of a config list.
type App struct {
	Name    string `toml:"name"    yaml:"name"`
	Image   string `toml:"image"   yaml:"image,omitempty"`
	Version string `toml:"version" yaml:"version"`
	Path    string `toml:"path"    yaml:"path,omitempty"`
}

// Config is the parsed configuration document.
type Config struct {
	// Init contains system roles like the OCI runtime and the container
	// engine.
	Init []App

	// InitBundle contains the bundles started at boot in order.
	InitBundle []App

	// ShutdownBundle contains the bundles torn down at shutdown.
	ShutdownBundle []App
}

// Clone returns a deep copy.
func (c Config) Clone() Config {
	return Config{
		Init:           slices.Clone(c.Init),
		InitBundle:     slices.Clone(c.InitBundle),
		ShutdownBundle: slices.Clone(c.ShutdownBundle),
	}
}

// Lookup returns the [App] with the given name from the init list.
func (c Config) Lookup(name string) (App, bool) {
	idx := slices.IndexFunc(c.Init, func(app App) bool {
		return app.Name == name
	})
	if idx < 0 {
		return App{}, false
	}

	return c.Init[idx], true
}

// RuntimePath returns the path of the OCI runtime binary.
func (c Config) RuntimePath() string {
	return c.pathOr(NameRuntime, DefaultRuntimePath)
}

// EnginePath returns the path of the container engine binary.
func (c Config) EnginePath() string {
	return c.pathOr(NameEngine, DefaultEnginePath)
}

// InitBundles returns the init bundles with the given names in config order.
// All are returned if no names are given.
func (c Config) InitBundles(names ...string) []App {
	return filterApps(c.InitBundle, names)
}

// ShutdownBundles returns the shutdown bundles with the given names in config
// order. All are returned if no names are given.
func (c Config) ShutdownBundles(names ...string) []App {
	return filterApps(c.ShutdownBundle, names)
}

func (c Config) pathOr(name, fallback string) string {
	app, exists := c.Lookup(name)
	if !exists || app.Path == "" {
		return fallback
	}

	return app.Path
}

func filterApps(apps []App, names []string) []App {
	if len(names) == 0 {
		return slices.Clone(apps)
	}

	filtered := []App{}

	for _, app := range apps {
		if slices.Contains(names, app.Name) {
			filtered = append(filtered, app)
		}
	}

	return filtered
}
