// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

var (
	// ErrConfigMissing is returned if no config file exists.
	ErrConfigMissing = errors.New("config missing")

	// ErrUnsupportedFormat is returned for unknown config file extensions.
	ErrUnsupportedFormat = errors.New("unsupported config format")
)

// Format is a config file format.
type Format string

// Supported formats.
const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFromPath returns the [Format] for the extension of the given path.
func FormatFromPath(path string) (Format, error) {
	switch filepath.Ext(path) {
	case ".yml", ".yaml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// document is the on-disk layout. The bundle lists have an alternative
// name each.
type document struct {
	Init           []App `toml:"init"            yaml:"init"`
	InitBundle     []App `toml:"init_bundle"     yaml:"init_bundle"`
	OnBoot         []App `toml:"onboot"          yaml:"onboot"`
	ShutdownBundle []App `toml:"shutdown_bundle" yaml:"shutdown_bundle"`
	OnShutdown     []App `toml:"onshutdown"      yaml:"onshutdown"`
}

func (d document) config() Config {
	return Config{
		Init:           d.Init,
		InitBundle:     append(d.InitBundle, d.OnBoot...),
		ShutdownBundle: append(d.ShutdownBundle, d.OnShutdown...),
	}
}

// Parse reads a config document of the given [Format].
func Parse(reader io.Reader, format Format) (Config, error) {
	var doc document

	switch format {
	case FormatYAML:
		err := yaml.NewDecoder(reader).Decode(&doc)
		if err != nil && !errors.Is(err, io.EOF) {
			return Config{}, fmt.Errorf("decode yaml: %w", err)
		}
	case FormatTOML:
		_, err := toml.NewDecoder(reader).Decode(&doc)
		if err != nil {
			return Config{}, fmt.Errorf("decode toml: %w", err)
		}
	default:
		return Config{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	return doc.config(), nil
}

// ParseFile reads the config file at the given path. The format is
// determined by the file extension.
func ParseFile(path string) (Config, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return Config{}, err
	}

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("%w: %w", ErrConfigMissing, err)
		}

		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	cfg, err := Parse(file, format)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}

	return cfg, nil
}
