// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package workload

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	specs "github.com/opencontainers/runtime-spec/specs-go"
)

// BundleConfigFile is the name of the OCI config file inside a bundle.
const BundleConfigFile = "config.json"

// LoadBundle checks that the bundle directory exists and reads its OCI
// config.
//
// [ErrBundleMissing] is returned if the directory does not exist.
// [ErrInvalidBundle] is returned if the config can not be parsed or lacks
// the fields required to create a container.
func LoadBundle(path string) (*specs.Spec, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrBundleMissing, path)
		}

		return nil, fmt.Errorf("stat bundle: %w", err)
	}

	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s: not a directory", ErrBundleMissing, path)
	}

	data, err := os.ReadFile(filepath.Join(path, BundleConfigFile))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBundle, err)
	}

	var spec specs.Spec

	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidBundle, BundleConfigFile, err)
	}

	switch {
	case spec.Version == "":
		return nil, fmt.Errorf("%w: no ociVersion", ErrInvalidBundle)
	case spec.Root == nil || spec.Root.Path == "":
		return nil, fmt.Errorf("%w: no root path", ErrInvalidBundle)
	case spec.Process == nil || len(spec.Process.Args) == 0:
		return nil, fmt.Errorf("%w: no process args", ErrInvalidBundle)
	}

	return &spec, nil
}
