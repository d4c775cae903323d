// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package config_test

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukama/microinit/internal/config"
)

func TestLoader_Get(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "uInit.yml")
	tomlPath := filepath.Join(dir, "microInit.toml")

	require.NoError(t, os.WriteFile(tomlPath, []byte(testTOML), 0o644))

	loader := config.NewLoader(nil, yamlPath, tomlPath)

	first, err := loader.Get()
	require.NoError(t, err)
	assert.Equal(t, "/opt/bin/microCE.d", first.EnginePath(), "toml fallback")

	// Changes after the first read are not observed.
	require.NoError(t, os.WriteFile(yamlPath, []byte(testYAML), 0o644))

	first.InitBundle[0].Name = "modified"

	second, err := loader.Get()
	require.NoError(t, err)
	assert.Equal(t, "svc", second.InitBundle[0].Name, "copies must be independent")
	assert.Equal(t, "/opt/bin/microCE.d", second.EnginePath())
}

func TestLoader_Get_Missing(t *testing.T) {
	var logOut bytes.Buffer

	logger := slog.New(slog.NewTextHandler(&logOut, nil))
	loader := config.NewLoader(logger, filepath.Join(t.TempDir(), "uInit.yml"))

	cfg, err := loader.Get()
	require.NoError(t, err)

	assert.Empty(t, cfg.InitBundle)
	assert.Equal(t, config.DefaultRuntimePath, cfg.RuntimePath())
	assert.Contains(t, logOut.String(), "level=WARN")
}

func TestLoader_Get_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "uInit.yml")
	require.NoError(t, os.WriteFile(path, []byte("init: [}"), 0o644))

	_, err := config.NewLoader(nil, path).Get()
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
}

func TestPaths(t *testing.T) {
	t.Setenv(config.EnvPath, "")
	assert.Equal(t, config.DefaultPaths, config.Paths())

	t.Setenv(config.EnvPath, "/tmp/test.yml")
	assert.Equal(t, []string{"/tmp/test.yml"}, config.Paths())
}
