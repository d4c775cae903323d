// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
)

var errMissingFlag = errors.New("missing required flag")

type flags struct {
	output string
	init   string
	config string
	files  []string
	libs   bool
}

func parseFlags(args []string, output io.Writer) (*flags, error) {
	cfg := &flags{}

	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)
	fs.SetOutput(output)

	fs.StringVar(
		&cfg.output,
		"o",
		"",
		"path of the archive to write (required)",
	)

	fs.StringVar(
		&cfg.init,
		"init",
		"",
		"path of the init binary (required)",
	)

	fs.StringVar(
		&cfg.config,
		"config",
		"",
		"workload config file, added as /etc/uInit.yml or /etc/microInit.toml by extension",
	)

	fs.Func(
		"file",
		"additional file as source[:dest], may be repeated",
		func(s string) error {
			cfg.files = append(cfg.files, s)
			return nil
		},
	)

	fs.BoolVar(
		&cfg.libs,
		"libs",
		false,
		"add the shared objects required by the added files",
	)

	if err := fs.Parse(args[1:]); err != nil {
		return nil, err //nolint:wrapcheck
	}

	required := []struct {
		name  string
		value string
	}{
		{"o", cfg.output},
		{"init", cfg.init},
	}

	for _, req := range required {
		if req.value == "" {
			fs.Usage()
			return nil, fmt.Errorf("%w: -%s", errMissingFlag, req.name)
		}
	}

	return cfg, nil
}
