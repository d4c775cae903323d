// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Command mkinitramfs writes the appliance initramfs archive.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/ukama/microinit/internal/initramfs"
)

func run(args []string, stderr io.Writer) error {
	cfg, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	image, err := initramfs.New(cfg.init)
	if err != nil {
		return fmt.Errorf("new image: %w", err)
	}

	if cfg.config != "" {
		if err := image.AddConfig(cfg.config); err != nil {
			return fmt.Errorf("add config: %w", err)
		}
	}

	for _, file := range cfg.files {
		if err := image.AddFileSpec(file); err != nil {
			return fmt.Errorf("add file: %w", err)
		}
	}

	if cfg.libs {
		if err := image.AddRequiredLibs(context.Background(), initramfs.Ldd); err != nil {
			return fmt.Errorf("add libs: %w", err)
		}
	}

	return image.WriteToFile(cfg.output)
}

func main() {
	err := run(os.Args, os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}

		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
