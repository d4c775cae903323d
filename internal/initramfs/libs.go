// SPDX-FileCopyrightText: 2024 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package initramfs

import (
	"bufio"
	"bytes"
	"context"
	"debug/elf"
	"errors"
	"fmt"
	"io"
	"maps"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

const lddTimeout = 5 * time.Second

// LibResolver returns the absolute paths of the shared objects the file at
// path needs at run time.
type LibResolver func(ctx context.Context, path string) ([]string, error)

var _ LibResolver = Ldd

// Ldd gathers the required shared objects of the ELF file with the given
// path by running "ldd". Files that are not dynamically linked ELF files
// have none.
func Ldd(ctx context.Context, path string) ([]string, error) {
	dynamic, err := isDynamicELF(path)
	if err != nil || !dynamic {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, lddTimeout)
	defer cancel()

	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, "ldd", path)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ldd: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	return parseLdd(&stdout), nil
}

// isDynamicELF returns true if the file is an ELF file with an interpreter.
func isDynamicELF(path string) (bool, error) {
	file, err := elf.Open(path)
	if err != nil {
		var formatErr *elf.FormatError
		if errors.As(err, &formatErr) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return false, nil
		}

		return false, fmt.Errorf("open elf: %w", err)
	}
	defer file.Close()

	for _, prog := range file.Progs {
		if prog.Type == elf.PT_INTERP {
			return true, nil
		}
	}

	return false, nil
}

// parseLdd returns the paths of all shared objects that are real files. So,
// everything except vdso.
func parseLdd(output io.Reader) []string {
	var paths []string

	scanner := bufio.NewScanner(output)
	for scanner.Scan() {
		var (
			name, path string
			start      uint
		)

		// From glibc rtld.c: _dl_printf ("\t%s => %s (0x%0*zx)\n", ...
		_, err := fmt.Sscanf(scanner.Text(), "\t%s => %s (0x%x)", &name, &path, &start)
		if err != nil {
			// From glibc rtld.c: _dl_printf ("\t%s (0x%0*zx)\n", ...
			_, _ = fmt.Sscanf(scanner.Text(), "\t%s (0x%x)", &name, &start)
		}

		switch {
		case filepath.IsAbs(path):
			paths = append(paths, path)
		case filepath.IsAbs(name):
			paths = append(paths, name)
		}
	}

	return paths
}

// AddRequiredLibs adds the shared objects required by the regular files of
// the [Image] at their host paths.
func (i *Image) AddRequiredLibs(ctx context.Context, resolve LibResolver) error {
	var sources []string

	for _, node := range i.fileTree.All() {
		if node.Type == TreeNodeTypeRegular {
			sources = append(sources, node.RelatedPath)
		}
	}

	libs := map[string]bool{}

	for _, source := range sources {
		paths, err := resolve(ctx, source)
		if err != nil {
			return fmt.Errorf("resolve libs for %s: %w", source, err)
		}

		for _, path := range paths {
			libs[filepath.Clean(path)] = true
		}
	}

	for _, lib := range slices.Sorted(maps.Keys(libs)) {
		err := i.AddFile(lib, lib)
		if err != nil && !errors.Is(err, ErrTreeNodeExists) {
			return err
		}
	}

	return nil
}
