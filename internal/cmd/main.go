// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ukama/microinit/sysinit"
)

// Names the binary is invoked with.
const (
	NameInit    = "init"
	NamePreInit = "preInit"
	NameRCInit  = "rc.init"
	NameSys     = "sys"

	// NameBinary is the name of the binary itself. It takes the role name
	// as first argument.
	NameBinary = "microinit"
)

// Names lists all roles in the order they are shown in the usage.
var Names = []string{
	NameInit,
	NamePreInit,
	NameRCInit,
	sysinit.NameShutdown,
	sysinit.NameReboot,
	NameSys,
}

// IO provides input and output details for the command.
type IO struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Main is the main entry point of the binary. It dispatches on the base name
// of args[0] and returns the exit code.
func Main(ctx context.Context, args []string, cfg IO) int {
	name, args := role(args)

	switch name {
	case NameInit, NamePreInit:
		return runInit(ctx, args, cfg)
	case NameRCInit:
		return runRCInit(ctx, cfg)
	case sysinit.NameShutdown, sysinit.NameReboot:
		return runShutdown(ctx, args, cfg)
	case NameSys:
		return runSys(ctx, args, cfg)
	default:
		printUsage(cfg.Stderr, name)
		return 1
	}
}

// role returns the role name and the arguments starting with the role name.
// The binary invoked by its own name shifts the arguments by one.
func role(args []string) (string, []string) {
	if len(args) == 0 {
		return "", nil
	}

	name := filepath.Base(args[0])
	if name == NameBinary && len(args) > 1 {
		args = args[1:]
		name = filepath.Base(args[0])
	}

	return name, args
}

func printUsage(w io.Writer, name string) {
	fmt.Fprintf(w, "%s: %q\n\n", ErrUnknownCommand, name)
	fmt.Fprintf(w, "Usage: %s <command> [args...]\n", NameBinary)
	fmt.Fprintf(w, "   or: <command> [args...] (via link named like the command)\n\n")
	fmt.Fprintf(w, "Commands: %s\n", strings.Join(Names, ", "))
}
