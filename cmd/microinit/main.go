// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Command microinit is the multi-call init binary of the appliance. Link it
// as /init, /sbin/init, /sbin/rc.init, /sbin/rc.shutdown, /sbin/rc.reboot and
// /usr/bin/sys.
package main

import (
	"context"
	"os"

	"github.com/ukama/microinit/internal/cmd"
)

func main() {
	os.Exit(cmd.Main(context.Background(), os.Args, cmd.IO{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}))
}
