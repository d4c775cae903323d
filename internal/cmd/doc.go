// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package cmd provides the entry point of the multi-call init binary. The
// role is selected by the name the binary is invoked with: init and preInit
// bring the system up, rc.init sets up an already running userspace,
// rc.shutdown and rc.reboot take it down and sys manages workloads.
package cmd
