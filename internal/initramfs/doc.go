// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package initramfs builds the appliance initramfs: a newc CPIO archive with
// the init binary, its invocation name links, the hook directories, the
// workload config and any additional files.
package initramfs
