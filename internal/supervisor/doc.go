// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package supervisor implements the long running part of init: adopting
// orphaned processes as child subreaper, reaping zombies and driving the
// system shutdown.
package supervisor
