// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package workload drives OCI bundles through an OCI runtime CLI and starts
// the container engine daemon.
//
// Bundles are processed strictly in configuration order. Every runtime
// invocation is bounded by a timeout. Failures of single bundles are
// collected in a [Status] and never stop the processing of the remaining
// ones.
package workload
