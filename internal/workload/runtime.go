// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package workload

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"

	runc "github.com/containerd/go-runc"
)

// Container states as reported by the runtime.
const (
	StateCreated = "created"
	StateRunning = "running"
	StateStopped = "stopped"
	StatePaused  = "paused"
	StateUnknown = "unknown"
)

// Container is a single row of the runtime container list.
type Container struct {
	ID    string
	State string
}

// Runtime is the subset of the OCI runtime CLI the driver uses.
type Runtime interface {
	Create(ctx context.Context, id, bundle string, opts *runc.CreateOpts) error
	Start(ctx context.Context, id string) error
	Kill(ctx context.Context, id string, sig int, opts *runc.KillOpts) error
	Delete(ctx context.Context, id string, opts *runc.DeleteOpts) error
	List(ctx context.Context) ([]Container, error)
}

// CLI is the [Runtime] backed by an OCI runtime binary like crun or runc.
type CLI struct {
	*runc.Runc
}

var _ Runtime = CLI{}

// NewCLI returns a [CLI] for the runtime binary at the given path.
func NewCLI(path string) CLI {
	return CLI{Runc: &runc.Runc{Command: path}}
}

// List returns the containers known to the runtime. The plain text table is
// used, as not all runtimes support JSON output.
func (c CLI) List(ctx context.Context) ([]Container, error) {
	var stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, c.Command, "list")
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%s list: %w: %s", c.Command, err, strings.TrimSpace(stderr.String()))
	}

	return ParseList(bytes.NewReader(out), nil)
}

// ParseList parses the text table printed by the runtime list command. The
// first column is the container ID and the third its state.
//
// Blank lines and the header row are skipped. Rows with less than three
// columns are logged and skipped.
func ParseList(reader io.Reader, logger *slog.Logger) ([]Container, error) {
	if logger == nil {
		logger = slog.Default()
	}

	containers := []Container{}
	scanner := bufio.NewScanner(reader)

	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())

		switch {
		case len(fields) == 0:
			continue
		case len(fields) < 3:
			logger.Warn("skip malformed container row", slog.String("row", scanner.Text()))
			continue
		case fields[0] == "ID" || fields[0] == "NAME":
			continue
		}

		containers = append(containers, Container{
			ID:    fields[0],
			State: fields[2],
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan container list: %w", err)
	}

	return containers, nil
}
