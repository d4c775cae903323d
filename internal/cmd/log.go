// SPDX-FileCopyrightText: 2024 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"context"
	"io"
	"log/slog"

	"github.com/ukama/microinit/internal/logging"
	"github.com/ukama/microinit/sysinit"
)

func setupLogging(writer io.Writer, debug bool) *logging.Logging {
	level := slog.LevelWarn
	if debug {
		level = sysinit.LevelTrace
	}

	return logging.Setup(writer, level)
}

// attachLogFile returns a setup [sysinit.Func] that starts duplicating log
// records into the log file. It must run after /var is mounted.
func attachLogFile(logs *logging.Logging, path string) sysinit.Func {
	return func(_ context.Context, state *sysinit.State) error {
		if err := logs.AttachFile(path); err != nil {
			return err
		}

		state.Cleanup(logs.Close)

		return nil
	}
}
