// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package logging sets up the process wide structured logger. Records go to
// the console and, once attached, to a log file.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	slogmulti "github.com/samber/slog-multi"
	"github.com/ukama/microinit/sysinit"
)

// DefaultFile is the log file attached once /var is mounted.
const DefaultFile = "/var/log/init.log"

// FileLevel is the minimum level written to the log file.
const FileLevel = slog.LevelDebug

// Logging is the process wide logger with a console and a file sink.
type Logging struct {
	Logger *slog.Logger

	file *fileWriter
}

// Setup creates the logger, writing records of at least the given level to
// console, and sets it as [slog.Default].
func Setup(console io.Writer, level slog.Leveler) *Logging {
	file := &fileWriter{}

	logger := slog.New(slogmulti.Fanout(
		slog.NewTextHandler(console, handlerOptions(level)),
		slog.NewTextHandler(file, handlerOptions(FileLevel)),
	))

	slog.SetDefault(logger)

	return &Logging{
		Logger: logger,
		file:   file,
	}
}

// AttachFile opens the file at path for appending and starts duplicating
// records to it. A previously attached file is closed.
func (l *Logging) AttachFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}

	return l.file.swap(file)
}

// Close detaches and closes the log file, if any.
func (l *Logging) Close() error {
	return l.file.swap(nil)
}

// LevelName returns the name of the level, including the custom trace
// level.
func LevelName(level slog.Level) string {
	if level == sysinit.LevelTrace {
		return "TRACE"
	}

	return level.String()
}

func handlerOptions(level slog.Leveler) *slog.HandlerOptions {
	return &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			if len(groups) > 0 || attr.Key != slog.LevelKey {
				return attr
			}

			level, ok := attr.Value.Any().(slog.Level)
			if !ok {
				return attr
			}

			return slog.String(slog.LevelKey, LevelName(level))
		},
	}
}

// fileWriter discards everything until a file is set.
type fileWriter struct {
	mu   sync.Mutex
	file *os.File
}

func (w *fileWriter) Write(data []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return len(data), nil
	}

	return w.file.Write(data) //nolint:wrapcheck
}

func (w *fileWriter) swap(file *os.File) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	old := w.file
	w.file = file

	if old == nil {
		return nil
	}

	return old.Close() //nolint:wrapcheck
}
