// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package initramfs

import (
	"io"
	"io/fs"
)

// Writer defines the initramfs archive writer interface.
type Writer interface {
	WriteRegular(path string, source io.Reader, size int64, mode fs.FileMode) error
	WriteDirectory(path string, mode fs.FileMode) error
	WriteLink(path, target string) error
}
