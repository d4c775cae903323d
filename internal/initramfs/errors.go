// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package initramfs

import (
	"errors"
)

var (
	// ErrTreeNodeNotDir is returned if a tree node is supposed to be a
	// directory but is not.
	ErrTreeNodeNotDir = errors.New("tree node is not a directory")

	// ErrTreeNodeNotExists is returned if a tree node that is looked up does
	// not exist.
	ErrTreeNodeNotExists = errors.New("tree node does not exist")

	// ErrTreeNodeExists is returned if a tree node exists that was not
	// expected.
	ErrTreeNodeExists = errors.New("tree node already exists")

	// ErrTreeNodeTypeUnknown is returned if a tree node has an invalid type.
	ErrTreeNodeTypeUnknown = errors.New("unknown tree node type")

	// ErrNotRegular is returned if a source file is not a regular file.
	ErrNotRegular = errors.New("not a regular file")

	// ErrInvalidFileSpec is returned for malformed src:dst arguments.
	ErrInvalidFileSpec = errors.New("invalid file spec")
)
