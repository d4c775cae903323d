// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package initramfs

import (
	"bytes"
	"fmt"
	"io/fs"
	"iter"
	"maps"
	"os"
	"path"
	"slices"
)

// TreeNodeType defines the type of a [TreeNode].
type TreeNodeType int

const (
	// TreeNodeTypeRegular is a regular file copied from the host.
	TreeNodeTypeRegular TreeNodeType = iota

	// TreeNodeTypeDirectory is a directory.
	TreeNodeTypeDirectory

	// TreeNodeTypeLink is a symbolic link.
	TreeNodeTypeLink

	// TreeNodeTypeVirtual is a regular file with in-memory content.
	TreeNodeTypeVirtual
)

const (
	defaultDirMode  fs.FileMode = 0o755
	defaultFileMode fs.FileMode = 0o644
)

// TreeNode is a single file tree node.
type TreeNode struct {
	// Type of this node.
	Type TreeNodeType

	// Mode is the permission of regular files and directories. If zero, the
	// mode of the host file or the default is used.
	Mode fs.FileMode

	// RelatedPath is the host source path of regular files and the target
	// of links.
	RelatedPath string

	// Content is the body of virtual files.
	Content []byte

	children map[string]*TreeNode
}

// String returns a string representation of the TreeNode.
func (e *TreeNode) String() string {
	switch e.Type {
	case TreeNodeTypeRegular:
		return "regular file (" + e.RelatedPath + ")"
	case TreeNodeTypeDirectory:
		return fmt.Sprintf("directory (% s)", slices.Sorted(maps.Keys(e.children)))
	case TreeNodeTypeLink:
		return "link (" + e.RelatedPath + ")"
	case TreeNodeTypeVirtual:
		return fmt.Sprintf("virtual file (%d bytes)", len(e.Content))
	default:
		return "invalid type"
	}
}

// IsDir returns true if the [TreeNode] is a directory.
func (e *TreeNode) IsDir() bool {
	return e.Type == TreeNodeTypeDirectory
}

// IsLink returns true if the [TreeNode] is a link.
func (e *TreeNode) IsLink() bool {
	return e.Type == TreeNodeTypeLink
}

// AddRegular adds a regular file copied from the host path.
func (e *TreeNode) AddRegular(name, source string, mode fs.FileMode) (*TreeNode, error) {
	return e.AddNode(name, &TreeNode{
		Type:        TreeNodeTypeRegular,
		RelatedPath: source,
		Mode:        mode,
	})
}

// AddVirtual adds a regular file with the given content.
func (e *TreeNode) AddVirtual(name string, content []byte, mode fs.FileMode) (*TreeNode, error) {
	return e.AddNode(name, &TreeNode{
		Type:    TreeNodeTypeVirtual,
		Content: content,
		Mode:    mode,
	})
}

// AddDirectory adds a new directory [TreeNode] children.
func (e *TreeNode) AddDirectory(name string) (*TreeNode, error) {
	return e.AddNode(name, &TreeNode{
		Type: TreeNodeTypeDirectory,
	})
}

// AddLink adds a new link [TreeNode] children.
func (e *TreeNode) AddLink(name, target string) (*TreeNode, error) {
	return e.AddNode(name, &TreeNode{
		Type:        TreeNodeTypeLink,
		RelatedPath: target,
	})
}

// AddNode adds an arbitrary [TreeNode] as children. If a node with the name
// exists already, it is returned along with [ErrTreeNodeExists].
func (e *TreeNode) AddNode(name string, node *TreeNode) (*TreeNode, error) {
	if !e.IsDir() {
		return nil, ErrTreeNodeNotDir
	}

	if existing, exists := e.children[name]; exists {
		return existing, ErrTreeNodeExists
	}

	if e.children == nil {
		e.children = make(map[string]*TreeNode)
	}

	e.children[name] = node

	return node, nil
}

// GetNode gets the child [TreeNode] with the given name.
func (e *TreeNode) GetNode(name string) (*TreeNode, error) {
	if !e.IsDir() {
		return nil, ErrTreeNodeNotDir
	}

	node, exists := e.children[name]
	if !exists {
		return nil, ErrTreeNodeNotExists
	}

	return node, nil
}

// WriteTo writes the [TreeNode] into the given [Writer] with the given path.
// Regular files are read from the host.
func (e *TreeNode) WriteTo(writer Writer, path string) error {
	switch e.Type {
	case TreeNodeTypeRegular:
		return e.writeRegular(writer, path)
	case TreeNodeTypeVirtual:
		return writer.WriteRegular(path, bytes.NewReader(e.Content), int64(len(e.Content)), e.modeOr(defaultFileMode))
	case TreeNodeTypeDirectory:
		return writer.WriteDirectory(path, e.modeOr(defaultDirMode))
	case TreeNodeTypeLink:
		return writer.WriteLink(path, e.RelatedPath)
	default:
		return fmt.Errorf("%w: %d", ErrTreeNodeTypeUnknown, e.Type)
	}
}

func (e *TreeNode) writeRegular(writer Writer, path string) error {
	source, err := os.Open(e.RelatedPath)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer source.Close()

	info, err := source.Stat()
	if err != nil {
		return fmt.Errorf("read info: %w", err)
	}

	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s", ErrNotRegular, e.RelatedPath)
	}

	return writer.WriteRegular(path, source, info.Size(), e.modeOr(info.Mode()))
}

func (e *TreeNode) modeOr(fallback fs.FileMode) fs.FileMode {
	if e.Mode != 0 {
		return e.Mode
	}

	return fallback
}

// prefixedPaths iterates the child nodes sorted by name with their paths.
func (e *TreeNode) prefixedPaths(base string) iter.Seq2[string, *TreeNode] {
	return func(yield func(string, *TreeNode) bool) {
		for _, name := range slices.Sorted(maps.Keys(e.children)) {
			if !yield(path.Join(base, name), e.children[name]) {
				return
			}
		}
	}
}
