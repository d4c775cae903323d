// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package initramfs

import (
	"errors"
	"iter"
	"path"
)

// Tree represents a simple file tree.
type Tree struct {
	// Do not access directly! Always use [Tree.GetRoot] to access the root
	// node to ensure it exists.
	root *TreeNode
}

func isRoot(name string) bool {
	switch path.Clean(name) {
	case "", ".", "..", "/":
		return true
	default:
		return false
	}
}

// GetRoot returns the root node of the tree.
func (t *Tree) GetRoot() *TreeNode {
	if t.root == nil {
		t.root = &TreeNode{
			Type: TreeNodeTypeDirectory,
		}
	}

	return t.root
}

// GetNode returns the node for the given path.
func (t *Tree) GetNode(name string) (*TreeNode, error) {
	if isRoot(name) {
		return t.GetRoot(), nil
	}

	dir, base := path.Split(path.Clean(name))

	parent, err := t.GetNode(dir)
	if err != nil {
		return nil, err
	}

	return parent.GetNode(base)
}

// Mkdir adds a directory node for the given path. Non existing parents
// are created recursively. If any of the parents exists but is not a
// directory [ErrTreeNodeNotDir] is returned.
func (t *Tree) Mkdir(name string) (*TreeNode, error) {
	cleaned := path.Clean(name)
	if isRoot(cleaned) {
		return t.GetRoot(), nil
	}

	dir, base := path.Split(cleaned)

	parent, err := t.Mkdir(dir)
	if err != nil {
		return nil, err
	}

	node, err := parent.AddDirectory(base)
	if errors.Is(err, ErrTreeNodeExists) {
		if !node.IsDir() {
			return nil, ErrTreeNodeNotDir
		}

		err = nil
	}

	return node, err
}

// Ln adds a symbolic link to target at the given path. An existing link is
// not an error.
func (t *Tree) Ln(target, name string) error {
	dir, base := path.Split(path.Clean(name))

	dirNode, err := t.Mkdir(dir)
	if err != nil {
		return err
	}

	if node, err := dirNode.AddLink(base, target); err != nil {
		if !errors.Is(err, ErrTreeNodeExists) || !node.IsLink() {
			return err
		}
	}

	return nil
}

// All returns an iterator that iterates all [TreeNode]s breadth first. Paths
// are relative to the root, which is not included.
func (t *Tree) All() iter.Seq2[string, *TreeNode] {
	return func(yield func(string, *TreeNode) bool) {
		iterators := []iter.Seq2[string, *TreeNode]{
			t.GetRoot().prefixedPaths(""),
		}

		for len(iterators) > 0 {
			for name, node := range iterators[0] {
				if !yield(name, node) {
					return
				}

				if node.IsDir() {
					iterators = append(iterators, node.prefixedPaths(name))
				}
			}

			iterators = iterators[1:]
		}
	}
}
