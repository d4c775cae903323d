// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sysinit

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sys/unix"
)

type mountCall struct {
	Source string
	Target string
	FSType string
	Flags  MountFlags
	Data   string
}

type mknodCall struct {
	Path  string
	Mode  uint32
	Major uint32
	Minor uint32
}

// fakeKernel records calls relative to root. Device nodes are created as
// regular files.
type fakeKernel struct {
	root      string
	failMount map[string]error
	hostname  string

	mu       sync.Mutex
	mounts   []mountCall
	nodes    []mknodCall
	hostsSet []string
}

var _ Kernel = (*fakeKernel)(nil)

func (k *fakeKernel) rel(path string) string {
	rel := strings.TrimPrefix(path, k.root)
	if rel == "" {
		return "/"
	}

	return rel
}

func (k *fakeKernel) Mount(source, target, fsType string, flags MountFlags, data string) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	target = k.rel(target)

	if err, exists := k.failMount[target]; exists {
		return fmt.Errorf("mount %s: %w", target, err)
	}

	k.mounts = append(k.mounts, mountCall{source, target, fsType, flags, data})

	return nil
}

func (k *fakeKernel) Mknod(path string, mode uint32, major, minor uint32) error {
	k.mu.Lock()
	k.nodes = append(k.nodes, mknodCall{k.rel(path), mode, major, minor})
	k.mu.Unlock()

	if mode&unix.S_IFMT != unix.S_IFCHR {
		return unix.EINVAL
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, os.FileMode(mode).Perm())
	if err != nil {
		return err //nolint:wrapcheck
	}

	return file.Close()
}

func (k *fakeKernel) Hostname() (string, error) {
	return k.hostname, nil
}

func (k *fakeKernel) SetHostname(name string) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	k.hostname = name
	k.hostsSet = append(k.hostsSet, name)

	return nil
}

func (k *fakeKernel) targets() []string {
	k.mu.Lock()
	defer k.mu.Unlock()

	targets := make([]string, 0, len(k.mounts))
	for _, call := range k.mounts {
		targets = append(targets, call.Target)
	}

	return targets
}

func (k *fakeKernel) mknods() []mknodCall {
	k.mu.Lock()
	defer k.mu.Unlock()

	return slices.Clone(k.nodes)
}

func (k *fakeKernel) mount(target string) (mountCall, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()

	for _, call := range k.mounts {
		if call.Target == target {
			return call, true
		}
	}

	return mountCall{}, false
}

func writeFile(root, path, content string) error {
	path = filepath.Join(root, path)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err //nolint:wrapcheck
	}

	return os.WriteFile(path, []byte(content), 0o644) //nolint:wrapcheck
}
