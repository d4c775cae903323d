// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package supervisor

import (
	"fmt"
	"slices"

	"github.com/moby/sys/mountinfo"
	"golang.org/x/sys/unix"
)

// UnmountStrategy is how a mount is handled at shutdown.
type UnmountStrategy int

// Unmount strategies.
const (
	UnmountSkip UnmountStrategy = iota
	UnmountNormal
	UnmountDetach
)

func (s UnmountStrategy) String() string {
	switch s {
	case UnmountNormal:
		return "normal"
	case UnmountDetach:
		return "detach"
	default:
		return "skip"
	}
}

// Flags returns the umount2(2) flags for the strategy.
func (s UnmountStrategy) Flags() int {
	if s == UnmountDetach {
		return unix.MNT_DETACH
	}

	return 0
}

var (
	localFSTypes  = []string{"ext2", "ext3", "ext4", "btrfs", "xfs", "vfat", "msdos", "overlay"}
	remoteFSTypes = []string{"nfs", "nfs4", "cifs"}
)

// Classify returns the [UnmountStrategy] for the given file system type.
// Local disk file systems are unmounted normally, so pending writes are
// flushed. Network file systems are detached, as the server may be gone
// already. Everything else is kernel managed and left alone.
func Classify(fsType string) UnmountStrategy {
	switch {
	case slices.Contains(localFSTypes, fsType):
		return UnmountNormal
	case slices.Contains(remoteFSTypes, fsType):
		return UnmountDetach
	default:
		return UnmountSkip
	}
}

// Unmount is a single planned unmount.
type Unmount struct {
	Target   string
	FSType   string
	Strategy UnmountStrategy
}

// PlanUnmounts returns the unmounts for the given mount table in reverse
// order, so nested mounts come before their parents. Mounts classified as
// [UnmountSkip] are omitted.
func PlanUnmounts(mounts []*mountinfo.Info) []Unmount {
	plan := []Unmount{}

	for _, mount := range slices.Backward(mounts) {
		strategy := Classify(mount.FSType)
		if strategy == UnmountSkip {
			continue
		}

		plan = append(plan, Unmount{
			Target:   mount.Mountpoint,
			FSType:   mount.FSType,
			Strategy: strategy,
		})
	}

	return plan
}

// Mounts returns the live mount table of the process.
func Mounts() ([]*mountinfo.Info, error) {
	mounts, err := mountinfo.GetMounts(nil)
	if err != nil {
		return nil, fmt.Errorf("read mount table: %w", err)
	}

	return mounts, nil
}
