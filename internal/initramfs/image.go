// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package initramfs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/ukama/microinit/internal/config"
)

// Paths of the appliance layout.
const (
	InitPath        = "/init"
	ConfigPath      = "/etc/uInit.yml"
	TOMLConfigPath  = "/etc/microInit.toml"
	InitDirPath     = "/etc/init.d"
	ShutdownDirPath = "/etc/shutdown.d"
)

// InvocationLinks are the paths that link to the init binary. The binary
// selects its role by the name it was invoked with.
var InvocationLinks = []string{
	"/sbin/init",
	"/sbin/rc.init",
	"/sbin/rc.shutdown",
	"/sbin/rc.reboot",
	"/usr/bin/sys",
}

// Image is the appliance initramfs file tree.
//
// Create a new instance using [New]. Additional files can be added with
// [Image.AddFile]. Once ready, write the [Image] with [Image.WriteTo].
type Image struct {
	fileTree Tree
}

// New creates a new [Image] with "/init" copied from the given host file
// and the invocation links and hook directories set up.
func New(initPath string) (*Image, error) {
	image := &Image{}

	if err := image.AddFile(initPath, InitPath); err != nil {
		return nil, err
	}

	for _, link := range InvocationLinks {
		if err := image.fileTree.Ln(InitPath, link); err != nil {
			return nil, fmt.Errorf("add link %s: %w", link, err)
		}
	}

	for _, dir := range []string{InitDirPath, ShutdownDirPath, "/proc", "/sys", "/dev", "/mnt", "/run", "/tmp", "/var"} {
		if _, err := image.fileTree.Mkdir(dir); err != nil {
			return nil, fmt.Errorf("add dir %s: %w", dir, err)
		}
	}

	return image, nil
}

// AddFile adds the host file at source to the image at dest. Missing parent
// directories are created.
func (i *Image) AddFile(source, dest string) error {
	dir, name := path.Split(path.Clean("/" + dest))

	dirNode, err := i.fileTree.Mkdir(dir)
	if err != nil {
		return fmt.Errorf("add dir %s: %w", dir, err)
	}

	if _, err := dirNode.AddRegular(name, source, 0); err != nil {
		return fmt.Errorf("add file %s: %w", dest, err)
	}

	return nil
}

// AddFileSpec adds a file given as "source:dest". If dest is omitted, the
// file is added at the same path as on the host.
func (i *Image) AddFileSpec(spec string) error {
	source, dest, found := strings.Cut(spec, ":")
	if !found {
		dest = source
	}

	if source == "" || dest == "" {
		return fmt.Errorf("%w: %q", ErrInvalidFileSpec, spec)
	}

	return i.AddFile(source, dest)
}

// ConfigDest returns the path in the image for the given config file. The
// format is kept, as the init detects it by the file extension.
func ConfigDest(source string) (string, error) {
	format, err := config.FormatFromPath(source)
	if err != nil {
		return "", err //nolint:wrapcheck
	}

	if format == config.FormatTOML {
		return TOMLConfigPath, nil
	}

	return ConfigPath, nil
}

// AddConfig adds the workload config from the given host file.
func (i *Image) AddConfig(source string) error {
	dest, err := ConfigDest(source)
	if err != nil {
		return err
	}

	return i.AddFile(source, dest)
}

// WriteTo writes the [Image] as CPIO archive to the given writer.
func (i *Image) WriteTo(writer io.Writer) error {
	archive := NewCPIOWriter(writer)

	err := i.writeTo(archive)

	return errors.Join(err, archive.Close())
}

// WriteToFile writes the [Image] as CPIO archive into the file at the given
// path. The file is removed again on failure.
func (i *Image) WriteToFile(name string) error {
	file, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}

	err = errors.Join(i.WriteTo(file), file.Close())
	if err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("write archive: %w", err)
	}

	return nil
}

func (i *Image) writeTo(writer Writer) error {
	for name, node := range i.fileTree.All() {
		if err := node.WriteTo(writer, name); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}

	return nil
}
