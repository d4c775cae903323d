// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package initramfs

import (
	"fmt"
	"io"
	"io/fs"

	"github.com/cavaliergopher/cpio"
)

const numLinks = 2

// CPIOWriter implements [Writer] for [cpio.Writer].
type CPIOWriter struct {
	cpioWriter *cpio.Writer
}

var _ Writer = (*CPIOWriter)(nil)

// NewCPIOWriter creates a new archive writer.
func NewCPIOWriter(w io.Writer) *CPIOWriter {
	return &CPIOWriter{cpio.NewWriter(w)}
}

// Close writes the trailer. Flush is called by the underlying closer.
func (w *CPIOWriter) Close() error {
	err := w.cpioWriter.Close()
	if err != nil {
		return fmt.Errorf("close: %w", err)
	}

	return nil
}

func (w *CPIOWriter) writeHeader(hdr *cpio.Header) error {
	if err := w.cpioWriter.WriteHeader(hdr); err != nil {
		return fmt.Errorf("write header for %s: %w", hdr.Name, err)
	}

	return nil
}

// WriteDirectory adds a directory entry for the given path to the archive.
func (w *CPIOWriter) WriteDirectory(path string, mode fs.FileMode) error {
	return w.writeHeader(&cpio.Header{
		Name:  path,
		Mode:  cpio.TypeDir | cpioPerm(mode),
		Links: numLinks,
	})
}

// WriteLink adds a symbolic link for the given path pointing to the given
// target.
func (w *CPIOWriter) WriteLink(path, target string) error {
	header := &cpio.Header{
		Name: path,
		Mode: cpio.TypeSymlink | cpio.ModePerm,
		Size: int64(len(target)),
	}
	if err := w.writeHeader(header); err != nil {
		return err
	}

	// Body of a link is the path of the target file.
	if _, err := w.cpioWriter.Write([]byte(target)); err != nil {
		return fmt.Errorf("write body for %s: %w", path, err)
	}

	return nil
}

// WriteRegular adds a regular file with size bytes read from source.
func (w *CPIOWriter) WriteRegular(path string, source io.Reader, size int64, mode fs.FileMode) error {
	header := &cpio.Header{
		Name:  path,
		Mode:  cpio.TypeReg | cpioPerm(mode),
		Size:  size,
		Links: 1,
	}
	if err := w.writeHeader(header); err != nil {
		return err
	}

	if _, err := io.CopyN(w.cpioWriter, source, size); err != nil {
		return fmt.Errorf("write body for %s: %w", path, err)
	}

	return nil
}

// cpioPerm converts permission and special bits.
func cpioPerm(mode fs.FileMode) cpio.FileMode {
	perm := cpio.FileMode(mode.Perm())

	if mode&fs.ModeSetuid != 0 {
		perm |= cpio.ModeSetuid
	}

	if mode&fs.ModeSetgid != 0 {
		perm |= cpio.ModeSetgid
	}

	if mode&fs.ModeSticky != 0 {
		perm |= cpio.ModeSticky
	}

	return perm
}
