// Package source gives the loader access to declared files.
//
// Files ending in .gz, .bz2, .xz or .zst are decompressed transparently.
package source

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// FileSystem is the view of storage the loader reads from.
type FileSystem interface {
	// Exists reports whether path names a regular file.
	Exists(path string) bool
	// Open returns the decompressed content of path.
	Open(path string) (io.ReadCloser, error)
}

// OS returns a FileSystem resolving paths against the working directory.
func OS() FileSystem {
	return osFS{}
}

type osFS struct{}

func (osFS) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func (osFS) Open(path string) (io.ReadCloser, error) {
	file, err := os.Open(path) //nolint:gosec // User-provided path is necessary for file operations
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return openDecompressed(file, path)
}

// FromFS returns a FileSystem backed by fsys. Paths are resolved against its root.
func FromFS(fsys fs.FS) FileSystem {
	return fsFS{fsys: fsys}
}

type fsFS struct {
	fsys fs.FS
}

// name converts a declared path into an fs.FS name.
func (f fsFS) name(p string) (string, bool) {
	name := path.Clean(filepath.ToSlash(p))
	name = strings.TrimPrefix(name, "./")
	return name, fs.ValidPath(name)
}

func (f fsFS) Exists(p string) bool {
	name, ok := f.name(p)
	if !ok {
		return false
	}
	info, err := fs.Stat(f.fsys, name)
	return err == nil && !info.IsDir()
}

func (f fsFS) Open(p string) (io.ReadCloser, error) {
	name, ok := f.name(p)
	if !ok {
		return nil, fmt.Errorf("failed to open file: %w", &fs.PathError{Op: "open", Path: p, Err: fs.ErrInvalid})
	}
	file, err := f.fsys.Open(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return openDecompressed(file, p)
}
