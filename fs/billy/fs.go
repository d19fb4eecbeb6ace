// Package billy implements fs.Filesystem on top of go-billy, providing the
// OS-backed filesystem used in production and the in-memory one used in tests.
package billy

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"

	parentfs "github.com/input-output-hk/crx-mirror/fs"
)

// FS adapts a go-billy filesystem to fs.Filesystem. Errors are prefixed
// with "billy: <op>" and wrap the go-billy cause.
type FS struct {
	fs billy.Filesystem
}

// NewFS wraps an existing go-billy filesystem.
func NewFS(fsys billy.Filesystem) *FS {
	return &FS{fs: fsys}
}

// NewInMemoryFS returns an empty in-memory filesystem.
func NewInMemoryFS() *FS {
	return NewFS(memfs.New())
}

// NewOSFS returns a filesystem rooted at the OS directory path.
func NewOSFS(path string) *FS {
	return NewFS(osfs.New(path))
}

// Raw returns the wrapped go-billy filesystem.
//
//nolint:ireturn // go-git consumes billy.Filesystem.
func (b *FS) Raw() billy.Filesystem {
	return b.fs
}

func fsError(op, path string, err error) error {
	return fmt.Errorf("billy: %s %q: %w", op, path, err)
}

//nolint:ireturn // fs.File is the abstraction surface.
func (b *FS) open(op, name string, f billy.File, err error) (parentfs.File, error) {
	if err != nil {
		return nil, fsError(op, name, err)
	}
	return &File{file: f, fs: b}, nil
}

// Create creates or truncates name.
//
//nolint:ireturn // fs.File is the abstraction surface.
func (b *FS) Create(name string) (parentfs.File, error) {
	f, err := b.fs.Create(name)
	return b.open("create", name, f, err)
}

// Open opens name for reading.
//
//nolint:ireturn // fs.File is the abstraction surface.
func (b *FS) Open(name string) (parentfs.File, error) {
	f, err := b.fs.Open(name)
	return b.open("open", name, f, err)
}

// OpenFile opens name with the given os flags.
//
//nolint:ireturn // fs.File is the abstraction surface.
func (b *FS) OpenFile(name string, flag int, perm os.FileMode) (parentfs.File, error) {
	f, err := b.fs.OpenFile(name, flag, perm)
	return b.open("openfile", name, f, err)
}

// TempFile creates a uniquely named file in dir.
//
//nolint:ireturn // fs.File is the abstraction surface.
func (b *FS) TempFile(dir, prefix string) (parentfs.File, error) {
	f, err := b.fs.TempFile(dir, prefix)
	return b.open("tempfile", filepath.Join(dir, prefix), f, err)
}

// Exists reports whether path exists.
func (b *FS) Exists(path string) (bool, error) {
	_, err := b.fs.Stat(path)
	switch {
	case err == nil:
		return true, nil
	case os.IsNotExist(err):
		return false, nil
	default:
		return false, fsError("stat", path, err)
	}
}

// Stat describes path.
func (b *FS) Stat(path string) (os.FileInfo, error) {
	info, err := b.fs.Stat(path)
	if err != nil {
		return nil, fsError("stat", path, err)
	}
	return info, nil
}

// ReadDir lists the entries of dir.
func (b *FS) ReadDir(dir string) ([]os.FileInfo, error) {
	list, err := b.fs.ReadDir(dir)
	if err != nil {
		return nil, fsError("readdir", dir, err)
	}
	return list, nil
}

// ReadFile returns the contents of path.
func (b *FS) ReadFile(path string) ([]byte, error) {
	data, err := util.ReadFile(b.fs, path)
	if err != nil {
		return nil, fsError("readfile", path, err)
	}
	return data, nil
}

// WriteFile writes data to path, creating or truncating it.
func (b *FS) WriteFile(path string, data []byte, perm os.FileMode) error {
	if err := util.WriteFile(b.fs, path, data, perm); err != nil {
		return fsError("writefile", path, err)
	}
	return nil
}

// MkdirAll creates path and any missing parents.
func (b *FS) MkdirAll(path string, perm os.FileMode) error {
	if err := b.fs.MkdirAll(path, perm); err != nil {
		return fsError("mkdirall", path, err)
	}
	return nil
}

// Rename moves oldpath to newpath.
func (b *FS) Rename(oldpath, newpath string) error {
	if err := b.fs.Rename(oldpath, newpath); err != nil {
		return fmt.Errorf("billy: rename %q to %q: %w", oldpath, newpath, err)
	}
	return nil
}

// Remove deletes a file or empty directory.
func (b *FS) Remove(path string) error {
	if err := b.fs.Remove(path); err != nil {
		return fsError("remove", path, err)
	}
	return nil
}

// RemoveAll deletes path and everything below it. A missing path is not an error.
func (b *FS) RemoveAll(path string) error {
	if err := util.RemoveAll(b.fs, path); err != nil && !os.IsNotExist(err) {
		return fsError("removeall", path, err)
	}
	return nil
}

// TempDir creates a uniquely named directory in dir.
func (b *FS) TempDir(dir, prefix string) (string, error) {
	name, err := util.TempDir(b.fs, dir, prefix)
	if err != nil {
		return "", fsError("tempdir", filepath.Join(dir, prefix), err)
	}
	return name, nil
}

// Walk walks the tree rooted at root.
func (b *FS) Walk(root string, fn filepath.WalkFunc) error {
	if err := util.Walk(b.fs, root, fn); err != nil {
		return fsError("walk", root, err)
	}
	return nil
}
