// Package fs defines the filesystem abstraction used by the mirror.
//
// Every local artifact (the downloaded archive, the working tree and the git
// storage of a clone) lives inside a Filesystem, so the whole pipeline can run
// against the OS or entirely in memory.
package fs

import (
	"os"
	"path/filepath"
)

// Filesystem is the set of operations the mirror needs from a filesystem.
// Paths are relative to the filesystem root and use the host separator.
type Filesystem interface {
	Create(name string) (File, error)
	Open(name string) (File, error)
	OpenFile(name string, flag int, perm os.FileMode) (File, error)
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte, perm os.FileMode) error
	Stat(name string) (os.FileInfo, error)
	Rename(oldname, newname string) error
	Remove(name string) error
	RemoveAll(path string) error
	ReadDir(name string) ([]os.FileInfo, error)
	MkdirAll(path string, perm os.FileMode) error
	Walk(root string, fn filepath.WalkFunc) error
	TempDir(dir, pattern string) (string, error)
	TempFile(dir, pattern string) (File, error)
	Exists(path string) (bool, error)
}
