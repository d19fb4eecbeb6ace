package billy

import (
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/go-git/go-billy/v5"
)

// File adapts a go-billy file to fs.File.
type File struct {
	file billy.File
	fs   *FS
}

func (f *File) wrap(op string, err error) error {
	return fmt.Errorf("billy: %s %q: %w", op, f.file.Name(), err)
}

// Name returns the path the file was opened with.
func (f *File) Name() string {
	return f.file.Name()
}

// Read reads from the file. io.EOF is returned unwrapped.
func (f *File) Read(p []byte) (int, error) {
	n, err := f.file.Read(p)
	switch {
	case err == nil, errors.Is(err, io.EOF):
		return n, err
	default:
		return n, f.wrap("read", err)
	}
}

// Write writes to the file.
func (f *File) Write(p []byte) (int, error) {
	n, err := f.file.Write(p)
	if err != nil {
		return n, f.wrap("write", err)
	}
	return n, nil
}

// Close closes the file.
func (f *File) Close() error {
	if err := f.file.Close(); err != nil {
		return f.wrap("close", err)
	}
	return nil
}

// Stat describes the file through the owning filesystem.
func (f *File) Stat() (fs.FileInfo, error) {
	info, err := f.fs.Stat(f.file.Name())
	if err != nil {
		return nil, f.wrap("stat", err)
	}
	return info, nil
}
