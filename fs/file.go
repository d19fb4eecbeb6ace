package fs

import (
	"io"
	"io/fs"
)

// File is an open file handle. Archives and tree files are streamed
// sequentially, so no random access is exposed.
type File interface {
	io.ReadWriteCloser

	// Name returns the path the file was opened with.
	Name() string

	// Stat describes the file as currently stored.
	Stat() (fs.FileInfo, error)
}
