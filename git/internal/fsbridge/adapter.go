// Package fsbridge hands the go-billy filesystem behind an fs.Filesystem to
// go-git, so repositories live on the same filesystem as the mirror's archive
// and working tree.
package fsbridge

import (
	"fmt"

	"github.com/go-git/go-billy/v5"

	"github.com/input-output-hk/crx-mirror/fs"
	fsb "github.com/input-output-hk/crx-mirror/fs/billy"
)

// ToBillyFilesystem returns the billy filesystem wrapped by fsys.
// Only filesystems created by the fs/billy package can back a repository.
//
//nolint:ireturn // go-git consumes billy.Filesystem.
func ToBillyFilesystem(fsys fs.Filesystem) (billy.Filesystem, error) {
	wrapped, ok := fsys.(*fsb.FS)
	if !ok {
		return nil, fmt.Errorf("git storage requires a fs/billy filesystem, got %T", fsys)
	}
	return wrapped.Raw(), nil
}
