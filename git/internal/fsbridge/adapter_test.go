package fsbridge

import (
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/crx-mirror/fs"
	"github.com/input-output-hk/crx-mirror/fs/billy"
)

// foreignFS satisfies fs.Filesystem without being backed by go-billy.
type foreignFS struct {
	fs.Filesystem
}

func TestToBillyFilesystem(t *testing.T) {
	t.Run("unwraps fs/billy", func(t *testing.T) {
		raw := memfs.New()

		got, err := ToBillyFilesystem(billy.NewFS(raw))
		require.NoError(t, err)
		assert.Same(t, raw, got)
	})

	t.Run("rejects other filesystems", func(t *testing.T) {
		got, err := ToBillyFilesystem(foreignFS{})
		require.Error(t, err)
		assert.Nil(t, got)
		assert.Contains(t, err.Error(), "requires a fs/billy filesystem")
		assert.Contains(t, err.Error(), "fsbridge.foreignFS")
	})
}
