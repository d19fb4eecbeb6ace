package git

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	billyfs "github.com/input-output-hk/crx-mirror/fs/billy"
	"github.com/input-output-hk/crx-mirror/git/gittest"
)

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{name: "valid", opts: Options{FS: billyfs.NewInMemoryFS(), Branch: "main"}},
		{name: "no branch", opts: Options{FS: billyfs.NewInMemoryFS()}},
		{name: "nil filesystem", opts: Options{}, wantErr: true},
		{name: "negative cache", opts: Options{FS: billyfs.NewInMemoryFS(), StorerCacheSize: -1}, wantErr: true},
		{name: "invalid branch", opts: Options{FS: billyfs.NewInMemoryFS(), Branch: "bad..name"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidRef))
		})
	}
}

func TestClone(t *testing.T) {
	ctx := context.Background()

	t.Run("clones the requested branch", func(t *testing.T) {
		origin := gittest.NewOrigin(t, "main", map[string]string{"manifest.json": `{"version":"1.0"}`})
		fsys := billyfs.NewInMemoryFS()

		repo, err := Clone(ctx, origin.URL, &Options{FS: fsys, Workdir: "work", Branch: "main"})
		require.NoError(t, err)

		assert.Equal(t, "work", repo.options.Workdir)
		assert.Equal(t, DefaultStorerCacheSize, repo.options.StorerCacheSize)

		tree, err := repo.TreeHash(ctx, "refs/heads/main")
		require.NoError(t, err)
		assert.Equal(t, origin.Tip(t).TreeHash.String(), tree)

		data, err := fsys.ReadFile("work/manifest.json")
		require.NoError(t, err)
		assert.JSONEq(t, `{"version":"1.0"}`, string(data))

		exists, err := fsys.Exists("work/.git")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("missing branch", func(t *testing.T) {
		origin := gittest.NewOrigin(t, "main", map[string]string{"a.txt": "a"})

		_, err := Clone(ctx, origin.URL, &Options{FS: billyfs.NewInMemoryFS(), Branch: "release"})
		require.Error(t, err)
	})

	t.Run("unknown remote", func(t *testing.T) {
		gittest.Install()
		_, err := Clone(ctx, "file:///does-not-exist", &Options{FS: billyfs.NewInMemoryFS()})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrResolveFailed))
	})

	t.Run("empty url", func(t *testing.T) {
		_, err := Clone(ctx, "", &Options{FS: billyfs.NewInMemoryFS()})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidRef))
	})
}
