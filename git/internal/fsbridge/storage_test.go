package fsbridge

import (
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStorage(t *testing.T) {
	for _, size := range []int{-1, 0, 1000} {
		dotGit := memfs.New()
		storage := NewStorage(dotGit, size)
		require.NotNil(t, storage)
		assert.Same(t, dotGit, storage.Filesystem())
	}
}

func TestNewStoragePersistsObjects(t *testing.T) {
	dotGit := memfs.New()
	storage := NewStorage(dotGit, 0)

	obj := storage.NewEncodedObject()
	obj.SetType(plumbing.BlobObject)
	w, err := obj.Writer()
	require.NoError(t, err)
	_, err = w.Write([]byte(`{"manifest_version": 3}`))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	hash, err := storage.SetEncodedObject(obj)
	require.NoError(t, err)

	reopened := NewStorage(dotGit, 0)
	got, err := reopened.EncodedObject(plumbing.BlobObject, hash)
	require.NoError(t, err)
	assert.Equal(t, obj.Size(), got.Size())

	_, err = dotGit.Stat("objects/" + hash.String()[:2] + "/" + hash.String()[2:])
	assert.NoError(t, err, "loose object written below the git directory")
}
