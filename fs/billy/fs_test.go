package billy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	parentfs "github.com/input-output-hk/crx-mirror/fs"
)

func testMkdirAllStat(t *testing.T, fs parentfs.Filesystem) {
	t.Helper()
	require.NoError(t, fs.MkdirAll(filepath.Join("a", "b", "c"), 0o755))

	info, err := fs.Stat(filepath.Join("a", "b"))
	require.NoError(t, err)
	assert.True(t, info.IsDir(), "expected directory, got file: %v", info.Name())
}

func testCreateWriteReadRemove(t *testing.T, fs parentfs.Filesystem) {
	t.Helper()
	p := "file.txt"

	f, err := fs.Create(p)
	require.NoError(t, err)
	_ = f.Close()

	require.NoError(t, fs.WriteFile(p, []byte("hello"), 0o644))

	b, err := fs.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(b))

	require.NoError(t, fs.Remove(p))

	exists, err := fs.Exists(p)
	require.NoError(t, err)
	assert.False(t, exists)
}

func testRenameAndRemoveAll(t *testing.T, fs parentfs.Filesystem) {
	t.Helper()
	require.NoError(t, fs.WriteFile(filepath.Join("tree", "x", "y.txt"), []byte("y"), 0o644))
	require.NoError(t, fs.WriteFile("old.bin", []byte{0, 1, 2}, 0o644))

	require.NoError(t, fs.Rename("old.bin", "new.bin"))
	data, err := fs.ReadFile("new.bin")
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 1, 2}, data)

	require.NoError(t, fs.RemoveAll("tree"))
	exists, err := fs.Exists("tree")
	require.NoError(t, err)
	assert.False(t, exists)

	// removing something that is already gone is fine
	require.NoError(t, fs.RemoveAll("tree"))
}

func testTempFileAndWalk(t *testing.T, fs parentfs.Filesystem) {
	t.Helper()
	require.NoError(t, fs.MkdirAll("tmp", 0o755))

	f, err := fs.TempFile("tmp", "pref-")
	require.NoError(t, err)
	_, err = f.Write([]byte("partial"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	td, err := fs.TempDir("tmp", "dir-")
	require.NoError(t, err)
	require.NotEmpty(t, td)
	require.NoError(t, fs.WriteFile(filepath.Join(td, "z.txt"), []byte("z"), 0o644))

	var files int
	err = fs.Walk("tmp", func(path string, info os.FileInfo, err error) error {
		require.NoError(t, err)
		if !info.IsDir() {
			files++
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, files)
}

// runSuite runs a battery of consistency tests against a Filesystem impl.
func runSuite(t *testing.T, fs parentfs.Filesystem) {
	t.Helper()
	testMkdirAllStat(t, fs)
	testCreateWriteReadRemove(t, fs)
	testRenameAndRemoveAll(t, fs)
	testTempFileAndWalk(t, fs)
}

func TestInMemoryFS_Suite(t *testing.T) {
	runSuite(t, NewInMemoryFS())
}

func TestOSFS_Suite(t *testing.T) {
	runSuite(t, NewOSFS(t.TempDir()))
}

func TestFileStat(t *testing.T) {
	fs := NewInMemoryFS()
	require.NoError(t, fs.WriteFile("data.txt", []byte("12345"), 0o644))

	f, err := fs.Open("data.txt")
	require.NoError(t, err)
	defer f.Close()

	info, err := f.Stat()
	require.NoError(t, err)
	assert.Equal(t, int64(5), info.Size())
}
