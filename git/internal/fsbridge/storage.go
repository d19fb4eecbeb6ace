package fsbridge

import (
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/storage/filesystem"
)

// minCacheSize is the object cache size, in KiB, used for non-positive requests.
const minCacheSize = 100

// NewStorage returns git storage rooted at dotGit with an LRU object cache
// of cacheSize KiB.
func NewStorage(dotGit billy.Filesystem, cacheSize int) *filesystem.Storage {
	if cacheSize <= 0 {
		cacheSize = minCacheSize
	}
	return filesystem.NewStorage(dotGit, cache.NewObjectLRU(cache.FileSize(cacheSize)*cache.KiByte))
}
