// Package gittest provides in-process git remotes for tests.
//
// Remotes are served by go-git's own transport server over the "file"
// scheme, so clone and push work without a git binary or network access.
package gittest

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/client"
	"github.com/go-git/go-git/v5/plumbing/transport/server"
	"github.com/go-git/go-git/v5/storage/memory"
	"github.com/stretchr/testify/require"
)

var (
	installOnce sync.Once
	registry    = &loader{repos: make(map[string]storer.Storer)}
	counter     atomic.Int64
)

type loader struct {
	mu    sync.Mutex
	repos map[string]storer.Storer
}

func (l *loader) Load(ep *transport.Endpoint) (storer.Storer, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, ok := l.repos[ep.Path]
	if !ok {
		return nil, transport.ErrRepositoryNotFound
	}
	return s, nil
}

func (l *loader) register(path string, s storer.Storer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.repos[path] = s
}

func (l *loader) unregister(path string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.repos, path)
}

// Origin is an in-memory remote repository reachable at URL.
type Origin struct {
	URL    string
	Branch string
	Repo   *git.Repository

	worktree *git.Worktree
}

// Install routes the "file" scheme to the in-process server. NewOrigin calls it.
func Install() {
	installOnce.Do(func() {
		client.InstallProtocol("file", server.NewServer(registry))
	})
}

// NewOrigin creates a remote whose branch holds a single commit with files.
func NewOrigin(t testing.TB, branch string, files map[string]string) *Origin {
	t.Helper()
	Install()

	repo, err := git.InitWithOptions(memory.NewStorage(), memfs.New(), git.InitOptions{
		DefaultBranch: plumbing.NewBranchReferenceName(branch),
	})
	require.NoError(t, err)

	wt, err := repo.Worktree()
	require.NoError(t, err)

	path := fmt.Sprintf("/origin-%d", counter.Add(1))
	registry.register(path, repo.Storer)
	t.Cleanup(func() { registry.unregister(path) })

	o := &Origin{
		URL:      "file://" + path,
		Branch:   branch,
		Repo:     repo,
		worktree: wt,
	}
	o.Commit(t, "initial", files)
	return o
}

// Commit writes files into the origin's worktree and commits them to the branch.
func (o *Origin) Commit(t testing.TB, msg string, files map[string]string) string {
	t.Helper()

	for name, content := range files {
		require.NoError(t, util.WriteFile(o.worktree.Filesystem, name, []byte(content), 0o644))
		_, err := o.worktree.Add(name)
		require.NoError(t, err)
	}

	sig := &object.Signature{Name: "origin", Email: "origin@example.com", When: time.Now()}
	hash, err := o.worktree.Commit(msg, &git.CommitOptions{
		Author:            sig,
		AllowEmptyCommits: true,
	})
	require.NoError(t, err)
	return hash.String()
}

// Head returns the commit SHA at the tip of the origin branch.
func (o *Origin) Head(t testing.TB) string {
	t.Helper()

	ref, err := o.Repo.Reference(plumbing.NewBranchReferenceName(o.Branch), true)
	require.NoError(t, err)
	return ref.Hash().String()
}

// Tip returns the commit object at the tip of the origin branch.
func (o *Origin) Tip(t testing.TB) *object.Commit {
	t.Helper()

	commit, err := o.Repo.CommitObject(plumbing.NewHash(o.Head(t)))
	require.NoError(t, err)
	return commit
}

// Files returns the contents of every file in the tree at the branch tip.
func (o *Origin) Files(t testing.TB) map[string]string {
	t.Helper()

	iter, err := o.Tip(t).Files()
	require.NoError(t, err)

	files := make(map[string]string)
	require.NoError(t, iter.ForEach(func(f *object.File) error {
		contents, err := f.Contents()
		if err != nil {
			return err
		}
		files[f.Name] = contents
		return nil
	}))
	return files
}

// Paths returns the sorted file paths in the tree at the branch tip.
func (o *Origin) Paths(t testing.TB) []string {
	t.Helper()

	files := o.Files(t)
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
