// Package git provides a high-level Go wrapper for go-git operations.
// This file contains worktree operations (stage, commit, inspect trees).
package git

import (
	"context"
	"errors"
	"path/filepath"
	"sort"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/input-output-hk/crx-mirror/fs"
)

// AddAll stages the worktree exactly as it is on disk: every file is added,
// and tracked files missing from the worktree are removed from the index.
// .gitignore rules are not applied, so the next commit's tree holds every file
// below the worktree root.
//
// Context cancellation is checked between files.
func (r *Repo) AddAll(ctx context.Context) error {
	paths, err := fs.ListFiles(r.fs, r.options.Workdir, git.GitDirName)
	if err != nil {
		return WrapError(err, "failed to list worktree files")
	}

	present := make(map[string]bool, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		present[path] = true

		opts := &git.AddOptions{Path: filepath.FromSlash(path), SkipStatus: true}
		if err := r.worktree.AddWithOptions(opts); err != nil {
			return WrapErrorf(err, "failed to add path %q", path)
		}
	}

	idx, err := r.repo.Storer.Index()
	if err != nil {
		return WrapError(err, "failed to read index")
	}

	var stale []string
	for _, entry := range idx.Entries {
		if !present[entry.Name] {
			stale = append(stale, entry.Name)
		}
	}
	sort.Strings(stale)

	for _, path := range stale {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := r.worktree.Remove(filepath.FromSlash(path)); err != nil {
			return WrapErrorf(err, "failed to remove path %q", path)
		}
	}

	return nil
}

// Commit creates a new commit with the specified message and author/committer.
// It returns the SHA of the new commit. The CommitOpts can be used to control
// commit behavior such as allowing empty commits.
func (r *Repo) Commit(ctx context.Context, msg string, who Signature, opts CommitOpts) (string, error) {
	if msg == "" {
		return "", WrapError(ErrInvalidRef, "commit message cannot be empty")
	}

	if who.Name == "" || who.Email == "" {
		return "", WrapError(ErrInvalidRef, "committer name and email are required")
	}

	if !opts.AllowEmpty {
		status, err := r.worktree.Status()
		if err != nil {
			return "", WrapError(err, "failed to get worktree status")
		}

		stagedCount := 0
		for _, fileStatus := range status {
			if fileStatus.Staging != git.Untracked && fileStatus.Staging != git.Unmodified {
				stagedCount++
			}
		}

		if stagedCount == 0 {
			return "", WrapError(ErrEmptyCommit, "no changes staged for commit")
		}
	}

	sig := &object.Signature{
		Name:  who.Name,
		Email: who.Email,
		When:  who.When,
	}

	hash, err := r.worktree.Commit(msg, &git.CommitOptions{
		Author:            sig,
		Committer:         sig,
		AllowEmptyCommits: opts.AllowEmpty,
	})
	if err != nil {
		if errors.Is(err, git.ErrEmptyCommit) {
			return "", ErrEmptyCommit
		}
		return "", WrapError(err, "failed to create commit")
	}

	return hash.String(), nil
}

// TreeHash returns the tree SHA of the commit that rev resolves to.
func (r *Repo) TreeHash(ctx context.Context, rev string) (string, error) {
	hash, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return "", WrapErrorf(ErrResolveFailed, "failed to resolve %q", rev)
	}

	commit, err := r.repo.CommitObject(*hash)
	if err != nil {
		return "", WrapErrorf(err, "failed to read commit %s", hash)
	}
	return commit.TreeHash.String(), nil
}
