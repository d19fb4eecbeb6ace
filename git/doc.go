// Package git provides a high-level, idiomatic Go wrapper for git operations.
//
// This package offers a small facade over go-git, exposing the task-oriented
// operations the mirror needs (clone a branch, stage the whole worktree, commit,
// push) while enforcing the use of the project's native filesystem abstraction.
// All operations work with both on-disk and in-memory repositories.
//
// # Basic Usage
//
// Clone a single branch into a directory of a filesystem:
//
//	import (
//	    "context"
//	    billyfs "github.com/input-output-hk/crx-mirror/fs/billy"
//	    "github.com/input-output-hk/crx-mirror/git"
//	)
//
//	fs := billyfs.NewOSFS("/var/lib/mirror")
//
//	repo, err := git.Clone(ctx, "https://github.com/owner/repo.git", &git.Options{
//	    FS:      fs,
//	    Workdir: "extension_unpacked",
//	    Branch:  "main",
//	    Auth:    git.NewTokenAuth(token, "github.com"),
//	})
//
// # Making Commits
//
// Stage every change (additions, modifications and deletions) and commit:
//
//	err = repo.AddAll(ctx)
//
//	sha, err := repo.Commit(ctx, "Automatic update", git.Signature{
//	    Name:  "crx-mirror",
//	    Email: "crx-mirror@users.noreply.github.com",
//	    When:  time.Now(),
//	}, git.CommitOpts{AllowEmpty: true})
//
// # Pushing
//
//	err = repo.PushBranch(ctx, "origin", "main", false)
//	if errors.Is(err, git.ErrNotFastForward) {
//	    // remote branch moved on; nothing was written
//	}
//
// # Authentication
//
// NewTokenAuth returns a provider that sends a token over HTTPS basic auth to
// the listed hosts only. Local (file://) remotes never receive credentials.
//
// # Error Handling
//
// Operations return errors that can be compared with errors.Is against the
// sentinel errors of this package (ErrAuthRequired, ErrNotFastForward,
// ErrEmptyCommit, ...). Underlying go-git errors stay reachable through
// errors.Unwrap.
//
// # Testing
//
// Package gittest serves in-memory remotes over the file:// scheme so clone and
// push can be exercised without a git binary or network access.
package git
