// Package clonepush publishes an extension tree by cloning the mirror branch,
// committing the unpacked files locally and pushing the branch back.
package clonepush

import (
	"context"
	"log/slog"
	"net/url"

	"github.com/input-output-hk/crx-mirror/errors"
	"github.com/input-output-hk/crx-mirror/fs"
	"github.com/input-output-hk/crx-mirror/git"
	"github.com/input-output-hk/crx-mirror/publish"
	"github.com/input-output-hk/crx-mirror/secrets"
)

// Options configures a Publisher.
type Options struct {
	// RemoteURL is the repository cloned and pushed to.
	RemoteURL string

	// Branch is cloned, committed on and pushed.
	Branch string

	// Token authenticates HTTPS remotes. It is only sent to the host of RemoteURL.
	Token secrets.Secret

	// FS holds the working directory and the repository metadata.
	FS fs.Filesystem

	// Logger receives progress records. If nil, logging is disabled.
	Logger *slog.Logger
}

// Publisher implements publish.Publisher with a local clone.
type Publisher struct {
	opts Options
	auth git.AuthProvider

	repo *git.Repo
	dir  string
}

var _ publish.Publisher = (*Publisher)(nil)

// New creates a Publisher.
func New(opts Options) (*Publisher, error) {
	if opts.RemoteURL == "" || opts.Branch == "" {
		return nil, errors.New(errors.CodeInvalidConfig, "remote URL and branch are required")
	}
	if opts.FS == nil {
		return nil, errors.New(errors.CodeInvalidConfig, "filesystem is required")
	}

	u, err := url.Parse(opts.RemoteURL)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidConfig, "invalid remote URL")
	}

	p := &Publisher{opts: opts}
	if !opts.Token.IsZero() {
		p.auth = git.NewTokenAuth(opts.Token.Reveal(), u.Hostname())
	}
	return p, nil
}

// Name implements publish.Publisher.
func (p *Publisher) Name() publish.Strategy {
	return publish.StrategyClonePush
}

// Prepare clones the branch into dir, replacing whatever dir held.
func (p *Publisher) Prepare(ctx context.Context, dir string) error {
	p.repo, p.dir = nil, ""

	if err := p.opts.FS.RemoveAll(dir); err != nil {
		return errors.WrapWithContext(err, errors.CodeFilesystem, "failed to remove working directory",
			map[string]any{"path": dir})
	}

	if p.opts.Logger != nil {
		p.opts.Logger.InfoContext(ctx, "cloning mirror branch",
			"branch", p.opts.Branch,
			"path", dir)
	}

	repo, err := git.Clone(ctx, p.opts.RemoteURL, &git.Options{
		FS:      p.opts.FS,
		Workdir: dir,
		Branch:  p.opts.Branch,
		Auth:    p.auth,
	})
	if err != nil {
		return p.fail(ctx, err, "clone")
	}

	p.repo, p.dir = repo, dir
	return nil
}

// Publish stages every change below dir, commits it and pushes the branch.
// A commit is created even when the tree did not change.
func (p *Publisher) Publish(ctx context.Context, dir string, c publish.Commit) (*publish.Result, error) {
	if p.repo == nil || p.dir != dir {
		return nil, errors.New(errors.CodePublishFailed, "working directory was not prepared").
			WithContext("path", dir)
	}

	if err := p.repo.AddAll(ctx); err != nil {
		return nil, p.fail(ctx, err, "stage")
	}

	sha, err := p.repo.Commit(ctx, c.Message(publish.ActionUpdate), git.Signature{
		Name:  c.Author.Name,
		Email: c.Author.Email,
		When:  c.When,
	}, git.CommitOpts{AllowEmpty: true})
	if err != nil {
		return nil, p.fail(ctx, err, "commit")
	}

	tree, err := p.repo.TreeHash(ctx, sha)
	if err != nil {
		return nil, p.fail(ctx, err, "commit")
	}

	if err := p.repo.PushBranch(ctx, git.DefaultRemoteName, p.opts.Branch, false); err != nil {
		return nil, p.fail(ctx, err, "push")
	}

	if p.opts.Logger != nil {
		p.opts.Logger.InfoContext(ctx, "branch pushed",
			"branch", p.opts.Branch,
			"commit", sha)
	}

	return &publish.Result{
		Strategy:  publish.StrategyClonePush,
		Branch:    p.opts.Branch,
		CommitSHA: sha,
		TreeSHA:   tree,
	}, nil
}

// fail classifies a git error, logs it and returns it.
func (p *Publisher) fail(ctx context.Context, err error, op string) error {
	code := errors.CodePublishFailed
	switch {
	case errors.Is(err, git.ErrNotFastForward):
		code = errors.CodeConflict
	case errors.Is(err, git.ErrAuthRequired), errors.Is(err, git.ErrAuthFailed):
		code = errors.CodeUnauthorized
	case errors.Is(err, git.ErrBranchMissing), errors.Is(err, git.ErrResolveFailed):
		code = errors.CodeNotFound
	}

	if p.opts.Logger != nil {
		p.opts.Logger.ErrorContext(ctx, "git operation failed",
			"operation", op,
			"code", string(code),
			"error", err)
	}

	return errors.WrapWithContext(err, code, op+" failed", map[string]any{
		"operation": op,
		"branch":    p.opts.Branch,
	})
}
