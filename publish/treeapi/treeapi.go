// Package treeapi publishes an extension tree through the GitHub git data API.
//
// Each file becomes a blob, the blobs form a tree with no base tree, and the
// tree is committed on top of the current branch tip. The commit is then merged
// into the branch. When the merge conflicts and rebasing is enabled, the same
// tree is committed again on the latest tip and the branch is fast-forwarded.
package treeapi

import (
	"context"
	"encoding/base64"
	"log/slog"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"

	"github.com/input-output-hk/crx-mirror/errors"
	"github.com/input-output-hk/crx-mirror/fs"
	"github.com/input-output-hk/crx-mirror/publish"
	"github.com/input-output-hk/crx-mirror/secrets"
)

const (
	fileMode = "100644"
	blobType = "blob"
)

// Options configures a Publisher.
type Options struct {
	Owner  string
	Repo   string
	Branch string

	// Token authenticates API calls.
	Token secrets.Secret

	// BaseURL overrides the API root, e.g. for GitHub Enterprise.
	BaseURL string

	// HTTPClient is the transport wrapped with token authentication.
	// Defaults to http.DefaultClient.
	HTTPClient *http.Client

	// RebaseOnConflict replays the tree on the latest tip when the merge conflicts.
	RebaseOnConflict bool

	// FS holds the directory passed to Publish.
	FS fs.Filesystem

	// Logger receives progress records. If nil, logging is disabled.
	Logger *slog.Logger
}

// Publisher implements publish.Publisher on top of the git data API.
type Publisher struct {
	client *github.Client
	opts   Options
}

var _ publish.Publisher = (*Publisher)(nil)

// New creates a Publisher.
func New(opts Options) (*Publisher, error) {
	if opts.Owner == "" || opts.Repo == "" || opts.Branch == "" {
		return nil, errors.New(errors.CodeInvalidConfig, "owner, repository and branch are required")
	}
	if opts.FS == nil {
		return nil, errors.New(errors.CodeInvalidConfig, "filesystem is required")
	}

	ctx := context.Background()
	if opts.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, opts.HTTPClient)
	}

	var httpClient *http.Client
	if opts.Token.IsZero() {
		httpClient = opts.HTTPClient
	} else {
		httpClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: opts.Token.Reveal(),
		}))
	}

	client := github.NewClient(httpClient)
	if opts.BaseURL != "" {
		base := opts.BaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInvalidConfig, "invalid API base URL")
		}
		client.BaseURL = u
	}

	return &Publisher{client: client, opts: opts}, nil
}

// Name implements publish.Publisher.
func (p *Publisher) Name() publish.Strategy {
	return publish.StrategyTreeAPI
}

// Prepare implements publish.Publisher. The tree is built remotely, so there
// is nothing to set up locally.
func (p *Publisher) Prepare(ctx context.Context, dir string) error {
	return nil
}

// Publish implements publish.Publisher.
func (p *Publisher) Publish(ctx context.Context, dir string, c publish.Commit) (*publish.Result, error) {
	tip, err := p.tip(ctx)
	if err != nil {
		return nil, err
	}

	entries, err := p.createBlobs(ctx, dir)
	if err != nil {
		return nil, err
	}

	tree, resp, err := p.client.Git.CreateTree(ctx, p.opts.Owner, p.opts.Repo, "", entries)
	if err != nil {
		return nil, p.fail(ctx, err, resp, "create tree")
	}

	commitSHA, err := p.createCommit(ctx, c, publish.ActionUpdate, tree.GetSHA(), tip)
	if err != nil {
		return nil, err
	}

	result := &publish.Result{
		Strategy:  publish.StrategyTreeAPI,
		Branch:    p.opts.Branch,
		CommitSHA: commitSHA,
		TreeSHA:   tree.GetSHA(),
	}

	merged, err := p.merge(ctx, c, commitSHA)
	if err != nil {
		if !p.opts.RebaseOnConflict || !errors.HasCode(err, errors.CodeConflict) {
			return nil, err
		}

		if p.opts.Logger != nil {
			p.opts.Logger.WarnContext(ctx, "merge conflicted, rebasing onto branch tip",
				"branch", p.opts.Branch,
				"commit", commitSHA)
		}

		rebased, err := p.Rebase(ctx, c, tree.GetSHA())
		if err != nil {
			return nil, err
		}
		result.CommitSHA = rebased
		result.Rebased = true
		return result, nil
	}

	result.Merged = merged
	return result, nil
}

// Rebase commits treeSHA on top of the current branch tip and fast-forwards
// the branch to it. A branch that moved in between is reported as CodeConflict.
func (p *Publisher) Rebase(ctx context.Context, c publish.Commit, treeSHA string) (string, error) {
	tip, err := p.tip(ctx)
	if err != nil {
		return "", err
	}

	sha, err := p.createCommit(ctx, c, publish.ActionRebase, treeSHA, tip)
	if err != nil {
		return "", err
	}

	ref := &github.Reference{
		Ref:    github.Ptr("refs/heads/" + p.opts.Branch),
		Object: &github.GitObject{SHA: github.Ptr(sha)},
	}
	if _, resp, err := p.client.Git.UpdateRef(ctx, p.opts.Owner, p.opts.Repo, ref, false); err != nil {
		return "", p.fail(ctx, err, resp, "update ref")
	}

	if p.opts.Logger != nil {
		p.opts.Logger.InfoContext(ctx, "branch rebased",
			"branch", p.opts.Branch,
			"commit", sha)
	}
	return sha, nil
}

func (p *Publisher) tip(ctx context.Context) (string, error) {
	ref, resp, err := p.client.Git.GetRef(ctx, p.opts.Owner, p.opts.Repo, "heads/"+p.opts.Branch)
	if err != nil {
		return "", p.fail(ctx, err, resp, "get ref")
	}
	return ref.GetObject().GetSHA(), nil
}

func (p *Publisher) createBlobs(ctx context.Context, dir string) ([]*github.TreeEntry, error) {
	files, err := fs.ListFiles(p.opts.FS, dir)
	if err != nil {
		return nil, errors.WrapWithContext(err, errors.CodeFilesystem, "failed to list working tree",
			map[string]any{"path": dir})
	}
	if len(files) == 0 {
		return nil, errors.New(errors.CodeInvalidInput, "working tree is empty").WithContext("path", dir)
	}

	entries := make([]*github.TreeEntry, 0, len(files))
	for _, name := range files {
		data, err := p.opts.FS.ReadFile(filepath.Join(dir, filepath.FromSlash(name)))
		if err != nil {
			return nil, errors.WrapWithContext(err, errors.CodeFilesystem, "failed to read file",
				map[string]any{"path": name})
		}

		blob, resp, err := p.client.Git.CreateBlob(ctx, p.opts.Owner, p.opts.Repo, &github.Blob{
			Content:  github.Ptr(base64.StdEncoding.EncodeToString(data)),
			Encoding: github.Ptr("base64"),
		})
		if err != nil {
			return nil, p.fail(ctx, err, resp, "create blob")
		}

		entries = append(entries, &github.TreeEntry{
			Path: github.Ptr(name),
			Mode: github.Ptr(fileMode),
			Type: github.Ptr(blobType),
			SHA:  blob.SHA,
		})
	}

	if p.opts.Logger != nil {
		p.opts.Logger.InfoContext(ctx, "blobs created",
			"files", len(entries))
	}
	return entries, nil
}

func (p *Publisher) createCommit(
	ctx context.Context,
	c publish.Commit,
	action publish.Action,
	treeSHA, parentSHA string,
) (string, error) {
	author := &github.CommitAuthor{
		Name:  github.Ptr(c.Author.Name),
		Email: github.Ptr(c.Author.Email),
		Date:  &github.Timestamp{Time: c.When},
	}

	commit, resp, err := p.client.Git.CreateCommit(ctx, p.opts.Owner, p.opts.Repo, &github.Commit{
		Message:   github.Ptr(c.Message(action)),
		Tree:      &github.Tree{SHA: github.Ptr(treeSHA)},
		Parents:   []*github.Commit{{SHA: github.Ptr(parentSHA)}},
		Author:    author,
		Committer: author,
	}, nil)
	if err != nil {
		return "", p.fail(ctx, err, resp, "create commit")
	}
	return commit.GetSHA(), nil
}

// merge merges sha into the branch. It reports false when the branch already
// contained sha.
func (p *Publisher) merge(ctx context.Context, c publish.Commit, sha string) (bool, error) {
	_, resp, err := p.client.Repositories.Merge(ctx, p.opts.Owner, p.opts.Repo, &github.RepositoryMergeRequest{
		Base:          github.Ptr(p.opts.Branch),
		Head:          github.Ptr(sha),
		CommitMessage: github.Ptr(c.Message(publish.ActionMerge)),
	})
	if err != nil {
		return false, p.fail(ctx, err, resp, "merge")
	}

	merged := resp.StatusCode == http.StatusCreated
	if p.opts.Logger != nil {
		p.opts.Logger.InfoContext(ctx, "commit merged",
			"branch", p.opts.Branch,
			"commit", sha,
			"merged", merged)
	}
	return merged, nil
}

// fail classifies an API error, logs it and returns it.
func (p *Publisher) fail(ctx context.Context, err error, resp *github.Response, op string) error {
	status := 0
	if resp != nil {
		status = resp.StatusCode
	}

	code := errors.CodePublishFailed
	var rateErr *github.RateLimitError
	switch {
	case errors.As(err, &rateErr):
		code = errors.CodeRateLimit
	case status == http.StatusUnauthorized:
		code = errors.CodeUnauthorized
	case status == http.StatusForbidden:
		code = errors.CodeForbidden
	case status == http.StatusConflict, status == http.StatusUnprocessableEntity:
		code = errors.CodeConflict
	}

	if p.opts.Logger != nil {
		p.opts.Logger.ErrorContext(ctx, "github api call failed",
			"operation", op,
			"status", status,
			"code", string(code),
			"error", err)
	}

	return errors.WrapWithContext(err, code, op+" failed", map[string]any{
		"operation": op,
		"status":    status,
	})
}
