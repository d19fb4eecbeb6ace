package mirror

import (
	"log/slog"
	"net/http"

	"github.com/go-git/go-git/v5"

	"github.com/input-output-hk/crx-mirror/config"
	"github.com/input-output-hk/crx-mirror/crx"
	"github.com/input-output-hk/crx-mirror/errors"
	"github.com/input-output-hk/crx-mirror/fs"
	"github.com/input-output-hk/crx-mirror/publish"
	"github.com/input-output-hk/crx-mirror/publish/clonepush"
	"github.com/input-output-hk/crx-mirror/publish/treeapi"
)

// Deps carries the process-level dependencies of a Runner built from config.
type Deps struct {
	// FS holds the working directory and the archive.
	FS fs.Filesystem

	// HTTPClient is used for downloads and API calls. Defaults to http.DefaultClient.
	HTTPClient *http.Client

	// LockPath is passed through to Options.LockPath.
	LockPath string

	Logger *slog.Logger
}

// NewPublisher creates the publisher selected by cfg.Strategy.
//
//nolint:ireturn // the strategy is chosen at runtime.
func NewPublisher(cfg config.Config, deps Deps) (publish.Publisher, error) {
	switch cfg.Strategy {
	case publish.StrategyTreeAPI:
		p, err := treeapi.New(treeapi.Options{
			Owner:            cfg.RepoOwner,
			Repo:             cfg.RepoName,
			Branch:           cfg.Branch,
			Token:            cfg.Token,
			BaseURL:          cfg.APIBaseURL,
			HTTPClient:       deps.HTTPClient,
			RebaseOnConflict: cfg.RebaseOnConflict,
			FS:               deps.FS,
			Logger:           deps.Logger,
		})
		if err != nil {
			return nil, err
		}
		return p, nil
	case publish.StrategyClonePush:
		p, err := clonepush.New(clonepush.Options{
			RemoteURL: cfg.RemoteURL,
			Branch:    cfg.Branch,
			Token:     cfg.Token,
			FS:        deps.FS,
			Logger:    deps.Logger,
		})
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, errors.Newf(errors.CodeInvalidConfig, "unknown publish strategy %q", cfg.Strategy)
	}
}

// FromConfig wires a Runner from a validated configuration.
func FromConfig(cfg config.Config, deps Deps) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	pub, err := NewPublisher(cfg, deps)
	if err != nil {
		return nil, err
	}

	crxOpts := []crx.Option{
		crx.WithLogger(deps.Logger),
		crx.WithHTTPClient(deps.HTTPClient),
		crx.WithEndpoint(cfg.UpdateURL),
	}
	if cfg.Strategy == publish.StrategyClonePush {
		crxOpts = append(crxOpts, crx.WithPreserve(git.GitDirName))
	}

	return New(Options{
		ExtensionID: cfg.ExtensionID,
		Author:      cfg.Author,
		WorkDir:     cfg.WorkDir,
		ArchivePath: cfg.ArchivePath,
		FS:          deps.FS,
		Interval:    cfg.Interval,
		LockPath:    deps.LockPath,
		Fetcher:     crx.NewFetcher(deps.FS, crxOpts...),
		Unpacker:    crx.NewUnpacker(deps.FS, crxOpts...),
		Publisher:   pub,
		Logger:      deps.Logger,
	})
}
