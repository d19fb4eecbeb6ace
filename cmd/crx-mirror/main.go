// Command crx-mirror keeps a git branch in sync with the published package of
// a browser extension. It downloads the package every hour, unpacks it and
// commits the tree to the configured repository.
//
// Configuration is read from the environment; see package config.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/input-output-hk/crx-mirror/config"
	"github.com/input-output-hk/crx-mirror/errors"
	billyfs "github.com/input-output-hk/crx-mirror/fs/billy"
	"github.com/input-output-hk/crx-mirror/mirror"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "crx-mirror: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	defer cfg.Token.Clear()

	logger := newLogger(cfg, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("resolve working directory: %w", err)
	}

	runner, err := mirror.FromConfig(cfg, mirror.Deps{
		FS:       billyfs.NewOSFS(cwd),
		LockPath: filepath.Join(cwd, cfg.ArchivePath+".lock"),
		Logger:   logger,
	})
	if err != nil {
		logger.ErrorContext(ctx, "invalid configuration",
			"code", string(errors.GetCode(err)),
			"error", err)
		return err
	}

	logger.InfoContext(ctx, "mirror starting",
		"extension_id", cfg.ExtensionID,
		"repository", cfg.RepoOwner+"/"+cfg.RepoName,
		"branch", cfg.Branch,
		"strategy", string(cfg.Strategy),
		"token", cfg.Token,
		"interval", cfg.Interval)

	err = runner.Run(ctx)
	if errors.Is(err, context.Canceled) {
		logger.Info("mirror stopped")
		return nil
	}
	return err
}
