// Package mirror runs the sync loop: fetch the extension package, unpack it,
// publish the tree to the mirror repository, clean up, then wait.
package mirror

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/input-output-hk/crx-mirror/crx"
	"github.com/input-output-hk/crx-mirror/errors"
	"github.com/input-output-hk/crx-mirror/fs"
	"github.com/input-output-hk/crx-mirror/publish"
)

// Fetcher downloads the extension package to a path.
type Fetcher interface {
	Fetch(ctx context.Context, id, out string) (int64, error)
}

// Unpacker extracts a package into a directory.
type Unpacker interface {
	Unpack(ctx context.Context, archivePath, dir string) (*crx.Result, error)
}

// Options configures a Runner.
type Options struct {
	ExtensionID string
	Author      publish.Identity

	// WorkDir receives the unpacked extension. ArchivePath holds the download.
	// Both live in FS and are removed at the end of every iteration.
	WorkDir     string
	ArchivePath string
	FS          fs.Filesystem

	// Interval is the pause between iterations of Run.
	Interval time.Duration

	// LockPath is an OS path locked for the lifetime of Run.
	// When empty, no lock is taken.
	LockPath string

	Fetcher   Fetcher
	Unpacker  Unpacker
	Publisher publish.Publisher

	// Logger receives progress records. If nil, logging is disabled.
	Logger *slog.Logger

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// Report describes one iteration.
type Report struct {
	RunID    string
	Started  time.Time
	Finished time.Time

	// Stage is the last stage entered; StageDone after a successful run.
	Stage Stage

	Bytes   int64
	Files   int
	Version string
	Result  *publish.Result

	// FetchErr records a download failure. The iteration carries on and
	// fails at unpack.
	FetchErr error
	Err      error
}

// Runner executes iterations of the sync loop.
type Runner struct {
	opts Options
}

// New creates a Runner.
func New(opts Options) (*Runner, error) {
	var missing []string
	if opts.ExtensionID == "" {
		missing = append(missing, "extension id")
	}
	if opts.WorkDir == "" {
		missing = append(missing, "working directory")
	}
	if opts.ArchivePath == "" {
		missing = append(missing, "archive path")
	}
	if opts.FS == nil {
		missing = append(missing, "filesystem")
	}
	if opts.Fetcher == nil {
		missing = append(missing, "fetcher")
	}
	if opts.Unpacker == nil {
		missing = append(missing, "unpacker")
	}
	if opts.Publisher == nil {
		missing = append(missing, "publisher")
	}
	if len(missing) > 0 {
		return nil, errors.Newf(errors.CodeInvalidConfig, "runner is missing: %v", missing)
	}

	if opts.Interval <= 0 {
		return nil, errors.New(errors.CodeInvalidConfig, "interval must be positive")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Runner{opts: opts}, nil
}

// RunOnce executes a single iteration.
//
// Cleanup runs on every exit path, including panics, which are recovered
// and reported as CodeInternal. Failures are returned as *StageError.
func (r *Runner) RunOnce(ctx context.Context) (report *Report, err error) {
	report = &Report{
		RunID:   uuid.NewString(),
		Started: r.opts.Now(),
	}

	logger := r.opts.Logger
	if logger != nil {
		logger = logger.With("run_id", report.RunID)
		logger.InfoContext(ctx, "iteration started",
			"extension_id", r.opts.ExtensionID,
			"strategy", string(r.opts.Publisher.Name()))
	}

	defer func() {
		if rec := recover(); rec != nil {
			err = &StageError{
				Stage: report.Stage,
				Err:   errors.Newf(errors.CodeInternal, "panic: %v", rec),
			}
		}

		if cleanupErr := r.cleanup(); cleanupErr != nil {
			if err == nil {
				err = &StageError{Stage: StageCleanup, Err: cleanupErr}
			} else if logger != nil {
				logger.ErrorContext(ctx, "cleanup failed", "error", cleanupErr)
			}
		}

		report.Finished = r.opts.Now()
		report.Err = err
		r.logOutcome(ctx, logger, report)
	}()

	err = r.iterate(ctx, logger, report)
	return report, err
}

func (r *Runner) iterate(ctx context.Context, logger *slog.Logger, report *Report) error {
	enter := func(stage Stage) error {
		report.Stage = stage
		if err := ctx.Err(); err != nil {
			return &StageError{Stage: stage, Err: errors.Wrap(err, errors.CodeCanceled, "iteration interrupted")}
		}
		return nil
	}

	if err := enter(StageReset); err != nil {
		return err
	}
	if err := r.cleanup(); err != nil {
		return &StageError{Stage: StageReset, Err: err}
	}

	if err := enter(StagePrepare); err != nil {
		return err
	}
	if err := r.opts.Publisher.Prepare(ctx, r.opts.WorkDir); err != nil {
		return &StageError{Stage: StagePrepare, Err: err}
	}

	if err := enter(StageFetch); err != nil {
		return err
	}
	n, err := r.opts.Fetcher.Fetch(ctx, r.opts.ExtensionID, r.opts.ArchivePath)
	if err != nil {
		if errors.HasCode(err, errors.CodeCanceled) {
			return &StageError{Stage: StageFetch, Err: err}
		}
		report.FetchErr = err
		if logger != nil {
			logger.WarnContext(ctx, "fetch failed, continuing with unpack",
				"code", string(errors.GetCode(err)),
				"error", err)
		}
	}
	report.Bytes = n

	if err := enter(StageUnpack); err != nil {
		return err
	}
	unpacked, err := r.opts.Unpacker.Unpack(ctx, r.opts.ArchivePath, r.opts.WorkDir)
	if err != nil {
		return &StageError{Stage: StageUnpack, Err: err}
	}
	report.Files = unpacked.Files
	report.Version = unpacked.Manifest.Version

	if err := enter(StagePublish); err != nil {
		return err
	}
	result, err := r.opts.Publisher.Publish(ctx, r.opts.WorkDir, publish.Commit{
		ExtensionID: r.opts.ExtensionID,
		Author:      r.opts.Author,
		When:        r.opts.Now(),
	})
	if err != nil {
		return &StageError{Stage: StagePublish, Err: err}
	}
	report.Result = result

	report.Stage = StageDone
	return nil
}

// cleanup removes the working directory and the archive.
func (r *Runner) cleanup() error {
	var errs []error
	if err := r.opts.FS.RemoveAll(r.opts.WorkDir); err != nil {
		errs = append(errs, fmt.Errorf("remove %s: %w", r.opts.WorkDir, err))
	}
	if err := r.opts.FS.RemoveAll(r.opts.ArchivePath); err != nil {
		errs = append(errs, fmt.Errorf("remove %s: %w", r.opts.ArchivePath, err))
	}
	if len(errs) > 0 {
		return errors.Wrap(errors.Join(errs...), errors.CodeFilesystem, "cleanup failed")
	}
	return nil
}

func (r *Runner) logOutcome(ctx context.Context, logger *slog.Logger, report *Report) {
	if logger == nil {
		return
	}

	duration := report.Finished.Sub(report.Started)
	if report.Err == nil {
		attrs := []any{
			"duration", duration,
			"version", report.Version,
			"files", report.Files,
		}
		if report.Result != nil {
			attrs = append(attrs,
				"commit", report.Result.CommitSHA,
				"merged", report.Result.Merged,
				"rebased", report.Result.Rebased)
		}
		logger.InfoContext(ctx, "iteration succeeded", attrs...)
		return
	}

	attrs := []any{
		"stage", string(StageOf(report.Err)),
		"code", string(errors.GetCode(report.Err)),
		"retryable", errors.IsRetryable(report.Err),
		"duration", duration,
		"error", report.Err,
	}
	for k, v := range errors.ContextOf(report.Err) {
		attrs = append(attrs, k, v)
	}
	logger.ErrorContext(ctx, "iteration failed", attrs...)
}
