package mirror

import (
	"context"
	"time"

	"github.com/gofrs/flock"

	"github.com/input-output-hk/crx-mirror/errors"
)

const lockRetryDelay = 100 * time.Millisecond

// lockTimeout bounds how long Run waits for the workspace lock.
var lockTimeout = 5 * time.Second

// Run executes iterations until ctx is cancelled, pausing Interval after each
// one. Iteration failures are logged and never stop the loop. Run returns
// ctx.Err() once cancelled, or an error when the workspace lock is held by
// another process.
func (r *Runner) Run(ctx context.Context) error {
	if r.opts.LockPath != "" {
		unlock, err := r.lock(ctx)
		if err != nil {
			return err
		}
		defer unlock()
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		_, _ = r.RunOnce(ctx)

		if err := ctx.Err(); err != nil {
			return err
		}

		if r.opts.Logger != nil {
			r.opts.Logger.DebugContext(ctx, "waiting for next iteration",
				"interval", r.opts.Interval)
		}

		timer := time.NewTimer(r.opts.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (r *Runner) lock(ctx context.Context) (func(), error) {
	fileLock := flock.New(r.opts.LockPath)
	lockCtx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()

	locked, err := fileLock.TryLockContext(lockCtx, lockRetryDelay)
	switch {
	case ctx.Err() != nil:
		return nil, ctx.Err()
	case locked:
		return func() { _ = fileLock.Unlock() }, nil
	case err != nil && !errors.Is(err, context.DeadlineExceeded):
		return nil, errors.WrapWithContext(err, errors.CodeFilesystem, "failed to acquire workspace lock",
			map[string]any{"path": r.opts.LockPath})
	default:
		return nil, errors.New(errors.CodeConflict, "workspace is locked by another process").
			WithContext("path", r.opts.LockPath)
	}
}
