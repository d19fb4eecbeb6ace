package git

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by repository operations. Callers classify
// failures with errors.Is; the underlying go-git error stays in the chain.
var (
	// ErrAlreadyUpToDate reports a push that changed nothing on the remote.
	ErrAlreadyUpToDate = errors.New("already up to date")

	// ErrAuthRequired reports a remote that asked for credentials none were
	// configured for.
	ErrAuthRequired = errors.New("authentication required")

	// ErrAuthFailed reports credentials the remote rejected.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrBranchMissing reports a branch absent locally or on the remote.
	ErrBranchMissing = errors.New("branch does not exist")

	// ErrNotFastForward reports a push rejected because the remote branch
	// moved past the local commit's parent.
	ErrNotFastForward = errors.New("not a fast-forward")

	// ErrEmptyCommit reports a commit without changes when empty commits
	// were not allowed.
	ErrEmptyCommit = errors.New("nothing to commit")

	// ErrInvalidRef reports malformed options or reference names.
	ErrInvalidRef = errors.New("invalid reference")

	// ErrResolveFailed reports a remote or revision that could not be found.
	ErrResolveFailed = errors.New("cannot resolve revision")
)

// WrapError prefixes err with msg, keeping it matchable with errors.Is.
// A nil err yields nil.
func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// WrapErrorf is WrapError with a formatted prefix.
func WrapErrorf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}
