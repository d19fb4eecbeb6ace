// Package git provides a high-level Go wrapper for go-git operations.
// This file contains synchronization operations.
package git

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
)

// PushBranch pushes the local branch to the same branch name on the specified remote.
// It supports force pushing when force is true.
// Returns ErrNotFastForward if the push would overwrite remote changes and force is false.
// Returns ErrAlreadyUpToDate if there are no changes to push.
//
// Context timeout/cancellation is honored during the push operation.
func (r *Repo) PushBranch(ctx context.Context, remote, branch string, force bool) error {
	if remote == "" {
		remote = DefaultRemoteName
	}

	ref := plumbing.NewBranchReferenceName(branch)
	if err := ref.Validate(); err != nil {
		return WrapErrorf(ErrInvalidRef, "invalid branch %q", branch)
	}

	refSpec := config.RefSpec(fmt.Sprintf("%s:%s", ref, ref))
	if force {
		refSpec = "+" + refSpec
	}

	pushOpts := &git.PushOptions{
		RemoteName: remote,
		RefSpecs:   []config.RefSpec{refSpec},
		Force:      force,
	}

	if r.options.Auth != nil {
		remoteConfig, err := r.repo.Remote(remote)
		if err != nil {
			return WrapError(ErrResolveFailed, "remote not found")
		}

		authMethod, authErr := r.options.Auth.Method(remoteConfig.Config().URLs[0])
		if authErr != nil {
			return WrapError(ErrAuthRequired, "failed to get authentication method")
		}
		pushOpts.Auth = authMethod
	}

	err := r.repo.PushContext(ctx, pushOpts)
	if err != nil {
		if errors.Is(err, git.ErrRemoteNotFound) {
			return WrapError(ErrResolveFailed, "remote not found")
		}
		if errors.Is(err, git.NoErrAlreadyUpToDate) {
			return ErrAlreadyUpToDate
		}
		if isRejectedUpdate(err) {
			return fmt.Errorf("%w: %w", ErrNotFastForward, err)
		}
		return WrapError(translateTransportError(err), "failed to push to remote")
	}

	return nil
}

// isRejectedUpdate reports whether err is a push refused because the remote
// branch is not an ancestor of the pushed commit. go-git reports the local
// check as a plain formatted error and remote refusals through the
// receive-pack report status, so both messages are matched.
func isRejectedUpdate(err error) bool {
	if errors.Is(err, git.ErrNonFastForwardUpdate) || errors.Is(err, git.ErrForceNeeded) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "non-fast-forward") || strings.Contains(msg, "fetch first")
}
