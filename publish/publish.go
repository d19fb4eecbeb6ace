// Package publish defines how an unpacked extension tree is written to the
// mirror repository.
//
// Two strategies exist: treeapi builds the commit remotely through the GitHub
// git data API, clonepush clones the branch and pushes a local commit.
package publish

import (
	"context"
	"fmt"
	"time"
)

// Strategy names a publishing mechanism.
type Strategy string

const (
	// StrategyTreeAPI creates blobs, a tree and a commit through the hosting API
	// and merges the commit into the branch.
	StrategyTreeAPI Strategy = "tree-api"

	// StrategyClonePush clones the branch, commits the tree locally and pushes.
	StrategyClonePush Strategy = "clone-push"
)

// Valid reports whether s names a known strategy.
func (s Strategy) Valid() bool {
	return s == StrategyTreeAPI || s == StrategyClonePush
}

// Action is the verb recorded in a commit message.
type Action string

const (
	ActionUpdate Action = "Automatic update"
	ActionMerge  Action = "Automatic merge"
	ActionRebase Action = "Automatic rebase"
)

// messageTimeLayout renders timestamps as DD/MM/YYYY, HH:MM:SS.
const messageTimeLayout = "02/01/2006, 15:04:05"

// Message formats a commit message: "[DD/MM/YYYY, HH:MM:SS] <action> :: <id>".
func Message(now time.Time, action Action, id string) string {
	return fmt.Sprintf("[%s] %s :: %s", now.Format(messageTimeLayout), action, id)
}

// Identity is the author and committer recorded on mirror commits.
type Identity struct {
	Name  string
	Email string
}

// Commit describes the commit a publisher creates for one iteration.
type Commit struct {
	// ExtensionID is the mirrored extension, recorded in every message.
	ExtensionID string

	// Author signs every commit created by the publisher.
	Author Identity

	// When is the timestamp used for messages and signatures.
	When time.Time
}

// Message returns the commit message for action.
func (c Commit) Message(action Action) string {
	return Message(c.When, action, c.ExtensionID)
}

// Result reports what a publisher wrote.
type Result struct {
	Strategy  Strategy
	Branch    string
	CommitSHA string
	TreeSHA   string

	// Merged is set when the branch was advanced through a merge.
	Merged bool

	// Rebased is set when a merge conflict was resolved by replaying the
	// tree on top of the latest branch tip.
	Rebased bool
}

// Publisher writes the contents of a directory as a new commit on the
// configured branch.
type Publisher interface {
	// Name returns the strategy implemented by the publisher.
	Name() Strategy

	// Prepare runs before the extension is unpacked into dir.
	Prepare(ctx context.Context, dir string) error

	// Publish commits the file tree below dir.
	Publish(ctx context.Context, dir string, c Commit) (*Result, error)
}
